// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"

	"github.com/studykitio/studykit/extensions"
)

const insertScheduledActivityQuery = `INSERT INTO sk_scheduled_activities
	(health_code, activity_guid, study_id, schedule_plan_guid, activity, scheduled_on, expires_on, local_scheduled_on, started_on, finished_on)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (health_code, activity_guid) DO NOTHING`

func (d dbSession) InsertScheduledActivity(
	ctx context.Context, row extensions.ScheduledActivityRow,
) error {
	_, err := d.db.ExecContext(ctx, insertScheduledActivityQuery,
		row.HealthCode, row.ActivityGuid, row.StudyId, row.SchedulePlanGuid, row.Activity,
		row.ScheduledOn, row.ExpiresOn, row.LocalScheduledOn, row.StartedOn, row.FinishedOn)
	return err
}

const selectScheduledActivityQuery = `SELECT
	health_code, activity_guid, study_id, schedule_plan_guid, activity, scheduled_on, expires_on, local_scheduled_on, started_on, finished_on
	FROM sk_scheduled_activities WHERE health_code = $1 AND activity_guid = $2`

func (d dbSession) SelectScheduledActivity(
	ctx context.Context, filter extensions.ScheduledActivitySelectFilter,
) (*extensions.ScheduledActivityRow, error) {
	var row extensions.ScheduledActivityRow
	err := d.db.GetContext(ctx, &row, selectScheduledActivityQuery, filter.HealthCode, filter.ActivityGuid)
	if err != nil {
		return nil, err
	}
	normalizeRowTimes(&row)
	return &row, nil
}

const selectScheduledActivitiesInRangeQuery = `SELECT
	health_code, activity_guid, study_id, schedule_plan_guid, activity, scheduled_on, expires_on, local_scheduled_on, started_on, finished_on
	FROM sk_scheduled_activities
	WHERE health_code = $1 AND scheduled_on >= $2 AND scheduled_on <= $3
	ORDER BY scheduled_on ASC, activity_guid ASC`

func (d dbSession) SelectScheduledActivitiesInRange(
	ctx context.Context, filter extensions.ScheduledActivityRangeSelectFilter,
) ([]extensions.ScheduledActivityRow, error) {
	var rows []extensions.ScheduledActivityRow
	err := d.db.SelectContext(ctx, &rows, selectScheduledActivitiesInRangeQuery,
		filter.HealthCode, filter.ScheduledOnFrom, filter.ScheduledOnTo)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		normalizeRowTimes(&rows[i])
	}
	return rows, nil
}

const updateScheduledActivityUserStateQuery = `UPDATE sk_scheduled_activities
	SET started_on = $3, finished_on = $4
	WHERE health_code = $1 AND activity_guid = $2`

func (d dbSession) UpdateScheduledActivityUserState(
	ctx context.Context, row extensions.ScheduledActivityUserStateRow,
) error {
	_, err := d.db.ExecContext(ctx, updateScheduledActivityUserStateQuery,
		row.HealthCode, row.ActivityGuid, row.StartedOn, row.FinishedOn)
	return err
}

const deleteScheduledActivitiesByHealthCodeQuery = `DELETE
	FROM sk_scheduled_activities WHERE health_code = $1`

func (d dbSession) DeleteScheduledActivitiesByHealthCode(
	ctx context.Context, healthCode string,
) (int64, error) {
	result, err := d.db.ExecContext(ctx, deleteScheduledActivitiesByHealthCodeQuery, healthCode)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteScheduledActivitiesBySchedulePlanQuery = `DELETE
	FROM sk_scheduled_activities WHERE schedule_plan_guid = $1`

func (d dbSession) DeleteScheduledActivitiesBySchedulePlan(
	ctx context.Context, schedulePlanGuid string,
) (int64, error) {
	result, err := d.db.ExecContext(ctx, deleteScheduledActivitiesBySchedulePlanQuery, schedulePlanGuid)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// normalizeRowTimes converts timestamptz columns back to UTC so that row
// comparison does not depend on the server session zone
func normalizeRowTimes(row *extensions.ScheduledActivityRow) {
	row.ScheduledOn = row.ScheduledOn.UTC()
	if row.ExpiresOn != nil {
		utc := row.ExpiresOn.UTC()
		row.ExpiresOn = &utc
	}
	if row.StartedOn != nil {
		utc := row.StartedOn.UTC()
		row.StartedOn = &utc
	}
	if row.FinishedOn != nil {
		utc := row.FinishedOn.UTC()
		row.FinishedOn = &utc
	}
}
