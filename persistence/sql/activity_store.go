// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package sql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studykitio/studykit/common/log"
	"github.com/studykitio/studykit/common/log/tag"
	"github.com/studykitio/studykit/config"
	"github.com/studykitio/studykit/extensions"
	"github.com/studykitio/studykit/models"
	"github.com/studykitio/studykit/persistence"
)

type activityStoreImpl struct {
	session extensions.SQLDBSession
	logger  log.Logger
}

var _ persistence.ActivityStore = (*activityStoreImpl)(nil)

func NewSQLActivityStore(sqlConfig config.SQL, logger log.Logger) (persistence.ActivityStore, error) {
	session, err := extensions.NewSQLSession(&sqlConfig)
	if err != nil {
		return nil, err
	}
	return &activityStoreImpl{
		session: session,
		logger:  logger,
	}, nil
}

func (s *activityStoreImpl) Close() error {
	return s.session.Close()
}

func (s *activityStoreImpl) GetScheduledActivity(
	ctx context.Context, request persistence.GetScheduledActivityRequest,
) (*models.ScheduledActivity, error) {
	row, err := s.session.SelectScheduledActivity(ctx, extensions.ScheduledActivitySelectFilter{
		HealthCode:   request.HealthCode,
		ActivityGuid: request.ActivityGuid,
	})
	if err != nil {
		if s.session.IsNotFoundError(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	activity, err := rowToActivity(*row)
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *activityStoreImpl) GetScheduledActivitiesInRange(
	ctx context.Context, request persistence.GetScheduledActivitiesInRangeRequest,
) ([]models.ScheduledActivity, error) {
	rows, err := s.session.SelectScheduledActivitiesInRange(ctx, extensions.ScheduledActivityRangeSelectFilter{
		HealthCode:      request.HealthCode,
		ScheduledOnFrom: request.ScheduledOnFrom,
		ScheduledOnTo:   request.ScheduledOnTo,
	})
	if err != nil {
		return nil, err
	}
	activities := make([]models.ScheduledActivity, 0, len(rows))
	for _, row := range rows {
		activity, err := rowToActivity(row)
		if err != nil {
			// a malformed row must not take down the whole request
			s.logger.Error("skipping malformed scheduled activity row",
				tag.Error(err), tag.HealthCode(row.HealthCode), tag.ActivityGuid(row.ActivityGuid))
			continue
		}
		activities = append(activities, activity)
	}
	return activities, nil
}

func (s *activityStoreImpl) SaveScheduledActivities(
	ctx context.Context, request persistence.SaveScheduledActivitiesRequest,
) error {
	for _, activity := range request.Activities {
		row, err := activityToRow(request.StudyId, activity)
		if err != nil {
			return err
		}
		if err := s.session.InsertScheduledActivity(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *activityStoreImpl) UpdateActivityUserState(
	ctx context.Context, request persistence.UpdateActivityUserStateRequest,
) error {
	return s.session.UpdateScheduledActivityUserState(ctx, extensions.ScheduledActivityUserStateRow{
		HealthCode:   request.HealthCode,
		ActivityGuid: request.ActivityGuid,
		StartedOn:    request.StartedOn,
		FinishedOn:   request.FinishedOn,
	})
}

func (s *activityStoreImpl) DeleteActivitiesForUser(
	ctx context.Context, healthCode string,
) (int64, error) {
	return s.session.DeleteScheduledActivitiesByHealthCode(ctx, healthCode)
}

func (s *activityStoreImpl) DeleteActivitiesForPlan(
	ctx context.Context, schedulePlanGuid string,
) (int64, error) {
	return s.session.DeleteScheduledActivitiesBySchedulePlan(ctx, schedulePlanGuid)
}

func activityToRow(studyId string, activity models.ScheduledActivity) (extensions.ScheduledActivityRow, error) {
	activityJson, err := json.Marshal(activity.Activity)
	if err != nil {
		return extensions.ScheduledActivityRow{}, err
	}
	return extensions.ScheduledActivityRow{
		HealthCode:       activity.HealthCode,
		ActivityGuid:     activity.Guid(),
		StudyId:          studyId,
		SchedulePlanGuid: activity.SchedulePlanGuid,
		Activity:         activityJson,
		ScheduledOn:      activity.ScheduledOn,
		ExpiresOn:        activity.ExpiresOn,
		LocalScheduledOn: models.FormatLocalDateTime(activity.LocalScheduledOn),
		StartedOn:        activity.StartedOn,
		FinishedOn:       activity.FinishedOn,
	}, nil
}

func rowToActivity(row extensions.ScheduledActivityRow) (models.ScheduledActivity, error) {
	key, err := models.ParseActivityKey(row.ActivityGuid)
	if err != nil {
		return models.ScheduledActivity{}, err
	}
	var template models.Activity
	if err := json.Unmarshal(row.Activity, &template); err != nil {
		return models.ScheduledActivity{}, fmt.Errorf("corrupted activity column of %v: %w", row.ActivityGuid, err)
	}
	return models.ScheduledActivity{
		SchedulePlanGuid: row.SchedulePlanGuid,
		HealthCode:       row.HealthCode,
		Activity:         template,
		ScheduledOn:      row.ScheduledOn,
		ExpiresOn:        row.ExpiresOn,
		LocalScheduledOn: key.LocalScheduledOn,
		StartedOn:        row.StartedOn,
		FinishedOn:       row.FinishedOn,
	}, nil
}
