// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studykitio/studykit/common/ptr"
	"github.com/studykitio/studykit/models"
)

var (
	now         = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	windowStart = now
)

func occurrence(activityGuid string, scheduledOn time.Time) models.ScheduledActivity {
	return models.ScheduledActivity{
		SchedulePlanGuid: "plan-guid",
		HealthCode:       "health-code",
		Activity: models.Activity{
			Guid: activityGuid,
			Task: &models.TaskReference{Identifier: "tapping"},
		},
		ScheduledOn:      scheduledOn,
		LocalScheduledOn: models.ToLocalNaive(scheduledOn),
	}
}

func TestReconcilePreservesUserState(t *testing.T) {
	scheduledOn := now.Add(time.Hour)
	candidate := occurrence("act-1", scheduledOn)

	startedOn := now.Add(-time.Hour)
	row := occurrence("act-1", scheduledOn)
	row.StartedOn = ptr.Any(startedOn)

	result := Reconcile(
		[]models.ScheduledActivity{candidate}, []models.ScheduledActivity{row}, windowStart, now)
	assert.Equal(t, 1, len(result.Activities))
	assert.Equal(t, startedOn, *result.Activities[0].StartedOn)
	assert.Nil(t, result.Activities[0].FinishedOn)
	assert.Equal(t, 0, len(result.Saves))
}

func TestReconcileCandidateFieldsWinOverPersisted(t *testing.T) {
	scheduledOn := now.Add(time.Hour)
	candidate := occurrence("act-1", scheduledOn)
	candidate.Activity.Label = "Updated label"
	candidate.ExpiresOn = ptr.Any(scheduledOn.Add(48 * time.Hour))

	row := occurrence("act-1", scheduledOn)
	row.Activity.Label = "Old label"
	row.ExpiresOn = ptr.Any(scheduledOn.Add(24 * time.Hour))
	row.FinishedOn = ptr.Any(now.Add(-time.Minute))

	result := Reconcile(
		[]models.ScheduledActivity{candidate}, []models.ScheduledActivity{row}, windowStart, now)
	assert.Equal(t, 1, len(result.Activities))
	assert.Equal(t, "Updated label", result.Activities[0].Activity.Label)
	assert.Equal(t, scheduledOn.Add(48*time.Hour), *result.Activities[0].ExpiresOn)
	assert.NotNil(t, result.Activities[0].FinishedOn)
}

func TestReconcileNewCandidatesBecomeSaves(t *testing.T) {
	first := occurrence("act-1", now.Add(time.Hour))
	second := occurrence("act-2", now.Add(2*time.Hour))
	row := occurrence("act-1", now.Add(time.Hour))

	result := Reconcile(
		[]models.ScheduledActivity{first, second}, []models.ScheduledActivity{row}, windowStart, now)
	assert.Equal(t, 2, len(result.Activities))
	assert.Equal(t, 1, len(result.Saves))
	assert.Equal(t, "act-2", result.Saves[0].Activity.Guid)
}

func TestReconcileDuplicatePersistedRowsPreferUserState(t *testing.T) {
	scheduledOn := now.Add(time.Hour)
	candidate := occurrence("act-1", scheduledOn)

	plain := occurrence("act-1", scheduledOn)
	started := occurrence("act-1", scheduledOn)
	started.StartedOn = ptr.Any(now.Add(-time.Hour))
	finished := occurrence("act-1", scheduledOn)
	finished.StartedOn = ptr.Any(now.Add(-2 * time.Hour))
	finished.FinishedOn = ptr.Any(now.Add(-time.Hour))

	// order of the duplicate rows must not matter
	result := Reconcile(
		[]models.ScheduledActivity{candidate},
		[]models.ScheduledActivity{plain, finished, started}, windowStart, now)
	assert.Equal(t, 1, len(result.Activities))
	assert.NotNil(t, result.Activities[0].FinishedOn)
	assert.Equal(t, 0, len(result.Saves))
}

func TestReconcileDropsStaleHistoricRows(t *testing.T) {
	// persisted, stateless, behind the window start: dropped
	historic := occurrence("act-old", now.Add(-72*time.Hour))
	// persisted, stateless, behind the window start but started: kept
	startedHistoric := occurrence("act-started", now.Add(-72*time.Hour))
	startedHistoric.StartedOn = ptr.Any(now.Add(-71 * time.Hour))
	// persisted, expired: dropped no matter what
	expired := occurrence("act-expired", now.Add(-72*time.Hour))
	expired.ExpiresOn = ptr.Any(now.Add(-48 * time.Hour))

	result := Reconcile(nil,
		[]models.ScheduledActivity{historic, startedHistoric, expired}, windowStart, now)
	assert.Equal(t, 1, len(result.Activities))
	assert.Equal(t, "act-started", result.Activities[0].Activity.Guid)
}

func TestReconcileKeepsUnmatchedFutureRows(t *testing.T) {
	// a persisted row the current schedule no longer generates, still
	// inside the window and unexpired
	orphan := occurrence("act-orphan", now.Add(3*time.Hour))

	result := Reconcile(nil, []models.ScheduledActivity{orphan}, windowStart, now)
	assert.Equal(t, 1, len(result.Activities))
	assert.Equal(t, 0, len(result.Saves))
}

func TestReconcileOrdersByScheduledOnThenActivityGuid(t *testing.T) {
	later := occurrence("act-a", now.Add(2*time.Hour))
	earlier := occurrence("act-z", now.Add(time.Hour))
	tieB := occurrence("act-b", now.Add(time.Hour))

	result := Reconcile(
		[]models.ScheduledActivity{later, earlier, tieB}, nil, windowStart, now)
	assert.Equal(t, 3, len(result.Activities))
	assert.Equal(t, "act-b", result.Activities[0].Activity.Guid)
	assert.Equal(t, "act-z", result.Activities[1].Activity.Guid)
	assert.Equal(t, "act-a", result.Activities[2].Activity.Guid)
}

func TestReconcileIsIdempotent(t *testing.T) {
	candidateA := occurrence("act-1", now.Add(time.Hour))
	candidateB := occurrence("act-2", now.Add(2*time.Hour))
	row := occurrence("act-1", now.Add(time.Hour))
	row.StartedOn = ptr.Any(now.Add(-time.Hour))

	first := Reconcile(
		[]models.ScheduledActivity{candidateA, candidateB},
		[]models.ScheduledActivity{row}, windowStart, now)
	second := Reconcile(
		[]models.ScheduledActivity{candidateA, candidateB},
		first.Activities, windowStart, now)
	assert.Equal(t, first.Activities, second.Activities)
	assert.Equal(t, 0, len(second.Saves))
}
