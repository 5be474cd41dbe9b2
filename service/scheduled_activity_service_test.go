// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/studykitio/studykit/common/log"
	"github.com/studykitio/studykit/common/ptr"
	"github.com/studykitio/studykit/config"
	"github.com/studykitio/studykit/models"
	"github.com/studykitio/studykit/persistence"
	"github.com/studykitio/studykit/resolver"
)

type fakeStore struct {
	rows        map[string]models.ScheduledActivity
	saveCalls   int
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]models.ScheduledActivity{}}
}

func storeKey(healthCode string, guid string) string {
	return healthCode + "|" + guid
}

func (f *fakeStore) GetScheduledActivity(
	ctx context.Context, request persistence.GetScheduledActivityRequest,
) (*models.ScheduledActivity, error) {
	row, ok := f.rows[storeKey(request.HealthCode, request.ActivityGuid)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &row, nil
}

func (f *fakeStore) GetScheduledActivitiesInRange(
	ctx context.Context, request persistence.GetScheduledActivitiesInRangeRequest,
) ([]models.ScheduledActivity, error) {
	var activities []models.ScheduledActivity
	for _, row := range f.rows {
		if row.HealthCode != request.HealthCode {
			continue
		}
		if row.ScheduledOn.Before(request.ScheduledOnFrom) || row.ScheduledOn.After(request.ScheduledOnTo) {
			continue
		}
		activities = append(activities, row)
	}
	return activities, nil
}

func (f *fakeStore) SaveScheduledActivities(
	ctx context.Context, request persistence.SaveScheduledActivitiesRequest,
) error {
	f.saveCalls++
	for _, activity := range request.Activities {
		key := storeKey(activity.HealthCode, activity.Guid())
		if _, ok := f.rows[key]; ok {
			continue
		}
		f.rows[key] = activity
	}
	return nil
}

func (f *fakeStore) UpdateActivityUserState(
	ctx context.Context, request persistence.UpdateActivityUserStateRequest,
) error {
	f.updateCalls++
	key := storeKey(request.HealthCode, request.ActivityGuid)
	row := f.rows[key]
	row.StartedOn = request.StartedOn
	row.FinishedOn = request.FinishedOn
	f.rows[key] = row
	return nil
}

func (f *fakeStore) DeleteActivitiesForUser(ctx context.Context, healthCode string) (int64, error) {
	var deleted int64
	for key, row := range f.rows {
		if row.HealthCode == healthCode {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) DeleteActivitiesForPlan(ctx context.Context, schedulePlanGuid string) (int64, error) {
	var deleted int64
	for key, row := range f.rows {
		if row.SchedulePlanGuid == schedulePlanGuid {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) Close() error {
	return nil
}

type fakeEventSink struct {
	events []persistence.ActivityFinishedEvent
}

func (f *fakeEventSink) PublishActivityFinished(
	ctx context.Context, event persistence.ActivityFinishedEvent,
) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventSink) Close() error {
	return nil
}

type fakePlanProvider struct {
	plans []*models.SchedulePlan
}

func (f *fakePlanProvider) GetSchedulePlans(
	ctx context.Context, studyId string,
) ([]*models.SchedulePlan, error) {
	return f.plans, nil
}

type fakeConsentProvider struct {
	statuses []models.ConsentStatus
}

func (f *fakeConsentProvider) GetConsentStatuses(
	ctx context.Context, studyId string, healthCode string,
) ([]models.ConsentStatus, error) {
	return f.statuses, nil
}

var (
	testNow        = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	testEnrolledOn = time.Date(2026, 6, 12, 8, 0, 0, 0, time.UTC)
)

func dailyPlan(t *testing.T) *models.SchedulePlan {
	schedule, err := models.NewSchedule(models.ScheduleDefinition{
		Kind:     "recurring",
		Interval: "P1D",
		Times:    []string{"10:00"},
		Expires:  "P1D",
		Activity: models.Activity{
			Label: "Tapping test",
			Guid:  "act-guid-1",
			Task:  &models.TaskReference{Identifier: "tapping"},
		},
	})
	assert.Nil(t, err)
	return &models.SchedulePlan{
		Guid:     "plan-guid",
		Label:    "Daily tapping",
		StudyId:  "test-study",
		Strategy: &models.SimpleScheduleStrategy{Schedule: schedule},
	}
}

func newTestService(
	t *testing.T, store *fakeStore, sink *fakeEventSink, plans ...*models.SchedulePlan,
) *ScheduledActivityService {
	logger := log.NewLogger(zap.NewNop())
	return NewScheduledActivityService(
		config.SchedulingConfig{MaxScheduleWindowDays: 15},
		Dependencies{
			Store:     store,
			EventSink: sink,
			Plans:     &fakePlanProvider{plans: plans},
			Consents: &fakeConsentProvider{statuses: []models.ConsentStatus{
				{SubpopulationGuid: "default", Required: true, Consented: true, SignedOn: ptr.Any(testEnrolledOn)},
			}},
			ResolverFactory: resolver.NewFactory(nil, nil, nil, nil, nil, logger),
		},
		logger,
	)
}

func testContext(now time.Time, endsOn time.Time) *models.ScheduleContext {
	return models.NewScheduleContextBuilder().
		WithStudyId("test-study").
		WithZone(time.UTC).
		WithWindow(now, endsOn).
		WithHealthCode("health-code").
		Build()
}

func TestGetScheduledActivitiesGeneratesAndPersists(t *testing.T) {
	store := newFakeStore()
	sink := &fakeEventSink{}
	service := newTestService(t, store, sink, dailyPlan(t))

	activities, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)
	assert.True(t, len(activities) > 0)
	// every returned occurrence is persisted under its deterministic guid
	for _, activity := range activities {
		_, ok := store.rows[storeKey("health-code", activity.Guid())]
		assert.True(t, ok)
		assert.True(t, !activity.ScheduledOn.After(testNow.Add(72*time.Hour)))
	}
}

func TestGetScheduledActivitiesIsStableAcrossRequests(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	first, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)
	second, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)
	assert.Equal(t, first, second)
}

func TestGetScheduledActivitiesRejectsOversizedWindow(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	_, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(16*24*time.Hour)))
	assert.NotNil(t, err)
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, len(store.rows))
}

func TestGetScheduledActivitiesRejectsEmptyWindow(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	_, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow))
	assert.NotNil(t, err)
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGetScheduledActivitiesPreservesStartedState(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	first, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)
	assert.True(t, len(first) > 0)

	startedOn := testNow.Add(90 * time.Minute)
	err = service.UpdateScheduledActivities(context.Background(), "test-study", "health-code",
		[]ActivityUpdate{{Guid: first[0].Guid(), StartedOn: ptr.Any(startedOn)}})
	assert.Nil(t, err)

	second, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)
	assert.Equal(t, first[0].Guid(), second[0].Guid())
	assert.NotNil(t, second[0].StartedOn)
	assert.Equal(t, startedOn, *second[0].StartedOn)
}

func TestUpdateMalformedBatchWritesNothing(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	first, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)

	err = service.UpdateScheduledActivities(context.Background(), "test-study", "health-code",
		[]ActivityUpdate{
			{Guid: first[0].Guid(), StartedOn: ptr.Any(testNow)},
			{Guid: ""},
		})
	assert.NotNil(t, err)
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	// the valid entry before the malformed one was not applied either
	assert.Equal(t, 0, store.updateCalls)
}

func TestUpdateFinishedPublishesEventExactlyOnce(t *testing.T) {
	store := newFakeStore()
	sink := &fakeEventSink{}
	service := newTestService(t, store, sink, dailyPlan(t))

	first, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)

	finishedOn := testNow.Add(2 * time.Hour)
	updates := []ActivityUpdate{{Guid: first[0].Guid(), FinishedOn: ptr.Any(finishedOn)}}
	assert.Nil(t, service.UpdateScheduledActivities(context.Background(), "test-study", "health-code", updates))
	// a retried submission of the same batch must not publish again
	assert.Nil(t, service.UpdateScheduledActivities(context.Background(), "test-study", "health-code", updates))

	assert.Equal(t, 1, len(sink.events))
	assert.Equal(t, first[0].Guid(), sink.events[0].ActivityGuid)
	assert.Equal(t, finishedOn, sink.events[0].FinishedOn)
	assert.Equal(t, "Task", sink.events[0].ActivityType)
}

func TestUpdateNeverClearsPersistedState(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	first, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)

	startedOn := testNow.Add(time.Hour)
	guid := first[0].Guid()
	assert.Nil(t, service.UpdateScheduledActivities(context.Background(), "test-study", "health-code",
		[]ActivityUpdate{{Guid: guid, StartedOn: ptr.Any(startedOn)}}))
	// an update without timestamps must not erase what is persisted
	assert.Nil(t, service.UpdateScheduledActivities(context.Background(), "test-study", "health-code",
		[]ActivityUpdate{{Guid: guid}}))

	row := store.rows[storeKey("health-code", guid)]
	assert.NotNil(t, row.StartedOn)
	assert.Equal(t, startedOn, *row.StartedOn)
}

func TestUpdateUnknownGuidIsSkipped(t *testing.T) {
	store := newFakeStore()
	sink := &fakeEventSink{}
	service := newTestService(t, store, sink, dailyPlan(t))

	err := service.UpdateScheduledActivities(context.Background(), "test-study", "health-code",
		[]ActivityUpdate{{Guid: "act-guid-1:2026-06-14T10:00:00.000", FinishedOn: ptr.Any(testNow)}})
	assert.Nil(t, err)
	assert.Equal(t, 0, store.updateCalls)
	assert.Equal(t, 0, len(sink.events))
}

func TestDeleteActivitiesForUserIsIdempotent(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	_, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)

	deleted, err := service.DeleteActivitiesForUser(context.Background(), "health-code")
	assert.Nil(t, err)
	assert.True(t, deleted > 0)

	deleted, err = service.DeleteActivitiesForUser(context.Background(), "health-code")
	assert.Nil(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestDeleteActivitiesForPlan(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	_, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)

	deleted, err := service.DeleteActivitiesForPlan(context.Background(), "plan-guid")
	assert.Nil(t, err)
	assert.True(t, deleted > 0)
	assert.Equal(t, 0, len(store.rows))
}

func TestEnrollmentDerivedFromEarliestConsent(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	activities, err := service.GetScheduledActivities(
		context.Background(), testContext(testNow, testNow.Add(72*time.Hour)))
	assert.Nil(t, err)
	assert.True(t, len(activities) > 0)
	// nothing is scheduled before the consent-derived enrollment
	for _, activity := range activities {
		assert.False(t, activity.ScheduledOn.Before(testEnrolledOn))
	}
}

func TestCallerSuppliedEnrollmentEventWins(t *testing.T) {
	store := newFakeStore()
	service := newTestService(t, store, &fakeEventSink{}, dailyPlan(t))

	enrolledOn := time.Date(2026, 6, 14, 8, 0, 0, 0, time.UTC)
	scheduleContext := models.NewScheduleContextBuilder().
		WithStudyId("test-study").
		WithZone(time.UTC).
		WithWindow(testNow, testNow.Add(72*time.Hour)).
		WithHealthCode("health-code").
		WithEvents(map[string]time.Time{models.EventIdEnrollment: enrolledOn}).
		Build()

	activities, err := service.GetScheduledActivities(context.Background(), scheduleContext)
	assert.Nil(t, err)
	assert.True(t, len(activities) > 0)
	for _, activity := range activities {
		assert.False(t, activity.ScheduledOn.Before(enrolledOn))
	}
}
