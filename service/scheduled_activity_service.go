// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studykitio/studykit/common/log"
	"github.com/studykitio/studykit/common/log/tag"
	"github.com/studykitio/studykit/config"
	"github.com/studykitio/studykit/models"
	"github.com/studykitio/studykit/persistence"
	"github.com/studykitio/studykit/reconciler"
	"github.com/studykitio/studykit/resolver"
	"github.com/studykitio/studykit/scheduler"
)

type (
	// Dependencies are the collaborators of the scheduled activity
	// service, injected so tests can fake every side effect
	Dependencies struct {
		Store           persistence.ActivityStore
		EventSink       persistence.ActivityEventSink
		Plans           SchedulePlanProvider
		Consents        ConsentStatusProvider
		ResolverFactory *resolver.Factory
	}

	// ScheduledActivityService orchestrates one participant request:
	// generate candidates per plan, resolve their references, reconcile
	// against persisted state, persist new occurrences, and apply
	// client-submitted state updates.
	ScheduledActivityService struct {
		cfg       config.SchedulingConfig
		store     persistence.ActivityStore
		eventSink persistence.ActivityEventSink
		plans     SchedulePlanProvider
		consents  ConsentStatusProvider
		resolvers *resolver.Factory
		scheduler *scheduler.Scheduler
		logger    log.Logger
	}
)

func NewScheduledActivityService(
	cfg config.SchedulingConfig, deps Dependencies, logger log.Logger,
) *ScheduledActivityService {
	return &ScheduledActivityService{
		cfg:       cfg,
		store:     deps.Store,
		eventSink: deps.EventSink,
		plans:     deps.Plans,
		consents:  deps.Consents,
		resolvers: deps.ResolverFactory,
		scheduler: scheduler.NewScheduler(cfg),
		logger:    logger,
	}
}

// Close releases the store and the event sink
func (s *ScheduledActivityService) Close() error {
	err := s.eventSink.Close()
	if storeErr := s.store.Close(); storeErr != nil {
		err = storeErr
	}
	return err
}

// GetScheduledActivities returns the participant's activities inside the
// requested window, merged with persisted user state. New occurrences
// are persisted before returning so a later update call can find them.
func (s *ScheduledActivityService) GetScheduledActivities(
	ctx context.Context, scheduleContext *models.ScheduleContext,
) ([]models.ScheduledActivity, error) {
	if err := s.validateContext(scheduleContext); err != nil {
		return nil, err
	}
	scheduleContext, err := s.withEnrollmentEvent(ctx, scheduleContext)
	if err != nil {
		return nil, err
	}

	plans, err := s.plans.GetSchedulePlans(ctx, scheduleContext.StudyId())
	if err != nil {
		return nil, err
	}

	refResolver := s.resolvers.NewResolver(scheduleContext.StudyId(), scheduleContext.ClientInfo())
	var candidates []models.ScheduledActivity
	for _, plan := range plans {
		schedule := plan.Strategy.ScheduleFor(scheduleContext)
		for _, candidate := range s.scheduler.GenerateActivities(plan, schedule, scheduleContext) {
			resolved, err := refResolver.Resolve(ctx, candidate.Activity)
			if err != nil {
				return nil, err
			}
			candidate.Activity = resolved
			candidates = append(candidates, candidate)
		}
	}

	from, to := persistedRange(scheduleContext, candidates)
	persisted, err := s.store.GetScheduledActivitiesInRange(ctx, persistence.GetScheduledActivitiesInRangeRequest{
		HealthCode:      scheduleContext.HealthCode(),
		ScheduledOnFrom: from,
		ScheduledOnTo:   to,
	})
	if err != nil {
		return nil, err
	}

	result := reconciler.Reconcile(candidates, persisted, scheduleContext.Now(), scheduleContext.Now())
	if len(result.Saves) > 0 {
		err = s.store.SaveScheduledActivities(ctx, persistence.SaveScheduledActivitiesRequest{
			StudyId:    scheduleContext.StudyId(),
			Activities: result.Saves,
		})
		if err != nil {
			return nil, err
		}
	}

	// occurrences generated beyond the window to satisfy a per-schedule
	// minimum are persisted above but not returned
	activities := make([]models.ScheduledActivity, 0, len(result.Activities))
	for _, activity := range result.Activities {
		if activity.ScheduledOn.After(scheduleContext.EndsOn()) {
			continue
		}
		activities = append(activities, activity)
	}
	return activities, nil
}

// UpdateScheduledActivities applies client-submitted started/finished
// timestamps. The whole batch is validated before any write happens, so
// a malformed batch changes nothing. User state only accumulates: an
// update never clears a persisted timestamp. The finished event for an
// occurrence is published exactly once, on the update that first
// persists its finishedOn.
func (s *ScheduledActivityService) UpdateScheduledActivities(
	ctx context.Context, studyId string, healthCode string, updates []ActivityUpdate,
) error {
	if healthCode == "" {
		return models.NewValidationError("healthCode is required")
	}
	for i, update := range updates {
		if update.Guid == "" {
			return models.NewValidationError(fmt.Sprintf("updates[%v] has no guid", i))
		}
		if _, err := models.ParseActivityKey(update.Guid); err != nil {
			return models.NewValidationError(fmt.Sprintf("updates[%v] has a malformed guid", i))
		}
	}

	for _, update := range updates {
		persisted, err := s.store.GetScheduledActivity(ctx, persistence.GetScheduledActivityRequest{
			HealthCode:   healthCode,
			ActivityGuid: update.Guid,
		})
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("dropping update for unknown scheduled activity",
				tag.StudyId(studyId), tag.ActivityGuid(update.Guid))
			continue
		}
		if err != nil {
			return err
		}

		startedOn := persisted.StartedOn
		if startedOn == nil {
			startedOn = update.StartedOn
		}
		finishedOn := persisted.FinishedOn
		if finishedOn == nil {
			finishedOn = update.FinishedOn
		}
		if equalTimePtr(startedOn, persisted.StartedOn) && equalTimePtr(finishedOn, persisted.FinishedOn) {
			continue
		}

		err = s.store.UpdateActivityUserState(ctx, persistence.UpdateActivityUserStateRequest{
			HealthCode:   healthCode,
			ActivityGuid: update.Guid,
			StartedOn:    startedOn,
			FinishedOn:   finishedOn,
		})
		if err != nil {
			return err
		}

		if persisted.FinishedOn == nil && finishedOn != nil {
			err = s.eventSink.PublishActivityFinished(ctx, persistence.ActivityFinishedEvent{
				StudyId:          studyId,
				HealthCode:       healthCode,
				SchedulePlanGuid: persisted.SchedulePlanGuid,
				ActivityGuid:     update.Guid,
				ActivityType:     persisted.Activity.Type().String(),
				ScheduledOn:      persisted.ScheduledOn,
				FinishedOn:       *finishedOn,
			})
			if err != nil {
				// the state write already succeeded; event delivery is
				// fire-and-forget and must not fail the batch
				s.logger.Error("failed to publish activity finished event",
					tag.Error(err), tag.StudyId(studyId), tag.ActivityGuid(update.Guid))
			}
		}
	}
	return nil
}

// DeleteActivitiesForUser removes every persisted occurrence of one
// participant, e.g. on withdrawal. Deleting a participant with no rows
// is not an error.
func (s *ScheduledActivityService) DeleteActivitiesForUser(
	ctx context.Context, healthCode string,
) (int64, error) {
	if healthCode == "" {
		return 0, models.NewValidationError("healthCode is required")
	}
	deleted, err := s.store.DeleteActivitiesForUser(ctx, healthCode)
	if err != nil {
		return 0, err
	}
	s.logger.Info("deleted scheduled activities of participant", tag.Count(int(deleted)))
	return deleted, nil
}

// DeleteActivitiesForPlan removes the persisted occurrences of one
// schedule plan across all participants, e.g. when the plan is removed
// from the study
func (s *ScheduledActivityService) DeleteActivitiesForPlan(
	ctx context.Context, schedulePlanGuid string,
) (int64, error) {
	if schedulePlanGuid == "" {
		return 0, models.NewValidationError("schedulePlanGuid is required")
	}
	deleted, err := s.store.DeleteActivitiesForPlan(ctx, schedulePlanGuid)
	if err != nil {
		return 0, err
	}
	s.logger.Info("deleted scheduled activities of plan",
		tag.SchedulePlanGuid(schedulePlanGuid), tag.Count(int(deleted)))
	return deleted, nil
}

func (s *ScheduledActivityService) validateContext(scheduleContext *models.ScheduleContext) error {
	if scheduleContext.StudyId() == "" {
		return models.NewValidationError("studyId is required")
	}
	if scheduleContext.HealthCode() == "" {
		return models.NewValidationError("healthCode is required")
	}
	if scheduleContext.Zone() == nil {
		return models.NewValidationError("time zone is required")
	}
	if !scheduleContext.EndsOn().After(scheduleContext.Now()) {
		return models.NewValidationError("endsOn must be after the start of the window")
	}
	maxWindow := time.Duration(s.cfg.MaxScheduleWindowDays) * 24 * time.Hour
	if maxWindow > 0 && scheduleContext.EndsOn().Sub(scheduleContext.Now()) > maxWindow {
		return models.NewValidationError(fmt.Sprintf(
			"the requested window cannot exceed %v days", s.cfg.MaxScheduleWindowDays))
	}
	return nil
}

// withEnrollmentEvent fills in the enrollment event when the caller did
// not supply one: the earliest signed consent wins, the account creation
// timestamp is the fallback
func (s *ScheduledActivityService) withEnrollmentEvent(
	ctx context.Context, scheduleContext *models.ScheduleContext,
) (*models.ScheduleContext, error) {
	if _, ok := scheduleContext.Event(models.EventIdEnrollment); ok {
		return scheduleContext, nil
	}

	enrolledOn := scheduleContext.AccountCreatedOn()
	if s.consents != nil {
		statuses, err := s.consents.GetConsentStatuses(
			ctx, scheduleContext.StudyId(), scheduleContext.HealthCode())
		if err != nil {
			return nil, err
		}
		for _, status := range statuses {
			if !status.Consented || status.SignedOn == nil {
				continue
			}
			if enrolledOn.IsZero() || status.SignedOn.Before(enrolledOn) {
				enrolledOn = *status.SignedOn
			}
		}
	}
	if enrolledOn.IsZero() {
		// no enrollment bound at all, schedules on the enrollment event
		// will simply generate nothing
		return scheduleContext, nil
	}

	events := scheduleContext.Events()
	events[models.EventIdEnrollment] = enrolledOn
	return models.NewScheduleContextBuilder().
		WithContext(scheduleContext).
		WithEvents(events).
		Build(), nil
}

// persistedRange is the scheduled_on range that covers every generated
// candidate plus the window itself, so reconciliation sees all rows it
// could possibly merge with
func persistedRange(
	scheduleContext *models.ScheduleContext, candidates []models.ScheduledActivity,
) (time.Time, time.Time) {
	from := scheduleContext.Now()
	to := scheduleContext.EndsOn()
	for _, candidate := range candidates {
		if candidate.ScheduledOn.Before(from) {
			from = candidate.ScheduledOn
		}
		if candidate.ScheduledOn.After(to) {
			to = candidate.ScheduledOn
		}
	}
	return from, to
}

func equalTimePtr(a *time.Time, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
