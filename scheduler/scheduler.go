// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"strings"
	"time"

	"github.com/studykitio/studykit/config"
	"github.com/studykitio/studykit/models"
)

const defaultMaxPerSchedule = 250

// Scheduler turns a schedule plus a request context into the ordered list
// of candidate occurrences. Generation is pure: no side effects, and the
// same inputs always produce the same candidates in the same order.
type Scheduler struct {
	// lookbackFloor is the minimum retention horizon behind "now"; the
	// effective lookback per schedule is the larger of this floor and
	// the schedule's expiration period, so a prior instance that has not
	// expired yet is still generated
	lookbackFloor  time.Duration
	maxPerSchedule int
}

func NewScheduler(cfg config.SchedulingConfig) *Scheduler {
	maxPerSchedule := cfg.MaxActivitiesPerSchedule
	if maxPerSchedule <= 0 {
		maxPerSchedule = defaultMaxPerSchedule
	}
	return &Scheduler{
		lookbackFloor:  cfg.DailyLookbackFloor,
		maxPerSchedule: maxPerSchedule,
	}
}

// GenerateActivities returns the candidate occurrences of one schedule
// within the context window, ordered by scheduled time. A schedule whose
// criteria do not match the participant, or whose governing event has not
// happened, yields nothing.
func (s *Scheduler) GenerateActivities(
	plan *models.SchedulePlan, schedule *models.Schedule, context *models.ScheduleContext,
) []models.ScheduledActivity {
	if schedule == nil {
		return nil
	}
	if !schedule.Criteria.Matches(context.DataGroups(), context.ClientInfo()) {
		return nil
	}
	switch schedule.Kind {
	case models.ScheduleKindOnce:
		return s.generateOnce(plan, schedule, context)
	case models.ScheduleKindRecurring:
		return s.generateRecurring(plan, schedule, context)
	default:
		return nil
	}
}

func (s *Scheduler) generateOnce(
	plan *models.SchedulePlan, schedule *models.Schedule, context *models.ScheduleContext,
) []models.ScheduledActivity {
	eventTime, ok := governingEventTime(schedule, context)
	if !ok {
		return nil
	}
	scheduledOn := eventTime
	if len(schedule.Times) > 0 {
		scheduledOn = schedule.Times[0].OnDate(eventTime, context.Zone())
	}
	// suppressed entirely when the occurrence falls after the window
	if scheduledOn.After(context.EndsOn()) {
		return nil
	}
	activity := newCandidate(plan, schedule, context, scheduledOn)
	if !activity.IsVisibleAsOf(context.Now()) {
		return nil
	}
	return []models.ScheduledActivity{activity}
}

func (s *Scheduler) generateRecurring(
	plan *models.SchedulePlan, schedule *models.Schedule, context *models.ScheduleContext,
) []models.ScheduledActivity {
	eventTime, ok := governingEventTime(schedule, context)
	if !ok {
		return nil
	}
	zone := context.Zone()

	// All date walking happens on naive local time so that an occurrence
	// exists exactly once per local date, no matter what DST or
	// date-line offset jumps do to the absolute instants in between.
	eventNaive := models.ToLocalNaive(eventTime)
	endsOnNaive := models.ToLocalNaive(context.EndsOn().In(zone))

	lookback := schedule.Expires
	if lookback < s.lookbackFloor {
		lookback = s.lookbackFloor
	}
	earliestNaive := models.ToLocalNaive(context.Now().In(zone)).Add(-lookback)

	// skip whole intervals that end before the retention horizon
	cursor := eventNaive
	if cursor.Before(earliestNaive) {
		steps := earliestNaive.Sub(cursor) / schedule.Interval
		cursor = cursor.Add(steps * schedule.Interval)
	}

	var activities []models.ScheduledActivity
	for ; len(activities) < s.maxPerSchedule; cursor = cursor.Add(schedule.Interval) {
		if cursor.After(endsOnNaive) && !hasNotMetMinimum(context, len(activities)) {
			break
		}
		for _, timeOfDay := range schedule.Times {
			if len(activities) >= s.maxPerSchedule {
				break
			}
			scheduledOn := timeOfDay.OnDate(cursor, zone)
			activity := newCandidate(plan, schedule, context, scheduledOn)
			if !activity.IsVisibleAsOf(context.Now()) {
				continue
			}
			activities = append(activities, activity)
		}
	}
	return activities
}

// governingEventTime returns the timestamp of the schedule's governing
// event in the context zone, shifted by the schedule's delay. The event
// id list is comma separated and the first event present in the context
// wins; when no event is named, enrollment governs.
func governingEventTime(schedule *models.Schedule, context *models.ScheduleContext) (time.Time, bool) {
	eventIds := schedule.EventId
	if eventIds == "" {
		eventIds = models.EventIdEnrollment
	}
	for _, eventId := range strings.Split(eventIds, ",") {
		if t, ok := context.Event(strings.TrimSpace(eventId)); ok {
			return t.In(context.Zone()).Add(schedule.Delay), true
		}
	}
	return time.Time{}, false
}

func hasNotMetMinimum(context *models.ScheduleContext, count int) bool {
	return context.MinimumPerSchedule() > 0 && count < context.MinimumPerSchedule()
}

func newCandidate(
	plan *models.SchedulePlan, schedule *models.Schedule, context *models.ScheduleContext,
	scheduledOn time.Time,
) models.ScheduledActivity {
	var expiresOn *time.Time
	if schedule.Expires > 0 {
		e := scheduledOn.Add(schedule.Expires)
		expiresOn = &e
	}
	activity := schedule.Activity
	if activity.Label == "" {
		activity.Label = schedule.Label
	}
	return models.ScheduledActivity{
		SchedulePlanGuid: plan.Guid,
		HealthCode:       context.HealthCode(),
		Activity:         activity,
		ScheduledOn:      scheduledOn,
		ExpiresOn:        expiresOn,
		LocalScheduledOn: models.ToLocalNaive(scheduledOn),
	}
}
