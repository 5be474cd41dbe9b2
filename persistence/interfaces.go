// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"context"
	"time"

	"github.com/studykitio/studykit/models"
)

type (
	// ActivityStore is the persistence API for scheduled activity
	// occurrences, keyed by (healthCode, occurrence guid)
	ActivityStore interface {
		// GetScheduledActivity returns models.ErrNotFound when the
		// occurrence has never been persisted
		GetScheduledActivity(ctx context.Context, request GetScheduledActivityRequest) (*models.ScheduledActivity, error)
		GetScheduledActivitiesInRange(ctx context.Context, request GetScheduledActivitiesInRangeRequest) ([]models.ScheduledActivity, error)
		// SaveScheduledActivities writes newly generated occurrences; an
		// occurrence already persisted by a concurrent request is left
		// untouched
		SaveScheduledActivities(ctx context.Context, request SaveScheduledActivitiesRequest) error
		UpdateActivityUserState(ctx context.Context, request UpdateActivityUserStateRequest) error
		DeleteActivitiesForUser(ctx context.Context, healthCode string) (int64, error)
		DeleteActivitiesForPlan(ctx context.Context, schedulePlanGuid string) (int64, error)
		Close() error
	}

	GetScheduledActivityRequest struct {
		HealthCode   string
		ActivityGuid string
	}

	GetScheduledActivitiesInRangeRequest struct {
		HealthCode      string
		ScheduledOnFrom time.Time
		ScheduledOnTo   time.Time
	}

	SaveScheduledActivitiesRequest struct {
		StudyId    string
		Activities []models.ScheduledActivity
	}

	UpdateActivityUserStateRequest struct {
		HealthCode   string
		ActivityGuid string
		StartedOn    *time.Time
		FinishedOn   *time.Time
	}

	// ActivityFinishedEvent is published exactly once per occurrence,
	// the first time a finishedOn timestamp is persisted for it
	ActivityFinishedEvent struct {
		StudyId          string    `json:"studyId"`
		HealthCode       string    `json:"healthCode"`
		SchedulePlanGuid string    `json:"schedulePlanGuid"`
		ActivityGuid     string    `json:"activityGuid"`
		ActivityType     string    `json:"activityType"`
		ScheduledOn      time.Time `json:"scheduledOn"`
		FinishedOn       time.Time `json:"finishedOn"`
	}

	// ActivityEventSink publishes activity lifecycle events to downstream
	// consumers
	ActivityEventSink interface {
		PublishActivityFinished(ctx context.Context, event ActivityFinishedEvent) error
		Close() error
	}
)
