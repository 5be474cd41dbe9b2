// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"time"

	"github.com/studykitio/studykit/models"
)

type (
	// SchedulePlanProvider supplies the active schedule plans of a study
	SchedulePlanProvider interface {
		GetSchedulePlans(ctx context.Context, studyId string) ([]*models.SchedulePlan, error)
	}

	// ConsentStatusProvider supplies the participant's consent statuses,
	// used to derive the enrollment event when the caller does not
	// supply one
	ConsentStatusProvider interface {
		GetConsentStatuses(ctx context.Context, studyId string, healthCode string) ([]models.ConsentStatus, error)
	}

	// ActivityUpdate is one client-submitted state change for a
	// persisted occurrence
	ActivityUpdate struct {
		Guid       string     `json:"guid"`
		StartedOn  *time.Time `json:"startedOn,omitempty"`
		FinishedOn *time.Time `json:"finishedOn,omitempty"`
	}
)
