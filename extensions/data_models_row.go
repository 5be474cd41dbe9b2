// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package extensions

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type (
	// ScheduledActivityRow is the persisted form of one activity
	// occurrence. ActivityGuid is the deterministic occurrence guid, so
	// (HealthCode, ActivityGuid) is the primary key and regeneration of
	// the same occurrence always lands on the same row.
	ScheduledActivityRow struct {
		HealthCode   string
		ActivityGuid string

		StudyId          string
		SchedulePlanGuid string

		// Activity is the resolved activity template as JSON
		Activity types.JSONText

		ScheduledOn time.Time
		ExpiresOn   *time.Time
		// LocalScheduledOn is the timezone-naive scheduling time in the
		// same serialization used inside ActivityGuid
		LocalScheduledOn string

		StartedOn  *time.Time
		FinishedOn *time.Time
	}

	ScheduledActivitySelectFilter struct {
		HealthCode   string
		ActivityGuid string
	}

	ScheduledActivityRangeSelectFilter struct {
		HealthCode string
		// [ScheduledOnFrom, ScheduledOnTo] inclusive range on scheduled_on
		ScheduledOnFrom time.Time
		ScheduledOnTo   time.Time
	}

	// ScheduledActivityUserStateRow carries only the user-owned columns
	// of an occurrence row
	ScheduledActivityUserStateRow struct {
		HealthCode   string
		ActivityGuid string
		StartedOn    *time.Time
		FinishedOn   *time.Time
	}
)
