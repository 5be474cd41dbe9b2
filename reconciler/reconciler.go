// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package reconciler

import (
	"sort"
	"time"

	"github.com/studykitio/studykit/models"
)

type (
	// Result is the outcome of reconciling freshly generated candidates
	// against the persisted rows of the same participant
	Result struct {
		// Activities is the merged, ordered list to return to the client
		Activities []models.ScheduledActivity
		// Saves are the candidates with no persisted row yet; they must be
		// written so that later requests can attach user state to them
		Saves []models.ScheduledActivity
	}
)

// Reconcile merges candidates with persisted rows by occurrence guid.
//
// The candidate is authoritative for every scheduling field, so edits to
// a schedule propagate to already persisted occurrences; the persisted
// row is authoritative for StartedOn/FinishedOn, so user state survives
// regeneration. Persisted rows with no matching candidate are kept while
// they are still relevant: always when they carry user state, otherwise
// only when unexpired and not behind the window start. Reconcile is
// idempotent, reconciling its own output changes nothing.
func Reconcile(
	candidates []models.ScheduledActivity, persisted []models.ScheduledActivity,
	windowStart time.Time, now time.Time,
) Result {
	persistedByGuid := dedupByGuid(persisted)

	seen := make(map[string]bool, len(candidates))
	var activities []models.ScheduledActivity
	var saves []models.ScheduledActivity
	for _, candidate := range candidates {
		guid := candidate.Guid()
		if seen[guid] {
			continue
		}
		seen[guid] = true
		if row, ok := persistedByGuid[guid]; ok {
			candidate.StartedOn = row.StartedOn
			candidate.FinishedOn = row.FinishedOn
		} else {
			saves = append(saves, candidate)
		}
		if candidate.IsVisibleAsOf(now) {
			activities = append(activities, candidate)
		}
	}

	for guid, row := range persistedByGuid {
		if seen[guid] {
			continue
		}
		if !row.IsVisibleAsOf(now) {
			continue
		}
		if !row.HasUserState() && row.ScheduledOn.Before(windowStart) {
			continue
		}
		activities = append(activities, row)
	}

	orderActivities(activities)
	orderActivities(saves)
	return Result{Activities: activities, Saves: saves}
}

// dedupByGuid collapses duplicate persisted rows of the same occurrence,
// preferring the row carrying the most user state
func dedupByGuid(persisted []models.ScheduledActivity) map[string]models.ScheduledActivity {
	byGuid := make(map[string]models.ScheduledActivity, len(persisted))
	for _, row := range persisted {
		guid := row.Guid()
		if existing, ok := byGuid[guid]; ok && userStateRank(existing) >= userStateRank(row) {
			continue
		}
		byGuid[guid] = row
	}
	return byGuid
}

func userStateRank(row models.ScheduledActivity) int {
	switch {
	case row.FinishedOn != nil:
		return 2
	case row.StartedOn != nil:
		return 1
	default:
		return 0
	}
}

// orderActivities sorts by scheduled time, breaking ties by activity guid
// so that output order is deterministic
func orderActivities(activities []models.ScheduledActivity) {
	sort.Slice(activities, func(i, j int) bool {
		if !activities[i].ScheduledOn.Equal(activities[j].ScheduledOn) {
			return activities[i].ScheduledOn.Before(activities[j].ScheduledOn)
		}
		return activities[i].Activity.Guid < activities[j].Activity.Guid
	})
}
