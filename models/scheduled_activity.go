// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"strings"
	"time"
)

// localDateTimeLayout is the timezone-naive serialization of the local
// scheduling time inside activity guids. Millisecond precision, never
// more: two generations of the same occurrence must format identically.
const localDateTimeLayout = "2006-01-02T15:04:05.000"

// ActivityKey is the logical identity of one occurrence: the activity
// template guid plus the local wall-clock date-time of the occurrence,
// ignoring the absolute zone offset. Recomputing the schedule always
// reproduces the same key for the same occurrence.
type ActivityKey struct {
	ActivityGuid string
	// LocalScheduledOn is timezone-naive; it must carry the UTC location
	// as a stand-in for "no zone"
	LocalScheduledOn time.Time
}

// String returns the stable serialization, used as the persisted guid
func (k ActivityKey) String() string {
	return k.ActivityGuid + ":" + k.LocalScheduledOn.Format(localDateTimeLayout)
}

// ParseActivityKey parses the serialization produced by String
func ParseActivityKey(s string) (ActivityKey, error) {
	sep := strings.Index(s, ":")
	if sep <= 0 {
		return ActivityKey{}, fmt.Errorf("invalid activity key %q", s)
	}
	localScheduledOn, err := time.ParseInLocation(localDateTimeLayout, s[sep+1:], time.UTC)
	if err != nil {
		return ActivityKey{}, fmt.Errorf("invalid activity key %q: %w", s, err)
	}
	return ActivityKey{
		ActivityGuid:     s[:sep],
		LocalScheduledOn: localScheduledOn,
	}, nil
}

// FormatLocalDateTime serializes a timezone-naive local date-time the
// same way ActivityKey.String does
func FormatLocalDateTime(t time.Time) string {
	return t.Format(localDateTimeLayout)
}

// ToLocalNaive strips the zone off a timestamp, keeping the wall-clock
// fields, so that occurrences compare by local time across zones
func ToLocalNaive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(),
		t.Nanosecond(), time.UTC)
}

type ScheduledActivityStatus int32

const (
	ScheduledActivityStatusScheduled ScheduledActivityStatus = 1
	ScheduledActivityStatusAvailable ScheduledActivityStatus = 2
	ScheduledActivityStatusStarted   ScheduledActivityStatus = 3
	ScheduledActivityStatusFinished  ScheduledActivityStatus = 4
	ScheduledActivityStatusExpired   ScheduledActivityStatus = 5
)

func (s ScheduledActivityStatus) String() string {
	switch s {
	case ScheduledActivityStatusScheduled:
		return "Scheduled"
	case ScheduledActivityStatusAvailable:
		return "Available"
	case ScheduledActivityStatusStarted:
		return "Started"
	case ScheduledActivityStatusFinished:
		return "Finished"
	case ScheduledActivityStatusExpired:
		return "Expired"
	default:
		panic("this is not supported")
	}
}

// ScheduledActivity is one concrete occurrence of an activity for one
// participant. It is recomputed transiently on every request; only
// StartedOn/FinishedOn carry user state and only the persisted copy is
// authoritative for those two fields.
type ScheduledActivity struct {
	SchedulePlanGuid string
	HealthCode       string
	Activity         Activity
	// ScheduledOn is zone-aware; its wall-clock rendering equals
	// LocalScheduledOn
	ScheduledOn time.Time
	ExpiresOn   *time.Time
	// LocalScheduledOn is the timezone-naive scheduling time, the
	// time portion of the occurrence's identity
	LocalScheduledOn time.Time
	StartedOn        *time.Time
	FinishedOn       *time.Time
}

// Key returns the logical identity of this occurrence
func (a ScheduledActivity) Key() ActivityKey {
	return ActivityKey{
		ActivityGuid:     a.Activity.Guid,
		LocalScheduledOn: a.LocalScheduledOn,
	}
}

// Guid returns the stable, deterministic identifier of this occurrence
func (a ScheduledActivity) Guid() string {
	return a.Key().String()
}

func (a ScheduledActivity) HasUserState() bool {
	return a.StartedOn != nil || a.FinishedOn != nil
}

// StatusAsOf derives the lifecycle status at the given instant. User
// state always dominates: a started or finished activity never reports
// itself expired.
func (a ScheduledActivity) StatusAsOf(now time.Time) ScheduledActivityStatus {
	switch {
	case a.FinishedOn != nil:
		return ScheduledActivityStatusFinished
	case a.StartedOn != nil:
		return ScheduledActivityStatusStarted
	case a.ExpiresOn != nil && !now.Before(*a.ExpiresOn):
		return ScheduledActivityStatusExpired
	case now.Before(a.ScheduledOn):
		return ScheduledActivityStatusScheduled
	default:
		return ScheduledActivityStatusAvailable
	}
}

// IsVisibleAsOf reports whether the occurrence should still be shown to
// the participant
func (a ScheduledActivity) IsVisibleAsOf(now time.Time) bool {
	return a.StatusAsOf(now) != ScheduledActivityStatusExpired
}
