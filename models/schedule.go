// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// EventIdEnrollment is the default governing event of a schedule
const EventIdEnrollment = "enrollment"

type ScheduleKind int32

const (
	ScheduleKindUndefined ScheduleKind = 0
	ScheduleKindOnce      ScheduleKind = 1
	ScheduleKindRecurring ScheduleKind = 2
)

func (k ScheduleKind) String() string {
	switch k {
	case ScheduleKindOnce:
		return "Once"
	case ScheduleKindRecurring:
		return "Recurring"
	case ScheduleKindUndefined:
		return "Undefined"
	default:
		panic("this is not supported")
	}
}

// LocalTime is a wall-clock time of day without a date or zone
type LocalTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseLocalTime parses "15:04" or "15:04:05"
func ParseLocalTime(s string) (LocalTime, error) {
	var t time.Time
	var err error
	switch strings.Count(s, ":") {
	case 1:
		t, err = time.Parse("15:04", s)
	case 2:
		t, err = time.Parse("15:04:05", s)
	default:
		err = fmt.Errorf("not a HH:MM or HH:MM:SS value")
	}
	if err != nil {
		return LocalTime{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return LocalTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// OnDate applies this time of day to the date portion of the given value,
// in the given zone
func (t LocalTime) OnDate(date time.Time, zone *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, t.Second, 0, zone)
}

// Criteria enables or disables a schedule for a participant. All of the
// conditions must hold for the schedule to apply.
type Criteria struct {
	// AllOfGroups must all be present in the participant's data groups
	AllOfGroups []string `yaml:"allOfGroups" json:"allOfGroups,omitempty"`
	// NoneOfGroups must all be absent from the participant's data groups
	NoneOfGroups []string `yaml:"noneOfGroups" json:"noneOfGroups,omitempty"`
	// MinAppVersion/MaxAppVersion bound the client app version, each side
	// open when nil
	MinAppVersion *int `yaml:"minAppVersion" json:"minAppVersion,omitempty"`
	MaxAppVersion *int `yaml:"maxAppVersion" json:"maxAppVersion,omitempty"`
}

func (c Criteria) Matches(dataGroups map[string]bool, client ClientInfo) bool {
	for _, g := range c.AllOfGroups {
		if !dataGroups[g] {
			return false
		}
	}
	for _, g := range c.NoneOfGroups {
		if dataGroups[g] {
			return false
		}
	}
	return client.IsTargetedAppVersion(c.MinAppVersion, c.MaxAppVersion)
}

// ScheduleDefinition is the declarative, serializable form of a schedule,
// with ISO-8601 duration strings and HH:MM[:SS] times of day. It is parsed
// and validated exactly once, by NewSchedule; a malformed definition is a
// fatal ConfigError, never a per-request failure.
type ScheduleDefinition struct {
	Kind string `yaml:"kind" json:"kind"`
	// EventId names the governing timeline event(s), comma separated,
	// first present event wins; defaults to "enrollment"
	EventId string `yaml:"eventId" json:"eventId,omitempty"`
	// Delay shifts the start relative to the governing event (ISO-8601)
	Delay string `yaml:"delay" json:"delay,omitempty"`
	// Interval between occurrences, recurring only (ISO-8601)
	Interval string `yaml:"interval" json:"interval,omitempty"`
	// Times of day at which occurrences fire
	Times []string `yaml:"times" json:"times,omitempty"`
	// Expires is how long after its scheduled time an occurrence stays
	// actionable (ISO-8601); empty means it never expires
	Expires  string   `yaml:"expires" json:"expires,omitempty"`
	Criteria Criteria `yaml:"criteria" json:"criteria,omitempty"`
	Label    string   `yaml:"label" json:"label,omitempty"`
	Activity Activity `yaml:"activity" json:"activity"`
}

// Schedule is the parsed, validated temporal rule plus its activity
// template. Read-only after construction.
type Schedule struct {
	Kind     ScheduleKind
	EventId  string
	Delay    time.Duration
	Interval time.Duration
	Times    []LocalTime
	Expires  time.Duration
	Criteria Criteria
	Label    string
	Activity Activity
}

// NewSchedule parses and validates a schedule definition
func NewSchedule(def ScheduleDefinition) (*Schedule, error) {
	schedule := &Schedule{
		EventId:  def.EventId,
		Criteria: def.Criteria,
		Label:    def.Label,
		Activity: def.Activity,
	}

	switch strings.ToUpper(def.Kind) {
	case "ONCE":
		schedule.Kind = ScheduleKindOnce
	case "RECURRING":
		schedule.Kind = ScheduleKindRecurring
	default:
		return nil, NewConfigError(fmt.Sprintf("schedule kind %q is not supported", def.Kind))
	}

	var err error
	if schedule.Delay, err = parseISODuration(def.Delay); err != nil {
		return nil, NewConfigError(fmt.Sprintf("invalid delay: %v", err))
	}
	if schedule.Interval, err = parseISODuration(def.Interval); err != nil {
		return nil, NewConfigError(fmt.Sprintf("invalid interval: %v", err))
	}
	if schedule.Expires, err = parseISODuration(def.Expires); err != nil {
		return nil, NewConfigError(fmt.Sprintf("invalid expires: %v", err))
	}

	for _, s := range def.Times {
		t, err := ParseLocalTime(s)
		if err != nil {
			return nil, NewConfigError(err.Error())
		}
		schedule.Times = append(schedule.Times, t)
	}

	if schedule.Kind == ScheduleKindRecurring {
		if schedule.Interval <= 0 {
			return nil, NewConfigError("a recurring schedule requires a positive interval")
		}
		if len(schedule.Times) == 0 {
			return nil, NewConfigError("a recurring schedule requires at least one time of day")
		}
	}
	if schedule.Kind == ScheduleKindOnce && schedule.Interval > 0 {
		return nil, NewConfigError("a one-time schedule cannot have an interval")
	}
	if schedule.Activity.Type() == ActivityTypeUndefined {
		return nil, NewConfigError("schedule has no activity")
	}
	if schedule.Activity.Guid == "" {
		return nil, NewConfigError("schedule activity has no guid")
	}

	return schedule, nil
}

// MustNewSchedule is a test/bootstrap helper that panics on a malformed
// definition
func MustNewSchedule(def ScheduleDefinition) *Schedule {
	schedule, err := NewSchedule(def)
	if err != nil {
		panic(err)
	}
	return schedule
}

func parseISODuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("cannot parse ISO-8601 duration %q: %w", s, err)
	}
	return d.ToTimeDuration(), nil
}
