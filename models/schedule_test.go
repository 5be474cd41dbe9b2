// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/studykitio/studykit/common/ptr"
)

func validDefinition() ScheduleDefinition {
	return ScheduleDefinition{
		Kind:     "recurring",
		EventId:  "enrollment",
		Delay:    "P2D",
		Interval: "P1D",
		Times:    []string{"10:00", "18:30"},
		Expires:  "PT6H",
		Activity: Activity{
			Guid: "act-guid-1",
			Task: &TaskReference{Identifier: "tapping"},
		},
	}
}

func TestNewScheduleParsesDurationsAndTimes(t *testing.T) {
	schedule, err := NewSchedule(validDefinition())
	assert.Nil(t, err)
	assert.Equal(t, ScheduleKindRecurring, schedule.Kind)
	assert.Equal(t, 48*time.Hour, schedule.Delay)
	assert.Equal(t, 24*time.Hour, schedule.Interval)
	assert.Equal(t, 6*time.Hour, schedule.Expires)
	assert.Equal(t, []LocalTime{{Hour: 10}, {Hour: 18, Minute: 30}}, schedule.Times)
}

func TestNewScheduleRejectsUnknownKind(t *testing.T) {
	def := validDefinition()
	def.Kind = "weekly"
	_, err := NewSchedule(def)
	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestNewScheduleRecurringRequiresIntervalAndTimes(t *testing.T) {
	def := validDefinition()
	def.Interval = ""
	_, err := NewSchedule(def)
	assert.NotNil(t, err)

	def = validDefinition()
	def.Times = nil
	_, err = NewSchedule(def)
	assert.NotNil(t, err)
}

func TestNewScheduleOnceRejectsInterval(t *testing.T) {
	def := validDefinition()
	def.Kind = "once"
	_, err := NewSchedule(def)
	assert.NotNil(t, err)

	def.Interval = ""
	schedule, err := NewSchedule(def)
	assert.Nil(t, err)
	assert.Equal(t, ScheduleKindOnce, schedule.Kind)
}

func TestNewScheduleRequiresActivityWithGuid(t *testing.T) {
	def := validDefinition()
	def.Activity = Activity{Guid: "act-guid-1"}
	_, err := NewSchedule(def)
	assert.NotNil(t, err)

	def = validDefinition()
	def.Activity.Guid = ""
	_, err = NewSchedule(def)
	assert.NotNil(t, err)
}

func TestNewScheduleRejectsMalformedInputs(t *testing.T) {
	def := validDefinition()
	def.Interval = "1 day"
	_, err := NewSchedule(def)
	assert.NotNil(t, err)

	def = validDefinition()
	def.Times = []string{"25:00"}
	_, err = NewSchedule(def)
	assert.NotNil(t, err)
}

func TestParseLocalTime(t *testing.T) {
	parsed, err := ParseLocalTime("09:30")
	assert.Nil(t, err)
	assert.Equal(t, LocalTime{Hour: 9, Minute: 30}, parsed)

	parsed, err = ParseLocalTime("23:59:59")
	assert.Nil(t, err)
	assert.Equal(t, LocalTime{Hour: 23, Minute: 59, Second: 59}, parsed)

	_, err = ParseLocalTime("noon")
	assert.NotNil(t, err)
}

func TestCriteriaMatches(t *testing.T) {
	criteria := Criteria{
		AllOfGroups:   []string{"cohort-a"},
		NoneOfGroups:  []string{"excluded"},
		MinAppVersion: ptr.Any(2),
		MaxAppVersion: ptr.Any(5),
	}
	groups := map[string]bool{"cohort-a": true}

	assert.True(t, criteria.Matches(groups, ClientInfo{AppVersion: 3}))
	assert.False(t, criteria.Matches(map[string]bool{}, ClientInfo{AppVersion: 3}))
	assert.False(t, criteria.Matches(map[string]bool{"cohort-a": true, "excluded": true}, ClientInfo{AppVersion: 3}))
	assert.False(t, criteria.Matches(groups, ClientInfo{AppVersion: 6}))
	// an unknown app version bypasses the version bounds
	assert.True(t, criteria.Matches(groups, ClientInfo{}))
}
