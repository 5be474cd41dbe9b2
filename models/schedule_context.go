// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"time"
)

// ScheduleContext is the immutable per-request context for generating
// scheduled activities: the participant's time zone, the requested
// visibility window [now, endsOn], the account creation timestamp, the
// map of named timeline events (e.g. "enrollment"), the participant's
// data groups and client info.
//
// Instances are built once per request through ScheduleContextBuilder
// and never mutated afterward; all accessors return copies of mutable
// internals.
type ScheduleContext struct {
	studyId            string
	zone               *time.Location
	now                time.Time
	endsOn             time.Time
	accountCreatedOn   time.Time
	events             map[string]time.Time
	healthCode         string
	clientInfo         ClientInfo
	dataGroups         map[string]bool
	minimumPerSchedule int
}

func (c *ScheduleContext) StudyId() string {
	return c.studyId
}

func (c *ScheduleContext) Zone() *time.Location {
	return c.zone
}

func (c *ScheduleContext) Now() time.Time {
	return c.now
}

func (c *ScheduleContext) EndsOn() time.Time {
	return c.endsOn
}

func (c *ScheduleContext) AccountCreatedOn() time.Time {
	return c.accountCreatedOn
}

// Event returns the timestamp of a named timeline event, if present
func (c *ScheduleContext) Event(eventId string) (time.Time, bool) {
	t, ok := c.events[eventId]
	return t, ok
}

func (c *ScheduleContext) HasEvents() bool {
	return len(c.events) > 0
}

// Events returns a copy of the event map
func (c *ScheduleContext) Events() map[string]time.Time {
	events := make(map[string]time.Time, len(c.events))
	for k, v := range c.events {
		events[k] = v
	}
	return events
}

func (c *ScheduleContext) HealthCode() string {
	return c.healthCode
}

func (c *ScheduleContext) ClientInfo() ClientInfo {
	return c.clientInfo
}

func (c *ScheduleContext) HasDataGroup(group string) bool {
	return c.dataGroups[group]
}

// DataGroups returns a copy of the active data group set
func (c *ScheduleContext) DataGroups() map[string]bool {
	groups := make(map[string]bool, len(c.dataGroups))
	for g := range c.dataGroups {
		groups[g] = true
	}
	return groups
}

func (c *ScheduleContext) MinimumPerSchedule() int {
	return c.minimumPerSchedule
}

// ScheduleContextBuilder builds an immutable ScheduleContext
type ScheduleContextBuilder struct {
	context ScheduleContext
}

func NewScheduleContextBuilder() *ScheduleContextBuilder {
	return &ScheduleContextBuilder{
		context: ScheduleContext{
			events:     map[string]time.Time{},
			dataGroups: map[string]bool{},
		},
	}
}

// WithContext copies every attribute of an existing context into the builder
func (b *ScheduleContextBuilder) WithContext(context *ScheduleContext) *ScheduleContextBuilder {
	b.context = *context
	b.context.events = context.Events()
	b.context.dataGroups = context.DataGroups()
	return b
}

func (b *ScheduleContextBuilder) WithStudyId(studyId string) *ScheduleContextBuilder {
	b.context.studyId = studyId
	return b
}

func (b *ScheduleContextBuilder) WithZone(zone *time.Location) *ScheduleContextBuilder {
	b.context.zone = zone
	return b
}

func (b *ScheduleContextBuilder) WithWindow(now time.Time, endsOn time.Time) *ScheduleContextBuilder {
	b.context.now = now
	b.context.endsOn = endsOn
	return b
}

func (b *ScheduleContextBuilder) WithAccountCreatedOn(createdOn time.Time) *ScheduleContextBuilder {
	b.context.accountCreatedOn = createdOn
	return b
}

func (b *ScheduleContextBuilder) WithEvents(events map[string]time.Time) *ScheduleContextBuilder {
	b.context.events = make(map[string]time.Time, len(events))
	for k, v := range events {
		b.context.events[k] = v
	}
	return b
}

func (b *ScheduleContextBuilder) WithHealthCode(healthCode string) *ScheduleContextBuilder {
	b.context.healthCode = healthCode
	return b
}

func (b *ScheduleContextBuilder) WithClientInfo(clientInfo ClientInfo) *ScheduleContextBuilder {
	b.context.clientInfo = clientInfo
	return b
}

func (b *ScheduleContextBuilder) WithDataGroups(dataGroups []string) *ScheduleContextBuilder {
	b.context.dataGroups = make(map[string]bool, len(dataGroups))
	for _, g := range dataGroups {
		b.context.dataGroups[g] = true
	}
	return b
}

func (b *ScheduleContextBuilder) WithMinimumPerSchedule(minimum int) *ScheduleContextBuilder {
	b.context.minimumPerSchedule = minimum
	return b
}

// Build returns the context; the builder can keep being used without
// affecting contexts built earlier
func (b *ScheduleContextBuilder) Build() *ScheduleContext {
	built := b.context
	built.events = make(map[string]time.Time, len(b.context.events))
	for k, v := range b.context.events {
		built.events[k] = v
	}
	built.dataGroups = make(map[string]bool, len(b.context.dataGroups))
	for g := range b.context.dataGroups {
		built.dataGroups[g] = true
	}
	return &built
}
