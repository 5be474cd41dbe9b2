// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import "github.com/studykitio/studykit/common/uuid"

// ScheduleStrategy resolves a schedule plan to the schedule that applies
// to one participant. Returning nil means the plan produces nothing for
// this participant.
type ScheduleStrategy interface {
	ScheduleFor(context *ScheduleContext) *Schedule
}

// SchedulePlan is a named schedule definition owned by a study
type SchedulePlan struct {
	Guid     string
	Label    string
	StudyId  string
	Strategy ScheduleStrategy
}

// NewSchedulePlan returns a plan with a freshly assigned guid
func NewSchedulePlan(studyId string, label string, strategy ScheduleStrategy) *SchedulePlan {
	return &SchedulePlan{
		Guid:     uuid.MustNewUUID().String(),
		Label:    label,
		StudyId:  studyId,
		Strategy: strategy,
	}
}

// SimpleScheduleStrategy returns the same schedule for every participant
type SimpleScheduleStrategy struct {
	Schedule *Schedule
}

func (s *SimpleScheduleStrategy) ScheduleFor(context *ScheduleContext) *Schedule {
	return s.Schedule
}

// ScheduleCriteria pairs a schedule with the criteria under which it is
// selected by a CriteriaScheduleStrategy
type ScheduleCriteria struct {
	Criteria Criteria
	Schedule *Schedule
}

// CriteriaScheduleStrategy returns the schedule of the first criteria
// group matching the participant, or nil when none match
type CriteriaScheduleStrategy struct {
	Groups []ScheduleCriteria
}

func (s *CriteriaScheduleStrategy) ScheduleFor(context *ScheduleContext) *Schedule {
	for _, group := range s.Groups {
		if group.Criteria.Matches(context.DataGroups(), context.ClientInfo()) {
			return group.Schedule
		}
	}
	return nil
}
