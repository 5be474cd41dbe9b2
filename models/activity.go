// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import "time"

type ActivityType int32

const (
	ActivityTypeUndefined ActivityType = 0
	ActivityTypeTask      ActivityType = 1
	ActivityTypeSurvey    ActivityType = 2
	ActivityTypeCompound  ActivityType = 3
)

func (t ActivityType) String() string {
	switch t {
	case ActivityTypeTask:
		return "Task"
	case ActivityTypeSurvey:
		return "Survey"
	case ActivityTypeCompound:
		return "Compound"
	case ActivityTypeUndefined:
		return "Undefined"
	default:
		panic("this is not supported")
	}
}

// SchemaReference points to a data-collection schema. It is resolved when
// Revision is set; an unresolved reference names only the schema id and is
// filled in with the latest revision for the requesting client.
type SchemaReference struct {
	Id       string `json:"id"`
	Revision *int   `json:"revision,omitempty"`
}

func (r SchemaReference) IsResolved() bool {
	return r.Revision != nil
}

// SurveyReference points to a survey. It is resolved when CreatedOn is set;
// an unresolved reference names only the survey guid and is filled in with
// the most recently published version.
type SurveyReference struct {
	Identifier string     `json:"identifier,omitempty"`
	Guid       string     `json:"guid"`
	CreatedOn  *time.Time `json:"createdOn,omitempty"`
}

func (r SurveyReference) IsResolved() bool {
	return r.CreatedOn != nil
}

// TaskReference names a simple task, optionally with the schema the task
// uploads its data against.
type TaskReference struct {
	Identifier string           `json:"identifier"`
	Schema     *SchemaReference `json:"schema,omitempty"`
}

// CompoundActivity bundles multiple schema/survey sub-references under one
// logical task identity.
type CompoundActivity struct {
	TaskIdentifier string            `json:"taskIdentifier"`
	SchemaList     []SchemaReference `json:"schemaList,omitempty"`
	SurveyList     []SurveyReference `json:"surveyList,omitempty"`
}

// IsReference is true when the compound activity names only the task id;
// its schema and survey lists then come from the stored definition.
func (c CompoundActivity) IsReference() bool {
	return len(c.SchemaList) == 0 && len(c.SurveyList) == 0
}

// Activity is the template inside a schedule: a tagged union of exactly
// one of a task reference, a survey reference, or a compound activity.
type Activity struct {
	Label string `json:"label,omitempty"`
	// Guid identifies the activity template and is the stable prefix of
	// every ScheduledActivity generated from it
	Guid     string            `json:"guid"`
	Task     *TaskReference    `json:"task,omitempty"`
	Survey   *SurveyReference  `json:"survey,omitempty"`
	Compound *CompoundActivity `json:"compound,omitempty"`
}

func (a Activity) Type() ActivityType {
	switch {
	case a.Compound != nil:
		return ActivityTypeCompound
	case a.Survey != nil:
		return ActivityTypeSurvey
	case a.Task != nil:
		return ActivityTypeTask
	default:
		return ActivityTypeUndefined
	}
}
