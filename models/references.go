// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import "time"

// Survey is the lookup result for a published survey version
type Survey struct {
	Guid       string
	Identifier string
	CreatedOn  time.Time
}

// Schema is the lookup result for a data-collection schema revision
type Schema struct {
	Id       string
	Revision int
}

// CompoundActivityDefinition is the stored definition behind a compound
// activity that names only a task id
type CompoundActivityDefinition struct {
	StudyId    string
	TaskId     string
	SchemaList []SchemaReference
	SurveyList []SurveyReference
}
