// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"github.com/studykitio/studykit/common/log/tag"
)

// Logger is the logging abstraction used across the repo.
// Messages should be static; anything dynamic goes into tags so that
// the output stays searchable/filterable:
//
//	logger.Info("resolved survey reference",
//	    tag.StudyId("api"),
//	    tag.SurveyGuid("BBB"))
type Logger interface {
	Debug(msg string, tags ...tag.Tag)
	Info(msg string, tags ...tag.Tag)
	Warn(msg string, tags ...tag.Tag)
	Error(msg string, tags ...tag.Tag)
	Fatal(msg string, tags ...tag.Tag)
	WithTags(tags ...tag.Tag) Logger
}
