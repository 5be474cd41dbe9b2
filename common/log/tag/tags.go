// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package tag

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const LoggingCallAtKey = "logging-call-at"

// Tag is the interface for the logging system
type Tag struct {
	// keep this field private
	field zap.Field
}

// Field returns a zap field
func (t *Tag) Field() zap.Field {
	return t.field
}

func newStringTag(key string, value string) Tag {
	return Tag{
		field: zap.String(key, value),
	}
}

func newIntTag(key string, value int) Tag {
	return Tag{
		field: zap.Int(key, value),
	}
}

func newTimeTag(key string, value time.Time) Tag {
	return Tag{
		field: zap.Time(key, value),
	}
}

func newObjectTag(key string, value interface{}) Tag {
	return Tag{
		field: zap.String(key, fmt.Sprintf("%v", value)),
	}
}

func newErrorTag(value error) Tag {
	//NOTE zap already chosen "error" as key
	return Tag{
		field: zap.Error(value),
	}
}

// TAGS

func Error(err error) Tag {
	return newErrorTag(err)
}

func Service(sv string) Tag {
	return newStringTag("service", sv)
}

func StudyId(id string) Tag {
	return newStringTag("studyId", id)
}

func HealthCode(hc string) Tag {
	return newStringTag("healthCode", hc)
}

func ActivityGuid(guid string) Tag {
	return newStringTag("activityGuid", guid)
}

func SchedulePlanGuid(guid string) Tag {
	return newStringTag("schedulePlanGuid", guid)
}

func SurveyGuid(guid string) Tag {
	return newStringTag("surveyGuid", guid)
}

func SchemaId(id string) Tag {
	return newStringTag("schemaId", id)
}

func TaskId(id string) Tag {
	return newStringTag("taskId", id)
}

func ScheduledOn(t time.Time) Tag {
	return newTimeTag("scheduledOn", t)
}

func Count(n int) Tag {
	return newIntTag("count", n)
}

func Value(v interface{}) Tag {
	return newObjectTag("value", v)
}

func Key(v string) Tag {
	return newStringTag("Key", v)
}
