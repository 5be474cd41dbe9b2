// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package models

import "errors"

// ErrNotFound is returned by lookup collaborators when the referenced
// entity (survey, schema, compound activity definition, persisted
// activity) does not exist
var ErrNotFound = errors.New("entity not found")

// ConfigError indicates malformed declarative configuration, e.g. a
// schedule with an unparseable interval. It is fatal and surfaced at
// construction time, never per request.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Message
}

func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}

// ValidationError indicates a request that is rejected wholesale before
// any persistence occurs; the caller must resubmit a corrected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
