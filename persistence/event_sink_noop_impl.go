// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package persistence

import "context"

type activityEventSinkNoop struct{}

var _ ActivityEventSink = (*activityEventSinkNoop)(nil)

// NewNoopActivityEventSink is used when no event sink is configured
func NewNoopActivityEventSink() ActivityEventSink {
	return &activityEventSinkNoop{}
}

func (s *activityEventSinkNoop) PublishActivityFinished(ctx context.Context, event ActivityFinishedEvent) error {
	return nil
}

func (s *activityEventSinkNoop) Close() error {
	return nil
}
