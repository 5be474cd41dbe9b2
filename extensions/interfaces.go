// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package extensions

import (
	"context"

	"github.com/studykitio/studykit/config"
)

type SQLDBExtension interface {
	// StartDBSession starts the session for regular business logic
	StartDBSession(cfg *config.SQL) (SQLDBSession, error)
	// StartAdminDBSession starts the session for admin operation like DDL
	StartAdminDBSession(cfg *config.SQL) (SQLAdminDBSession, error)
}

type SQLDBSession interface {
	scheduledActivityCRUD
	ErrorChecker
	Close() error
}

type SQLAdminDBSession interface {
	CreateDatabase(ctx context.Context, database string) error
	DropDatabase(ctx context.Context, database string) error
	ExecuteSchemaDDL(ctx context.Context, ddlQuery string) error
	Close() error
}

type scheduledActivityCRUD interface {
	// InsertScheduledActivity writes a newly generated occurrence. A
	// concurrent request may have written the same occurrence already;
	// in that case the insert is a no-op so persisted user state is
	// never overwritten.
	InsertScheduledActivity(ctx context.Context, row ScheduledActivityRow) error
	SelectScheduledActivity(ctx context.Context, filter ScheduledActivitySelectFilter) (*ScheduledActivityRow, error)
	SelectScheduledActivitiesInRange(ctx context.Context, filter ScheduledActivityRangeSelectFilter) ([]ScheduledActivityRow, error)
	UpdateScheduledActivityUserState(ctx context.Context, row ScheduledActivityUserStateRow) error
	DeleteScheduledActivitiesByHealthCode(ctx context.Context, healthCode string) (int64, error)
	DeleteScheduledActivitiesBySchedulePlan(ctx context.Context, schedulePlanGuid string) (int64, error)
}

type ErrorChecker interface {
	IsDupEntryError(err error) bool
	IsNotFoundError(err error) bool
	IsTimeoutError(err error) bool
	IsThrottlingError(err error) bool
}
