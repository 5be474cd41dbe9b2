// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/studykitio/studykit/extensions"
)

type dbSession struct {
	db *sqlx.DB
}

var _ extensions.SQLDBSession = (*dbSession)(nil)

func newDBSession(db *sqlx.DB) *dbSession {
	return &dbSession{
		db: db,
	}
}

func (d dbSession) Close() error {
	return d.db.Close()
}
