package main

import (
	"context"
	"database/sql"
	"time"

	pgplatform "govportal/internal/platform/postgres"
)

// registrationPostgresTx runs the approval unit of work in one Postgres
// transaction. Stores and the audit appender join it through the context.
type registrationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newRegistrationPostgresTx(db *sql.DB, timeout time.Duration) *registrationPostgresTx {
	return &registrationPostgresTx{db: db, timeout: timeout}
}

func (t *registrationPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return pgplatform.RunInTx(ctx, t.db, t.timeout, fn)
}
