//go:build integration

// Package containers starts throwaway backends for integration tests.
package containers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	pgplatform "govportal/internal/platform/postgres"
)

const postgresImage = "postgres:16-alpine"

// Postgres is a migrated database ready for store tests.
type Postgres struct {
	DB  *sql.DB
	DSN string
}

// NewPostgres starts Postgres, applies the schema and registers cleanup on t.
func NewPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("govportal"),
		tcpostgres.WithUsername("govportal"),
		tcpostgres.WithPassword("govportal"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	db, err := pgplatform.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := pgplatform.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &Postgres{DB: db, DSN: dsn}
}

// Truncate empties every portal table between tests.
func (p *Postgres) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.DB.Exec(`TRUNCATE audit_records, registration_requests, token_revocations, accounts, functions, sectors RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
