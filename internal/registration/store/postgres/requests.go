// Package postgres persists registration requests.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"govportal/internal/registration/models"
	pgplatform "govportal/internal/platform/postgres"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

const requestColumns = `
	r.id, r.email, r.name, r.secret_hash, r.role, r.sector_id, r.function_id, r.requested_by,
	r.status, r.account_id, r.resolved_by, r.resolved_at, r.reason, r.created_at,
	COALESCE(s.code, ''), COALESCE(a.name, '')`

const requestFrom = `
	FROM registration_requests r
	LEFT JOIN sectors s ON s.id = r.sector_id
	LEFT JOIN accounts a ON a.id = r.requested_by`

// Create inserts a pending request. A second pending request for the same
// address violates the partial unique index and yields ErrConflict.
func (s *RequestStore) Create(ctx context.Context, r *models.Request) error {
	const query = `
		INSERT INTO registration_requests (email, name, secret_hash, role, sector_id, function_id, requested_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var id int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		r.Email, r.Name, r.SecretHash, string(r.Role), int64(r.SectorID),
		nullInt(int64(r.FunctionID)), int64(r.RequestedBy), string(r.Status), r.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert registration request: %w", pgplatform.ClassifyError(err))
	}
	r.ID = domain.RequestID(id)
	return nil
}

func (s *RequestStore) FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+requestColumns+requestFrom+` WHERE r.id = $1`, int64(id))
	return scanRequest(row)
}

// FindForUpdate locks the request row until the surrounding transaction ends.
func (s *RequestStore) FindForUpdate(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+requestColumns+requestFrom+` WHERE r.id = $1 FOR UPDATE OF r`, int64(id))
	return scanRequest(row)
}

func (s *RequestStore) MarkApproved(ctx context.Context, id domain.RequestID, accountID, by domain.AccountID, now time.Time) error {
	return s.resolveIf(ctx, id,
		`UPDATE registration_requests
		SET status = 'approved', account_id = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $1 AND status = 'pending'`,
		int64(id), int64(accountID), int64(by), now)
}

func (s *RequestStore) RejectIf(ctx context.Context, id domain.RequestID, by domain.AccountID, reason string, now time.Time) error {
	return s.resolveIf(ctx, id,
		`UPDATE registration_requests
		SET status = 'rejected', resolved_by = $2, resolved_at = $3, reason = $4
		WHERE id = $1 AND status = 'pending'`,
		int64(id), int64(by), now, reason)
}

// resolveIf runs a conditional update guarded by status = 'pending'. Zero
// affected rows are disambiguated with an existence check.
func (s *RequestStore) resolveIf(ctx context.Context, id domain.RequestID, query string, args ...any) error {
	exec := txcontext.Exec(ctx, s.db)
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("resolve registration request: %w", pgplatform.ClassifyError(err))
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("resolve registration request: %w", err)
	} else if n == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests WHERE id = $1)`, int64(id)).Scan(&exists); err != nil {
		return fmt.Errorf("recheck registration request: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

// ListPending returns pending requests newest first. A zero sector means all.
func (s *RequestStore) ListPending(ctx context.Context, sector domain.SectorID) ([]*models.Request, error) {
	query := `SELECT` + requestColumns + requestFrom + ` WHERE r.status = 'pending'`
	var args []any
	if !sector.IsZero() {
		query += ` AND r.sector_id = $1`
		args = append(args, int64(sector))
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	out := []*models.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending requests: %w", err)
	}
	return out, nil
}

func (s *RequestStore) PendingEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests WHERE email = $1 AND status = 'pending')`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending email: %w", err)
	}
	return exists, nil
}

func (s *RequestStore) CountByAccount(ctx context.Context, id domain.AccountID) (int, error) {
	var n int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM registration_requests WHERE requested_by = $1 OR resolved_by = $1 OR account_id = $1`,
		int64(id)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registration requests: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r                                 models.Request
		id, sectorID, requestedBy         int64
		role, status                      string
		functionID, accountID, resolvedBy sql.NullInt64
		resolvedAt                        sql.NullTime
	)
	err := row.Scan(&id, &r.Email, &r.Name, &r.SecretHash, &role, &sectorID, &functionID, &requestedBy,
		&status, &accountID, &resolvedBy, &resolvedAt, &r.Reason, &r.CreatedAt,
		&r.SectorCode, &r.RequestedByName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration request: %w", err)
	}
	r.ID = domain.RequestID(id)
	r.Role = domain.Role(role)
	r.Status = domain.RequestStatus(status)
	r.SectorID = domain.SectorID(sectorID)
	r.RequestedBy = domain.AccountID(requestedBy)
	r.FunctionID = domain.FunctionID(functionID.Int64)
	r.AccountID = domain.AccountID(accountID.Int64)
	r.ResolvedBy = domain.AccountID(resolvedBy.Int64)
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		r.ResolvedAt = &t
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
