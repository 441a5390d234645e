// Package postgres persists accounts, sectors and functions. Every statement
// runs on the transaction carried by the context when there is one.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"govportal/internal/account/models"
	pgplatform "govportal/internal/platform/postgres"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `
	a.id, a.email, a.name, a.secret_hash, a.role, a.sector_id, a.function_id, a.status,
	a.created_by, a.created_at, a.updated_at, COALESCE(s.code, ''), COALESCE(s.name, '')`

const accountFrom = `
	FROM accounts a
	LEFT JOIN sectors s ON s.id = a.sector_id`

func (s *AccountStore) Create(ctx context.Context, a *models.Account) error {
	const query = `
		INSERT INTO accounts (email, name, secret_hash, role, sector_id, function_id, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	var id int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		a.Email, a.Name, a.SecretHash, string(a.Role),
		nullInt(int64(a.SectorID)), nullInt(int64(a.FunctionID)),
		string(a.Status), nullInt(int64(a.CreatedBy)), a.CreatedAt, a.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert account: %w", pgplatform.ClassifyError(err))
	}
	a.ID = domain.AccountID(id)
	return nil
}

func (s *AccountStore) FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+accountColumns+accountFrom+` WHERE a.id = $1`, int64(id))
	return scanAccount(row)
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT`+accountColumns+accountFrom+` WHERE a.email = $1`, email)
	return scanAccount(row)
}

func (s *AccountStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account email: %w", err)
	}
	return exists, nil
}

// List returns matching accounts ordered by name, then id.
func (s *AccountStore) List(ctx context.Context, f models.ListFilter) ([]*models.Account, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if !f.SectorID.IsZero() {
		add("a.sector_id = $%d", int64(f.SectorID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("a.status = ANY($%d)", pq.Array(statuses))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(a.name ILIKE $%d ESCAPE '\' OR a.email ILIKE $%d ESCAPE '\' OR s.code ILIKE $%d ESCAPE '\')`, n, n, n))
	}

	var b strings.Builder
	b.WriteString(`SELECT` + accountColumns + accountFrom)
	if len(where) > 0 {
		b.WriteString("\n\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString("\n\tORDER BY lower(a.name), a.id")
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		fmt.Fprintf(&b, "\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []*models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

func (s *AccountStore) Update(ctx context.Context, a *models.Account) error {
	const query = `
		UPDATE accounts
		SET email = $2, name = $3, role = $4, sector_id = $5, function_id = $6, status = $7, updated_at = $8
		WHERE id = $1`
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		int64(a.ID), a.Email, a.Name, string(a.Role),
		nullInt(int64(a.SectorID)), nullInt(int64(a.FunctionID)),
		string(a.Status), a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", pgplatform.ClassifyError(err))
	}
	return requireRow(res)
}

// UpdateStatusIf moves an account from one status to another in a single
// conditional statement. Zero affected rows are disambiguated with a re-read.
func (s *AccountStore) UpdateStatusIf(ctx context.Context, id domain.AccountID, from, to domain.AccountStatus, now time.Time) error {
	exec := txcontext.Exec(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE accounts SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		int64(id), string(from), string(to), now)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update account status: %w", err)
	} else if n == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, int64(id)).Scan(&exists); err != nil {
		return fmt.Errorf("recheck account: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *AccountStore) UpdateSecret(ctx context.Context, id domain.AccountID, hash string, now time.Time) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE accounts SET secret_hash = $2, updated_at = $3 WHERE id = $1`, int64(id), hash, now)
	if err != nil {
		return fmt.Errorf("update account secret: %w", err)
	}
	return requireRow(res)
}

// Delete removes an account. Foreign keys are RESTRICT, so a referenced
// account yields ErrReferenced.
func (s *AccountStore) Delete(ctx context.Context, id domain.AccountID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete account: %w", pgplatform.ClassifyError(err))
	}
	return requireRow(res)
}

func (s *AccountStore) CountBySector(ctx context.Context, id domain.SectorID) (int, error) {
	return s.count(ctx, `SELECT count(*) FROM accounts WHERE sector_id = $1`, int64(id))
}

func (s *AccountStore) CountByFunction(ctx context.Context, id domain.FunctionID) (int, error) {
	return s.count(ctx, `SELECT count(*) FROM accounts WHERE function_id = $1`, int64(id))
}

func (s *AccountStore) CountCreatedBy(ctx context.Context, id domain.AccountID) (int, error) {
	return s.count(ctx, `SELECT count(*) FROM accounts WHERE created_by = $1`, int64(id))
}

func (s *AccountStore) HasMaster(ctx context.Context) (bool, error) {
	n, err := s.count(ctx, `SELECT count(*) FROM accounts WHERE role = $1`, string(domain.RoleMaster))
	return n > 0, err
}

func (s *AccountStore) count(ctx context.Context, query string, arg any) (int, error) {
	var n int
	if err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a                               models.Account
		id                              int64
		role, status                    string
		sectorID, functionID, createdBy sql.NullInt64
	)
	err := row.Scan(&id, &a.Email, &a.Name, &a.SecretHash, &role, &sectorID, &functionID, &status,
		&createdBy, &a.CreatedAt, &a.UpdatedAt, &a.SectorCode, &a.SectorName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.ID = domain.AccountID(id)
	a.Role = domain.Role(role)
	a.Status = domain.AccountStatus(status)
	a.SectorID = domain.SectorID(sectorID.Int64)
	a.FunctionID = domain.FunctionID(functionID.Int64)
	a.CreatedBy = domain.AccountID(createdBy.Int64)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
