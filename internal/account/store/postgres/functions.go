package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"govportal/internal/account/models"
	pgplatform "govportal/internal/platform/postgres"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	txcontext "govportal/pkg/platform/tx"
)

type FunctionStore struct {
	db *sql.DB
}

func NewFunctionStore(db *sql.DB) *FunctionStore {
	return &FunctionStore{db: db}
}

func (s *FunctionStore) Create(ctx context.Context, fn *models.Function) error {
	var id int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO functions (name, created_at) VALUES ($1, $2) RETURNING id`,
		fn.Name, fn.CreatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert function: %w", pgplatform.ClassifyError(err))
	}
	fn.ID = domain.FunctionID(id)
	return nil
}

func (s *FunctionStore) FindByID(ctx context.Context, id domain.FunctionID) (*models.Function, error) {
	return scanFunction(txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, created_at FROM functions WHERE id = $1`, int64(id)))
}

func (s *FunctionStore) List(ctx context.Context) ([]*models.Function, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT id, name, created_at FROM functions ORDER BY lower(name), id`)
	if err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}
	defer rows.Close()
	out := []*models.Function{}
	for rows.Next() {
		fn, err := scanFunction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate functions: %w", err)
	}
	return out, nil
}

func (s *FunctionStore) Delete(ctx context.Context, id domain.FunctionID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM functions WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete function: %w", pgplatform.ClassifyError(err))
	}
	return requireRow(res)
}

func scanFunction(row rowScanner) (*models.Function, error) {
	var (
		fn models.Function
		id int64
	)
	if err := row.Scan(&id, &fn.Name, &fn.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan function: %w", err)
	}
	fn.ID = domain.FunctionID(id)
	fn.CreatedAt = fn.CreatedAt.UTC()
	return &fn, nil
}
