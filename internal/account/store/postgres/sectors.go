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

type SectorStore struct {
	db *sql.DB
}

func NewSectorStore(db *sql.DB) *SectorStore {
	return &SectorStore{db: db}
}

func (s *SectorStore) Create(ctx context.Context, sector *models.Sector) error {
	var id int64
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO sectors (name, code, created_at) VALUES ($1, $2, $3) RETURNING id`,
		sector.Name, sector.Code, sector.CreatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert sector: %w", pgplatform.ClassifyError(err))
	}
	sector.ID = domain.SectorID(id)
	return nil
}

func (s *SectorStore) FindByID(ctx context.Context, id domain.SectorID) (*models.Sector, error) {
	return scanSector(txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, code, created_at FROM sectors WHERE id = $1`, int64(id)))
}

func (s *SectorStore) FindByCode(ctx context.Context, code string) (*models.Sector, error) {
	return scanSector(txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, code, created_at FROM sectors WHERE code = $1`, models.NormalizeSectorCode(code)))
}

func (s *SectorStore) List(ctx context.Context) ([]*models.Sector, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT id, name, code, created_at FROM sectors ORDER BY lower(name), id`)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	defer rows.Close()
	out := []*models.Sector{}
	for rows.Next() {
		sector, err := scanSector(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sectors: %w", err)
	}
	return out, nil
}

func (s *SectorStore) Update(ctx context.Context, sector *models.Sector) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE sectors SET name = $2, code = $3 WHERE id = $1`,
		int64(sector.ID), sector.Name, sector.Code)
	if err != nil {
		return fmt.Errorf("update sector: %w", pgplatform.ClassifyError(err))
	}
	return requireRow(res)
}

func (s *SectorStore) Delete(ctx context.Context, id domain.SectorID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM sectors WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete sector: %w", pgplatform.ClassifyError(err))
	}
	return requireRow(res)
}

func scanSector(row rowScanner) (*models.Sector, error) {
	var (
		sector models.Sector
		id     int64
	)
	if err := row.Scan(&id, &sector.Name, &sector.Code, &sector.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan sector: %w", err)
	}
	sector.ID = domain.SectorID(id)
	sector.CreatedAt = sector.CreatedAt.UTC()
	return &sector, nil
}
