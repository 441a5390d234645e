package service

import (
	"context"
	"errors"
	"fmt"

	"govportal/internal/account/models"
	"govportal/pkg/domain"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// BootstrapParams describes the first Master and its home sector.
type BootstrapParams struct {
	Email      string
	Secret     string
	Name       string
	SectorCode string
	SectorName string
}

// Bootstrap seeds a Master account when none exists. It is idempotent and
// returns false when a Master was already present.
func (s *Service) Bootstrap(ctx context.Context, p BootstrapParams) (bool, error) {
	has, err := s.accounts.HasMaster(ctx)
	if err != nil {
		return false, fmt.Errorf("check master: %w", err)
	}
	if has {
		return false, nil
	}

	now := requestcontext.Now(ctx)
	sector, err := s.sectors.FindByCode(ctx, p.SectorCode)
	if errors.Is(err, sentinel.ErrNotFound) {
		sector, err = models.NewSector(p.SectorName, p.SectorCode, now)
		if err != nil {
			return false, fmt.Errorf("bootstrap sector: %w", err)
		}
		err = s.sectors.Create(ctx, sector)
	}
	if err != nil {
		return false, fmt.Errorf("bootstrap sector: %w", err)
	}

	hash, err := s.hasher.Hash(p.Secret)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap secret: %w", err)
	}
	master, err := models.NewAccount(models.NewAccountParams{
		Email:      p.Email,
		Name:       p.Name,
		SecretHash: hash,
		Role:       domain.RoleMaster,
		SectorID:   sector.ID,
		Status:     domain.AccountStatusActive,
	}, now)
	if err != nil {
		return false, fmt.Errorf("bootstrap master: %w", err)
	}
	if err := s.accounts.Create(ctx, master); err != nil {
		return false, fmt.Errorf("create bootstrap master: %w", err)
	}
	s.logger.InfoContext(ctx, "bootstrap master created",
		"account_id", int64(master.ID),
		"sector", sector.Code,
	)
	return true, nil
}
