package service

import (
	"context"
	"errors"

	"govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

func (s *Service) ListSectors(ctx context.Context) ([]*models.Sector, error) {
	out, err := s.sectors.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sectors")
	}
	return out, nil
}

// SectorByCode resolves a sector from its short code.
func (s *Service) SectorByCode(ctx context.Context, code string) (*models.Sector, error) {
	if models.NormalizeSectorCode(code) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "sector code is required")
	}
	sector, err := s.sectors.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "sector not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sector")
	}
	return sector, nil
}

func (s *Service) CreateSector(ctx context.Context, caller requestcontext.AuthPrincipal, name, code string) (*models.Sector, error) {
	if err := s.enforcer.Check(ctx, caller, 0, domain.RoleMaster); err != nil {
		return nil, err
	}
	sector, err := models.NewSector(name, code, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.sectors.Create(ctx, sector); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "sector code already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create sector")
	}
	s.record(ctx, caller, audit.ActionSectorCreated, map[string]any{
		"sector_id": int64(sector.ID),
		"code":      sector.Code,
	})
	return sector, nil
}

func (s *Service) UpdateSector(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.SectorID, name, code string) (*models.Sector, error) {
	if err := s.enforcer.Check(ctx, caller, 0, domain.RoleMaster); err != nil {
		return nil, err
	}
	sector, err := s.requireSector(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := sector.Code
	if err := sector.Apply(name, code); err != nil {
		return nil, err
	}
	if err := s.sectors.Update(ctx, sector); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "sector code already exists")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "sector not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update sector")
	}
	s.record(ctx, caller, audit.ActionSectorUpdated, map[string]any{
		"sector_id":     int64(sector.ID),
		"code":          sector.Code,
		"previous_code": previous,
	})
	return sector, nil
}

// DeleteSector removes a sector no account references.
func (s *Service) DeleteSector(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.SectorID) error {
	if err := s.enforcer.Check(ctx, caller, 0, domain.RoleMaster); err != nil {
		return err
	}
	sector, err := s.requireSector(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.accounts.CountBySector(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count sector accounts")
	}
	if n > 0 {
		return dErrors.New(dErrors.CodeConflict, "sector still has accounts")
	}
	if err := s.sectors.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrReferenced):
			return dErrors.New(dErrors.CodeConflict, "sector is still referenced")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "sector not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete sector")
	}
	s.record(ctx, caller, audit.ActionSectorDeleted, map[string]any{
		"sector_id": int64(id),
		"code":      sector.Code,
	})
	return nil
}

func (s *Service) ListFunctions(ctx context.Context) ([]*models.Function, error) {
	out, err := s.functions.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list functions")
	}
	return out, nil
}

func (s *Service) CreateFunction(ctx context.Context, caller requestcontext.AuthPrincipal, name string) (*models.Function, error) {
	if err := s.enforcer.Check(ctx, caller, 0, domain.RoleMaster); err != nil {
		return nil, err
	}
	fn, err := models.NewFunction(name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.functions.Create(ctx, fn); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "function already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create function")
	}
	s.record(ctx, caller, audit.ActionFunctionCreated, map[string]any{
		"function_id": int64(fn.ID),
		"name":        fn.Name,
	})
	return fn, nil
}

func (s *Service) DeleteFunction(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.FunctionID) error {
	if err := s.enforcer.Check(ctx, caller, 0, domain.RoleMaster); err != nil {
		return err
	}
	n, err := s.accounts.CountByFunction(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count function accounts")
	}
	if n > 0 {
		return dErrors.New(dErrors.CodeConflict, "function is still assigned to accounts")
	}
	if err := s.functions.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrReferenced):
			return dErrors.New(dErrors.CodeConflict, "function is still referenced")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "function not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete function")
	}
	s.record(ctx, caller, audit.ActionFunctionDeleted, map[string]any{"function_id": int64(id)})
	return nil
}
