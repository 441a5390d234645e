package service

import (
	"context"
	"errors"

	"govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/authz"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
	"govportal/pkg/secrets"
)

// CreateAccountCommand is a direct account creation by staff.
type CreateAccountCommand struct {
	Name       string
	Email      string
	Secret     string
	Role       domain.Role
	SectorID   domain.SectorID
	FunctionID domain.FunctionID
}

// UpdateAccountCommand is a partial edit. Nil fields are left unchanged.
type UpdateAccountCommand struct {
	Name       *string
	Email      *string
	Role       *domain.Role
	SectorID   *domain.SectorID
	FunctionID *domain.FunctionID
	Status     *domain.AccountStatus
}

// CreateAccount creates an active account. A caller may create accounts in
// their own sector (any sector for Master) and never above their own role.
func (s *Service) CreateAccount(ctx context.Context, caller requestcontext.AuthPrincipal, cmd CreateAccountCommand) (*models.Account, error) {
	if !cmd.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if err := s.enforcer.Check(ctx, caller, cmd.SectorID, authz.Assigners(cmd.Role)...); err != nil {
		return nil, err
	}
	if !cmd.SectorID.IsZero() {
		if _, err := s.requireSector(ctx, cmd.SectorID); err != nil {
			return nil, err
		}
	}
	if err := s.requireFunction(ctx, cmd.FunctionID); err != nil {
		return nil, err
	}

	hash, err := s.hashSecret(cmd.Secret)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	a, err := models.NewAccount(models.NewAccountParams{
		Email:      cmd.Email,
		Name:       cmd.Name,
		SecretHash: hash,
		Role:       cmd.Role,
		SectorID:   cmd.SectorID,
		FunctionID: cmd.FunctionID,
		Status:     domain.AccountStatusActive,
		CreatedBy:  caller.AccountID,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, a.Email); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.record(ctx, caller, audit.ActionAccountCreated, map[string]any{
		"account_id": int64(a.ID),
		"email":      a.Email,
		"role":       string(a.Role),
		"sector_id":  int64(a.SectorID),
	})
	return a, nil
}

// GetAccount returns an account. Members may only read their own.
func (s *Service) GetAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) (*models.Account, error) {
	if caller.AccountID == id {
		return s.loadAccount(ctx, id)
	}
	target, err := s.loadAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gateTarget(ctx, caller, target); err != nil {
		return nil, err
	}
	return target, nil
}

// ListAccounts lists accounts visible to caller. A Coordinator is always
// narrowed to their own sector.
func (s *Service) ListAccounts(ctx context.Context, caller requestcontext.AuthPrincipal, f models.ListFilter) ([]*models.Account, error) {
	if err := s.enforcer.Check(ctx, caller, 0, authz.Staff...); err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleMaster {
		f.SectorID = caller.SectorID
	}
	out, err := s.accounts.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return out, nil
}

// UpdateAccount applies a partial edit. The caller is gated on the current
// sector, and again on the destination when role or sector change.
func (s *Service) UpdateAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID, cmd UpdateAccountCommand) (*models.Account, error) {
	target, err := s.loadAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gateTarget(ctx, caller, target); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var changed []string

	role, sector := target.Role, target.SectorID
	if cmd.Role != nil {
		role = *cmd.Role
	}
	if cmd.SectorID != nil {
		sector = *cmd.SectorID
	}
	if role != target.Role || sector != target.SectorID {
		if caller.AccountID == target.ID && role != target.Role {
			return nil, dErrors.New(dErrors.CodeConflict, "cannot change your own role")
		}
		if err := s.enforcer.Check(ctx, caller, sector, authz.Assigners(role)...); err != nil {
			return nil, err
		}
		if sector != target.SectorID && !sector.IsZero() {
			if _, err := s.requireSector(ctx, sector); err != nil {
				return nil, err
			}
		}
		if role != target.Role {
			changed = append(changed, "role")
		}
		if sector != target.SectorID {
			changed = append(changed, "sector_id")
		}
		if err := target.Reassign(role, sector, now); err != nil {
			return nil, err
		}
	}

	if cmd.Name != nil && *cmd.Name != target.Name {
		if err := target.Rename(*cmd.Name, now); err != nil {
			return nil, err
		}
		changed = append(changed, "name")
	}

	if cmd.Email != nil {
		previous := target.Email
		if err := target.ChangeEmail(*cmd.Email, now); err != nil {
			return nil, err
		}
		if target.Email != previous {
			if err := s.ensureEmailAvailable(ctx, target.Email); err != nil {
				return nil, err
			}
			changed = append(changed, "email")
		}
	}

	if cmd.FunctionID != nil && *cmd.FunctionID != target.FunctionID {
		if err := s.requireFunction(ctx, *cmd.FunctionID); err != nil {
			return nil, err
		}
		target.FunctionID = *cmd.FunctionID
		target.UpdatedAt = now
		changed = append(changed, "function_id")
	}

	if cmd.Status != nil && *cmd.Status != target.Status {
		if caller.AccountID == target.ID {
			return nil, dErrors.New(dErrors.CodeConflict, "cannot change your own status")
		}
		if err := target.CanSetAdministrativeStatus(*cmd.Status); err != nil {
			return nil, err
		}
		target.ApplyStatus(*cmd.Status, now)
		changed = append(changed, "status")
	}

	if len(changed) == 0 {
		return target, nil
	}
	if err := s.accounts.Update(ctx, target); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}

	s.record(ctx, caller, audit.ActionAccountUpdated, map[string]any{
		"account_id": int64(target.ID),
		"changed":    changed,
	})
	return s.loadAccount(ctx, target.ID)
}

// DeactivateAccount sets an account inactive.
func (s *Service) DeactivateAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error {
	if caller.AccountID == id {
		return dErrors.New(dErrors.CodeConflict, "cannot deactivate your own account")
	}
	target, err := s.loadAccount(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gateTarget(ctx, caller, target); err != nil {
		return err
	}
	if err := target.CanSetAdministrativeStatus(domain.AccountStatusInactive); err != nil {
		return err
	}

	err = s.accounts.UpdateStatusIf(ctx, id, target.Status, domain.AccountStatusInactive, requestcontext.Now(ctx))
	switch {
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "account status changed concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate account")
	}

	s.record(ctx, caller, audit.ActionAccountDeactivated, map[string]any{
		"account_id":      int64(id),
		"previous_status": string(target.Status),
	})
	return nil
}

// DeleteAccount removes an account that nothing references. Master only,
// never self, never cascading.
func (s *Service) DeleteAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error {
	if err := s.enforcer.Check(ctx, caller, 0, domain.RoleMaster); err != nil {
		return err
	}
	if caller.AccountID == id {
		return dErrors.New(dErrors.CodeConflict, "cannot delete your own account")
	}
	target, err := s.loadAccount(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.countDependents(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check account dependents")
	}
	if n > 0 {
		return dErrors.New(dErrors.CodeConflict, "account has dependent records; deactivate it instead")
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrReferenced):
			return dErrors.New(dErrors.CodeConflict, "account has dependent records; deactivate it instead")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete account")
	}

	s.record(ctx, caller, audit.ActionAccountDeleted, map[string]any{
		"account_id": int64(id),
		"email":      target.Email,
		"sector_id":  int64(target.SectorID),
	})
	return nil
}

func (s *Service) countDependents(ctx context.Context, id domain.AccountID) (int, error) {
	total, err := s.accounts.CountCreatedBy(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, c := range s.dependents {
		n, err := c.CountByAccount(ctx, id)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ResetSecret replaces an account's secret. An empty secret generates one,
// which is returned once and never stored in clear.
func (s *Service) ResetSecret(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID, secret string) (string, error) {
	target, err := s.loadAccount(ctx, id)
	if err != nil {
		return "", err
	}
	if caller.AccountID != id {
		if err := s.gateTarget(ctx, caller, target); err != nil {
			return "", err
		}
	}

	generated := ""
	if secret == "" {
		if secret, err = secrets.Generate(); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate secret")
		}
		generated = secret
	}
	hash, err := s.hashSecret(secret)
	if err != nil {
		return "", err
	}
	if err := s.accounts.UpdateSecret(ctx, id, hash, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset secret")
	}

	s.record(ctx, caller, audit.ActionSecretReset, map[string]any{
		"account_id": int64(id),
		"generated":  generated != "",
	})
	return generated, nil
}

func (s *Service) hashSecret(secret string) (string, error) {
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}
	return hash, nil
}
