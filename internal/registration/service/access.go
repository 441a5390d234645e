package service

import (
	"context"
	"errors"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/authz"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/email"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// SelfRegistration is an unauthenticated request for a Member account.
type SelfRegistration struct {
	Name       string
	Email      string
	Secret     string
	SectorCode string
	FunctionID domain.FunctionID
}

// RequestAccess creates a pending Member account awaiting a staff decision.
func (s *Service) RequestAccess(ctx context.Context, reg SelfRegistration) (*accountmodels.Account, error) {
	sector, err := s.sectorByCode(ctx, reg.SectorCode)
	if err != nil {
		return nil, err
	}
	if err := s.requireFunction(ctx, reg.FunctionID); err != nil {
		return nil, err
	}
	addr := email.Normalize(reg.Email)
	if !email.IsValid(addr) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	if err := s.ensureEmailAvailable(ctx, addr); err != nil {
		return nil, err
	}
	hash, err := s.hashSecret(reg.Secret)
	if err != nil {
		return nil, err
	}

	a, err := accountmodels.NewAccount(accountmodels.NewAccountParams{
		Email:      addr,
		Name:       reg.Name,
		SecretHash: hash,
		Role:       domain.RoleMember,
		SectorID:   sector.ID,
		FunctionID: reg.FunctionID,
		Status:     domain.AccountStatusPending,
	}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		s.logger.ErrorContext(ctx, "failed to create pending account", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to request access")
	}

	s.metrics.IncRegistration("access_requested")
	s.ledger.Record(ctx, audit.Entry{
		SectorID: sector.ID,
		Action:   audit.ActionAccessRequested,
		Detail: map[string]any{
			"account_id":  int64(a.ID),
			"email":       a.Email,
			"sector_code": sector.Code,
		},
	})
	return a, nil
}

// ApproveAccount admits a self-registered account into onboarding.
func (s *Service) ApproveAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error {
	return s.resolveAccount(ctx, caller, id, domain.AccountStatusActivePendingOnboarding, audit.ActionAccountApproved)
}

// RejectAccount closes a self-registered account.
func (s *Service) RejectAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error {
	return s.resolveAccount(ctx, caller, id, domain.AccountStatusRejected, audit.ActionAccountRejected)
}

// resolveAccount moves a pending account with a compare-and-swap on status.
func (s *Service) resolveAccount(
	ctx context.Context,
	caller requestcontext.AuthPrincipal,
	id domain.AccountID,
	to domain.AccountStatus,
	action audit.Action,
) error {
	target, err := s.loadAccount(ctx, id)
	if err != nil {
		return err
	}
	if err := s.enforcer.Check(ctx, caller, target.SectorID, authz.TargetGate(target.Role)...); err != nil {
		return err
	}
	if err := target.CanResolveRegistration(); err != nil {
		return err
	}
	err = s.accounts.UpdateStatusIf(ctx, id, domain.AccountStatusPending, to, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeAlreadyProcessed, "account registration already processed")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		s.logger.ErrorContext(ctx, "failed to resolve pending account", "error", err, "account_id", int64(id))
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}

	s.metrics.IncRegistration(string(action))
	s.record(ctx, caller, action, map[string]any{
		"account_id": int64(id),
		"email":      target.Email,
		"status":     string(to),
	})
	return nil
}
