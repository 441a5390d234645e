package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/authz"
	"govportal/internal/registration/models"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/email"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// SubmitCommand nominates a person for an account in the sector identified by SectorCode.
type SubmitCommand struct {
	Name       string
	Email      string
	Secret     string
	Role       domain.Role
	SectorCode string
	FunctionID domain.FunctionID
}

// SubmitResult carries RequestID for a nomination or AccountID for a direct creation.
type SubmitResult struct {
	RequestID domain.RequestID
	AccountID domain.AccountID
}

// Submit routes a nomination by target role. Members go through a pending
// request; Coordinators and Masters are created directly as active accounts.
// The caller must be allowed to grant the role in the target sector.
func (s *Service) Submit(ctx context.Context, caller requestcontext.AuthPrincipal, cmd SubmitCommand) (_ *SubmitResult, err error) {
	ctx, span := tracer.Start(ctx, "registration.submit")
	defer func() { endSpan(span, err) }()

	sector, err := s.sectorByCode(ctx, cmd.SectorCode)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("sector.code", sector.Code), attribute.String("role", string(cmd.Role)))
	if !cmd.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if err := s.enforcer.Check(ctx, caller, sector.ID, authz.Assigners(cmd.Role)...); err != nil {
		return nil, err
	}
	if err := s.requireFunction(ctx, cmd.FunctionID); err != nil {
		return nil, err
	}

	addr := email.Normalize(cmd.Email)
	if !email.IsValid(addr) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	if err := s.ensureEmailAvailable(ctx, addr); err != nil {
		return nil, err
	}
	hash, err := s.hashSecret(cmd.Secret)
	if err != nil {
		return nil, err
	}

	if cmd.Role == domain.RoleMember {
		return s.submitRequest(ctx, caller, cmd, sector, addr, hash)
	}
	return s.createDirect(ctx, caller, cmd, sector, addr, hash)
}

func (s *Service) submitRequest(
	ctx context.Context,
	caller requestcontext.AuthPrincipal,
	cmd SubmitCommand,
	sector *accountmodels.Sector,
	addr, hash string,
) (*SubmitResult, error) {
	req, err := models.NewRequest(models.NewRequestParams{
		Email:       addr,
		Name:        cmd.Name,
		SecretHash:  hash,
		Role:        cmd.Role,
		SectorID:    sector.ID,
		FunctionID:  cmd.FunctionID,
		RequestedBy: caller.AccountID,
	}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		s.logger.ErrorContext(ctx, "failed to store registration request", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit registration")
	}

	s.metrics.IncRegistration("submitted")
	s.record(ctx, caller, audit.ActionRegistrationSubmitted, map[string]any{
		"request_id":  int64(req.ID),
		"email":       req.Email,
		"role":        string(req.Role),
		"sector_id":   int64(sector.ID),
		"sector_code": sector.Code,
	})
	return &SubmitResult{RequestID: req.ID}, nil
}

func (s *Service) createDirect(
	ctx context.Context,
	caller requestcontext.AuthPrincipal,
	cmd SubmitCommand,
	sector *accountmodels.Sector,
	addr, hash string,
) (*SubmitResult, error) {
	a, err := accountmodels.NewAccount(accountmodels.NewAccountParams{
		Email:      addr,
		Name:       cmd.Name,
		SecretHash: hash,
		Role:       cmd.Role,
		SectorID:   sector.ID,
		FunctionID: cmd.FunctionID,
		Status:     domain.AccountStatusActive,
		CreatedBy:  caller.AccountID,
	}, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		s.logger.ErrorContext(ctx, "failed to create account", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	action := audit.ActionCoordinatorCreated
	if a.Role == domain.RoleMaster {
		action = audit.ActionAccountCreated
	}
	s.metrics.IncRegistration("created_direct")
	s.record(ctx, caller, action, map[string]any{
		"account_id":  int64(a.ID),
		"email":       a.Email,
		"role":        string(a.Role),
		"sector_id":   int64(sector.ID),
		"sector_code": sector.Code,
	})
	return &SubmitResult{AccountID: a.ID}, nil
}
