package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/authz"
	"govportal/internal/registration/models"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// Approve turns a pending request into an account.
//
// The locking re-read, the account insert, the conditional request update
// and the registration_approved record commit together or not at all. A
// losing racer sees already_processed. Any other failure leaves an
// approval_failed record written outside the rolled-back transaction.
func (s *Service) Approve(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.RequestID) (_ *accountmodels.Account, err error) {
	ctx, span := tracer.Start(ctx, "registration.approve",
		trace.WithAttributes(attribute.Int64("request.id", int64(id))))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveApprove(time.Now())

	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.enforcer.Check(ctx, caller, req.SectorID, authz.Staff...); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var (
		created *accountmodels.Account
		rec     audit.Record
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.requests.FindForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "registration request not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock registration request")
		}
		if err := locked.CanResolve(); err != nil {
			return err
		}

		a, err := accountmodels.NewAccount(locked.AccountParams(caller.AccountID), now)
		if err != nil {
			return err
		}
		if err := s.accounts.Create(ctx, a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "email already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
		}
		if err := locked.ApplyApproval(a.ID, caller.AccountID, now); err != nil {
			return err
		}
		if err := s.requests.MarkApproved(ctx, id, a.ID, caller.AccountID, now); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrInvalidState):
				return dErrors.New(dErrors.CodeAlreadyProcessed, "registration request already processed")
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "registration request not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration request")
		}

		rec, err = s.ledger.RecordTx(ctx, s.appender, audit.Entry{
			ActorID:  caller.AccountID,
			SectorID: caller.SectorID,
			Action:   audit.ActionRegistrationApproved,
			Detail: map[string]any{
				"request_id": int64(id),
				"account_id": int64(a.ID),
				"email":      a.Email,
				"role":       string(a.Role),
				"sector_id":  int64(a.SectorID),
			},
		})
		if err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		err = asDomain(err, "failed to approve registration")
		if !dErrors.HasCode(err, dErrors.CodeNotFound) && !dErrors.HasCode(err, dErrors.CodeAlreadyProcessed) {
			s.logger.ErrorContext(ctx, "registration approval rolled back", "error", err, "request_id", int64(id))
			s.metrics.IncRegistration("approval_failed")
			s.record(ctx, caller, audit.ActionApprovalFailed, map[string]any{
				"request_id": int64(id),
				"error":      string(dErrors.CodeOf(err)),
			})
		}
		return nil, err
	}

	s.ledger.Committed(ctx, rec)
	s.metrics.IncRegistration("approved")
	span.SetAttributes(attribute.Int64("account.id", int64(created.ID)))
	return created, nil
}

// Reject closes a pending request with a single conditional update. A
// losing racer sees already_processed.
func (s *Service) Reject(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.RequestID, reason string) (err error) {
	ctx, span := tracer.Start(ctx, "registration.reject",
		trace.WithAttributes(attribute.Int64("request.id", int64(id))))
	defer func() { endSpan(span, err) }()

	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return err
	}
	if err := s.enforcer.Check(ctx, caller, req.SectorID, authz.Staff...); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	if err := req.ApplyRejection(caller.AccountID, reason, now); err != nil {
		return err
	}
	if err := s.requests.RejectIf(ctx, id, caller.AccountID, req.Reason, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeAlreadyProcessed, "registration request already processed")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "registration request not found")
		}
		s.logger.ErrorContext(ctx, "failed to reject registration request", "error", err, "request_id", int64(id))
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject registration")
	}

	detail := map[string]any{
		"request_id": int64(id),
		"email":      req.Email,
		"sector_id":  int64(req.SectorID),
	}
	if req.Reason != "" {
		detail["reason"] = req.Reason
	}
	s.metrics.IncRegistration("rejected")
	s.record(ctx, caller, audit.ActionRegistrationRejected, detail)
	return nil
}

// ListPending returns pending requests newest first. Coordinators only see
// their own sector.
func (s *Service) ListPending(ctx context.Context, caller requestcontext.AuthPrincipal) ([]*models.Request, error) {
	if err := s.enforcer.Check(ctx, caller, 0, authz.Staff...); err != nil {
		return nil, err
	}
	sector, err := s.enforcer.SectorScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	out, err := s.requests.ListPending(ctx, sector)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list pending requests", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return out, nil
}
