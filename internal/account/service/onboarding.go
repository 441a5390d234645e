package service

import (
	"context"
	"errors"

	"govportal/internal/audit"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

// CompleteOnboarding is the single trigger that moves an approved account
// from active_pending_onboarding to active. Repeating it on an active account
// is a no-op; any other status is a conflict.
func (s *Service) CompleteOnboarding(ctx context.Context, id domain.AccountID) error {
	now := requestcontext.Now(ctx)
	err := s.accounts.UpdateStatusIf(ctx, id, domain.AccountStatusActivePendingOnboarding, domain.AccountStatusActive, now)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		a, loadErr := s.loadAccount(ctx, id)
		if loadErr != nil {
			return loadErr
		}
		if a.Status == domain.AccountStatusActive {
			return nil
		}
		return dErrors.New(dErrors.CodeConflict, "account is not awaiting onboarding")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete onboarding")
	}

	a, err := s.loadAccount(ctx, id)
	if err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:  a.ID,
		SectorID: a.SectorID,
		Action:   audit.ActionOnboardingCompleted,
		Detail:   map[string]any{"account_id": int64(a.ID)},
	})
	s.logger.InfoContext(ctx, "onboarding completed", "account_id", int64(a.ID))
	return nil
}
