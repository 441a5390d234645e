// Package service implements account administration, onboarding completion
// and the sector and function reference data.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/authz"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.Account, error)
	Update(ctx context.Context, a *models.Account) error
	UpdateStatusIf(ctx context.Context, id domain.AccountID, from, to domain.AccountStatus, now time.Time) error
	UpdateSecret(ctx context.Context, id domain.AccountID, hash string, now time.Time) error
	Delete(ctx context.Context, id domain.AccountID) error
	CountBySector(ctx context.Context, id domain.SectorID) (int, error)
	CountByFunction(ctx context.Context, id domain.FunctionID) (int, error)
	CountCreatedBy(ctx context.Context, id domain.AccountID) (int, error)
	HasMaster(ctx context.Context) (bool, error)
}

type SectorStore interface {
	Create(ctx context.Context, s *models.Sector) error
	FindByID(ctx context.Context, id domain.SectorID) (*models.Sector, error)
	FindByCode(ctx context.Context, code string) (*models.Sector, error)
	List(ctx context.Context) ([]*models.Sector, error)
	Update(ctx context.Context, s *models.Sector) error
	Delete(ctx context.Context, id domain.SectorID) error
}

type FunctionStore interface {
	Create(ctx context.Context, f *models.Function) error
	FindByID(ctx context.Context, id domain.FunctionID) (*models.Function, error)
	List(ctx context.Context) ([]*models.Function, error)
	Delete(ctx context.Context, id domain.FunctionID) error
}

// Enforcer gates an operation and audits denials. *authz.Enforcer satisfies it.
type Enforcer interface {
	Check(ctx context.Context, p requestcontext.AuthPrincipal, resourceSector domain.SectorID, required ...domain.Role) error
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

type Hasher interface {
	Hash(secret string) (string, error)
}

// DependentCounter reports how many rows outside this package reference an
// account. Any positive count blocks deletion.
type DependentCounter interface {
	CountByAccount(ctx context.Context, id domain.AccountID) (int, error)
}

// PendingEmails reports whether an address is held by a pending registration request.
type PendingEmails interface {
	PendingEmailExists(ctx context.Context, email string) (bool, error)
}

// Service orchestrates account administration.
type Service struct {
	accounts   AccountStore
	sectors    SectorStore
	functions  FunctionStore
	enforcer   Enforcer
	auditor    AuditRecorder
	hasher     Hasher
	dependents []DependentCounter
	pending    PendingEmails
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithDependents registers counters consulted before deleting an account.
func WithDependents(counters ...DependentCounter) Option {
	return func(s *Service) { s.dependents = append(s.dependents, counters...) }
}

func WithPendingEmails(p PendingEmails) Option {
	return func(s *Service) { s.pending = p }
}

func New(
	accounts AccountStore,
	sectors SectorStore,
	functions FunctionStore,
	enforcer Enforcer,
	auditor AuditRecorder,
	hasher Hasher,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:  accounts,
		sectors:   sectors,
		functions: functions,
		enforcer:  enforcer,
		auditor:   auditor,
		hasher:    hasher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadAccount translates store misses into not_found.
func (s *Service) loadAccount(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return a, nil
}

// gateTarget applies the role and sector gates for acting on an existing account.
func (s *Service) gateTarget(ctx context.Context, caller requestcontext.AuthPrincipal, target *models.Account) error {
	return s.enforcer.Check(ctx, caller, target.SectorID, authz.TargetGate(target.Role)...)
}

func (s *Service) requireSector(ctx context.Context, id domain.SectorID) (*models.Sector, error) {
	sector, err := s.sectors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "sector not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sector")
	}
	return sector, nil
}

func (s *Service) requireFunction(ctx context.Context, id domain.FunctionID) error {
	if id.IsZero() {
		return nil
	}
	if _, err := s.functions.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "function not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load function")
	}
	return nil
}

// ensureEmailAvailable checks accounts and pending registration requests.
func (s *Service) ensureEmailAvailable(ctx context.Context, email string) error {
	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if !exists && s.pending != nil {
		exists, err = s.pending.PendingEmailExists(ctx, email)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
		}
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	}
	return nil
}

func (s *Service) record(ctx context.Context, caller requestcontext.AuthPrincipal, action audit.Action, detail map[string]any) {
	s.auditor.Record(ctx, audit.Entry{
		ActorID:  caller.AccountID,
		SectorID: caller.SectorID,
		Action:   action,
		Detail:   detail,
	})
}
