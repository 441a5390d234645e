// Package service runs the registration workflow: nominations, direct
// staff creation, approval and rejection of requests, and the resolution of
// self-registered accounts.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/platform/metrics"
	"govportal/internal/registration/models"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

var tracer = otel.Tracer("govportal/internal/registration")

type RequestStore interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, id domain.RequestID) (*models.Request, error)
	FindForUpdate(ctx context.Context, id domain.RequestID) (*models.Request, error)
	MarkApproved(ctx context.Context, id domain.RequestID, accountID, by domain.AccountID, now time.Time) error
	RejectIf(ctx context.Context, id domain.RequestID, by domain.AccountID, reason string, now time.Time) error
	ListPending(ctx context.Context, sector domain.SectorID) ([]*models.Request, error)
	PendingEmailExists(ctx context.Context, email string) (bool, error)
}

type AccountStore interface {
	Create(ctx context.Context, a *accountmodels.Account) error
	FindByID(ctx context.Context, id domain.AccountID) (*accountmodels.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateStatusIf(ctx context.Context, id domain.AccountID, from, to domain.AccountStatus, now time.Time) error
}

type SectorLookup interface {
	FindByCode(ctx context.Context, code string) (*accountmodels.Sector, error)
}

type FunctionLookup interface {
	FindByID(ctx context.Context, id domain.FunctionID) (*accountmodels.Function, error)
}

// Enforcer gates an operation and audits denials. *authz.Enforcer satisfies it.
type Enforcer interface {
	Check(ctx context.Context, p requestcontext.AuthPrincipal, resourceSector domain.SectorID, required ...domain.Role) error
	SectorScope(ctx context.Context, p requestcontext.AuthPrincipal) (domain.SectorID, error)
}

// Ledger is the audit surface the workflow needs. *audit.Ledger satisfies it.
type Ledger interface {
	Record(ctx context.Context, e audit.Entry)
	RecordTx(ctx context.Context, appender audit.Appender, e audit.Entry) (audit.Record, error)
	Committed(ctx context.Context, rec audit.Record)
}

type Hasher interface {
	Hash(secret string) (string, error)
}

// TxRunner runs fn in one transaction carried by the context passed to fn.
// An error from fn rolls everything back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores groups the persistence the workflow writes through. Audit must
// join the transaction carried by the context.
type Stores struct {
	Requests  RequestStore
	Accounts  AccountStore
	Sectors   SectorLookup
	Functions FunctionLookup
	Audit     audit.Appender
}

type Service struct {
	requests  RequestStore
	accounts  AccountStore
	sectors   SectorLookup
	functions FunctionLookup
	appender  audit.Appender
	tx        TxRunner
	enforcer  Enforcer
	ledger    Ledger
	hasher    Hasher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(stores Stores, tx TxRunner, enforcer Enforcer, ledger Ledger, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		requests:  stores.Requests,
		accounts:  stores.Accounts,
		sectors:   stores.Sectors,
		functions: stores.Functions,
		appender:  stores.Audit,
		tx:        tx,
		enforcer:  enforcer,
		ledger:    ledger,
		hasher:    hasher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) sectorByCode(ctx context.Context, code string) (*accountmodels.Sector, error) {
	code = accountmodels.NormalizeSectorCode(code)
	if code == "" {
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

// ensureEmailAvailable checks accounts and pending requests.
func (s *Service) ensureEmailAvailable(ctx context.Context, email string) error {
	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if !exists {
		if exists, err = s.requests.PendingEmailExists(ctx, email); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
		}
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	}
	return nil
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

func (s *Service) loadRequest(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration request")
	}
	return req, nil
}

func (s *Service) loadAccount(ctx context.Context, id domain.AccountID) (*accountmodels.Account, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return a, nil
}

func (s *Service) record(ctx context.Context, caller requestcontext.AuthPrincipal, action audit.Action, detail map[string]any) {
	s.ledger.Record(ctx, audit.Entry{
		ActorID:  caller.AccountID,
		SectorID: caller.SectorID,
		Action:   action,
		Detail:   detail,
	})
}

// asDomain keeps domain errors and wraps anything else as internal.
func asDomain(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
