// Package service authenticates accounts and manages their session tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"govportal/internal/account/models"
	"govportal/internal/audit"
	"govportal/internal/platform/metrics"
	"govportal/internal/session/token"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/email"
	"govportal/pkg/platform/sentinel"
	"govportal/pkg/requestcontext"
)

var tracer = otel.Tracer("govportal/internal/session")

// denialForeignToken is the access_denied reason for presenting a refresh
// token issued to someone else.
const denialForeignToken = "foreign_refresh_token"

// AccountReader is the read side of the credential store.
type AccountReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error)
}

// Verifier compares secrets against stored hashes. *secrets.Hasher satisfies it.
type Verifier interface {
	Verify(secret, hash string) (bool, error)
	Burn(secret string)
}

// TokenIssuer mints and parses session tokens. *token.Service satisfies it.
type TokenIssuer interface {
	IssueAccess(subj token.Subject, now time.Time) (string, *token.Claims, error)
	IssueRefresh(accountID domain.AccountID, now time.Time) (string, *token.RefreshClaims, error)
	ParseAccess(raw string) (*token.Claims, error)
	ParseRefresh(raw string) (*token.RefreshClaims, error)
	AccessTTL() time.Duration
}

// RevocationList tracks refresh tokens ended by logout.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Session is what a successful login or refresh hands back.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	Claims       *token.Claims
}

type Service struct {
	accounts    AccountReader
	verifier    Verifier
	tokens      TokenIssuer
	revocations RevocationList
	auditor     AuditRecorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(
	accounts AccountReader,
	verifier Verifier,
	tokens TokenIssuer,
	revocations RevocationList,
	auditor AuditRecorder,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:    accounts,
		verifier:    verifier,
		tokens:      tokens,
		revocations: revocations,
		auditor:     auditor,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate checks credentials and opens a session.
//
// The checks run in a fixed order: unknown email, then account status, then
// the secret. Each failure writes one audit record. An unknown email still
// spends one hash comparison so timing does not reveal which addresses exist.
func (s *Service) Authenticate(ctx context.Context, rawEmail, secret string) (_ *Session, err error) {
	ctx, span := tracer.Start(ctx, "session.authenticate")
	defer func() { endSpan(span, err) }()

	addr := email.Normalize(rawEmail)
	if addr == "" || secret == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and secret are required")
	}

	acct, err := s.accounts.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.verifier.Burn(secret)
			s.metrics.IncLogin("unknown_email")
			s.auditor.Record(ctx, audit.Entry{
				Action: audit.ActionLoginUnknownEmail,
				Detail: map[string]any{"email": addr},
			})
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
		}
		s.logger.ErrorContext(ctx, "failed to load account for login", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to authenticate")
	}
	span.SetAttributes(attribute.Int64("account.id", int64(acct.ID)))

	if !acct.Status.CanAuthenticate() {
		s.metrics.IncLogin("account_not_active")
		s.auditor.Record(ctx, audit.Entry{
			ActorID:  acct.ID,
			SectorID: acct.SectorID,
			Action:   audit.ActionLoginAccountNotActive,
			Detail:   map[string]any{"email": addr, "status": string(acct.Status)},
		})
		return nil, dErrors.New(dErrors.CodeAccountNotActive, fmt.Sprintf("access denied: account status is %s", acct.Status))
	}

	ok, err := s.verifier.Verify(secret, acct.SecretHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to verify secret", "error", err, "account_id", int64(acct.ID))
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to authenticate")
	}
	if !ok {
		s.metrics.IncLogin("bad_secret")
		s.auditor.Record(ctx, audit.Entry{
			ActorID:  acct.ID,
			SectorID: acct.SectorID,
			Action:   audit.ActionLoginBadSecret,
			Detail:   map[string]any{"email": addr},
		})
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials")
	}

	sess, err := s.issue(ctx, acct, true)
	if err != nil {
		return nil, err
	}
	s.metrics.IncLogin("success")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:  acct.ID,
		SectorID: acct.SectorID,
		Action:   audit.ActionLoginSuccess,
	})
	return sess, nil
}

// Validate decodes an access token without touching the credential store.
func (s *Service) Validate(_ context.Context, raw string) (requestcontext.AuthPrincipal, error) {
	claims, err := s.tokens.ParseAccess(raw)
	if err != nil {
		return requestcontext.AuthPrincipal{}, err
	}
	return claims.Principal(), nil
}

// Refresh mints a new access token from a refresh token after re-reading the
// account, so deactivation and role changes apply from the next refresh.
func (s *Service) Refresh(ctx context.Context, raw string) (_ *Session, err error) {
	ctx, span := tracer.Start(ctx, "session.refresh")
	defer func() { endSpan(span, err) }()

	rc, err := s.tokens.ParseRefresh(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, rc.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check refresh revocation", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh session")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "refresh token has been revoked")
	}

	acct, err := s.accounts.FindByID(ctx, rc.AccountID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to load account for refresh", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh session")
	}
	if acct == nil || !acct.Status.CanAuthenticate() {
		entry := audit.Entry{
			Action: audit.ActionRefreshAccountNotActive,
			Detail: map[string]any{"account_id": int64(rc.AccountID)},
		}
		if acct != nil {
			entry.ActorID = acct.ID
			entry.SectorID = acct.SectorID
			entry.Detail["status"] = string(acct.Status)
		}
		s.auditor.Record(ctx, entry)
		return nil, dErrors.New(dErrors.CodeAccountNotActive, "account not found or not active")
	}

	return s.issue(ctx, acct, false)
}

// Logout revokes the caller's refresh token until it would have expired. An
// already expired token needs no revocation.
func (s *Service) Logout(ctx context.Context, caller requestcontext.AuthPrincipal, raw string) error {
	rc, err := s.tokens.ParseRefresh(raw)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTokenExpired) {
			return nil
		}
		return err
	}
	if rc.AccountID != caller.AccountID {
		s.metrics.IncDenial(denialForeignToken)
		s.logger.WarnContext(ctx, "logout with another account's refresh token",
			"account_id", int64(caller.AccountID),
			"token_account_id", int64(rc.AccountID),
		)
		s.auditor.Record(ctx, audit.Entry{
			ActorID:  caller.AccountID,
			SectorID: caller.SectorID,
			Action:   audit.ActionAccessDenied,
			Detail: map[string]any{
				"reason":           denialForeignToken,
				"route":            requestcontext.Route(ctx),
				"token_account_id": int64(rc.AccountID),
			},
		})
		return dErrors.New(dErrors.CodeForbidden, "refresh token belongs to another account")
	}

	ttl := rc.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, rc.ID, ttl); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh token", "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:  caller.AccountID,
		SectorID: caller.SectorID,
		Action:   audit.ActionLogout,
	})
	return nil
}

func (s *Service) issue(ctx context.Context, acct *models.Account, withRefresh bool) (*Session, error) {
	now := requestcontext.Now(ctx)
	access, claims, err := s.tokens.IssueAccess(token.Subject{
		AccountID:  acct.ID,
		Name:       acct.Name,
		Role:       acct.Role,
		SectorID:   acct.SectorID,
		SectorName: acct.SectorName,
		SectorCode: acct.SectorCode,
	}, now)
	if err != nil {
		return nil, err
	}
	sess := &Session{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   s.tokens.AccessTTL(),
		Claims:      claims,
	}
	if withRefresh {
		refresh, _, err := s.tokens.IssueRefresh(acct.ID, now)
		if err != nil {
			return nil, err
		}
		sess.RefreshToken = refresh
	}
	return sess, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
