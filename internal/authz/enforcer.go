package authz

import (
	"context"
	"log/slog"

	"govportal/internal/audit"
	"govportal/internal/platform/metrics"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

// Recorder receives denial records. *audit.Ledger satisfies it.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Enforcer evaluates the policy for a principal and reports every denial to
// the audit ledger exactly once.
type Enforcer struct {
	recorder Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type EnforcerOption func(*Enforcer)

func WithLogger(logger *slog.Logger) EnforcerOption {
	return func(e *Enforcer) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) EnforcerOption {
	return func(e *Enforcer) { e.metrics = m }
}

func NewEnforcer(recorder Recorder, opts ...EnforcerOption) *Enforcer {
	e := &Enforcer{recorder: recorder, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CallerOf projects a session principal onto the policy input.
func CallerOf(p requestcontext.AuthPrincipal) Caller {
	return Caller{Role: p.Role, SectorID: p.SectorID}
}

// Check returns nil when p may act on a resource in resourceSector. On denial
// it writes one access_denied record and returns a 403-class domain error
// whose code is the denial reason.
func (e *Enforcer) Check(ctx context.Context, p requestcontext.AuthPrincipal, resourceSector domain.SectorID, required ...domain.Role) error {
	d := Authorize(CallerOf(p), resourceSector, required...)
	if d.Allowed {
		return nil
	}
	return e.deny(ctx, p, resourceSector, d.Reason, required)
}

// SectorScope returns the sector a principal's listings are confined to: zero
// for master, the caller's own sector for everyone else. A non-master
// principal without a sector is denied like any other cross-sector access.
func (e *Enforcer) SectorScope(ctx context.Context, p requestcontext.AuthPrincipal) (domain.SectorID, error) {
	if p.Role == domain.RoleMaster {
		return 0, nil
	}
	if p.SectorID.IsZero() {
		return 0, e.deny(ctx, p, 0, ReasonCrossSector, nil)
	}
	return p.SectorID, nil
}

func (e *Enforcer) deny(ctx context.Context, p requestcontext.AuthPrincipal, resourceSector domain.SectorID, reason Reason, required []domain.Role) error {
	route := requestcontext.Route(ctx)
	e.metrics.IncDenial(string(reason))
	e.logger.WarnContext(ctx, "access denied",
		"reason", string(reason),
		"account_id", int64(p.AccountID),
		"role", string(p.Role),
		"caller_sector", int64(p.SectorID),
		"resource_sector", int64(resourceSector),
		"route", route,
		"request_id", requestcontext.RequestID(ctx),
	)

	roles := make([]string, len(required))
	for i, r := range required {
		roles[i] = string(r)
	}
	detail := map[string]any{
		"reason":         string(reason),
		"route":          route,
		"caller_role":    string(p.Role),
		"caller_sector":  int64(p.SectorID),
		"required_roles": roles,
	}
	if !resourceSector.IsZero() {
		detail["resource_sector"] = int64(resourceSector)
	}
	e.recorder.Record(ctx, audit.Entry{
		ActorID:  p.AccountID,
		SectorID: p.SectorID,
		Action:   audit.ActionAccessDenied,
		Detail:   detail,
	})

	if reason == ReasonCrossSector {
		return dErrors.New(dErrors.CodeCrossSectorDenied, "resource belongs to another sector")
	}
	return dErrors.New(dErrors.CodeRoleNotPermitted, "role not permitted for this operation")
}
