// Package audit is the append-only ledger of security-relevant actions.
//
// Two write paths exist. Record is fire-and-forget: a failed write is logged
// to the process log and never fails the operation it describes. RecordTx is
// fail-closed and joins the caller's transaction, for transitions where a
// missing audit row is worse than a failed operation.
package audit

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"govportal/internal/platform/metrics"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

const (
	defaultWriteTimeout = 2 * time.Second
	defaultQueryLimit   = 500
	maxQueryLimit       = 5000
)

// Ledger writes and reads audit records.
type Ledger struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	forwarder    Forwarder
	writeTimeout time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithForwarder streams every stored record to f after it is durable.
func WithForwarder(f Forwarder) Option {
	return func(l *Ledger) { l.forwarder = f }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.writeTimeout = d
		}
	}
}

// New creates a Ledger over store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:        store,
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record stores e without reporting failure. The write runs on a context
// detached from request cancellation, bounded by the write timeout, so an
// aborted request still leaves its trail.
func (l *Ledger) Record(ctx context.Context, e Entry) {
	rec := l.build(ctx, e)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.writeTimeout)
	defer cancel()

	if err := l.store.Append(writeCtx, &rec); err != nil {
		l.metrics.IncAuditFallback()
		l.logger.ErrorContext(ctx, "audit_fallback",
			"error", err,
			"action", string(rec.Action),
			"actor_id", rec.ActorID,
			"sector_id", rec.SectorID,
			"timestamp", rec.Timestamp,
			"detail", rec.Detail,
		)
		return
	}
	l.stored(ctx, rec)
}

// RecordTx stores e through appender, which must be bound to the caller's
// transaction. The error is returned so the caller rolls back. The record is
// not forwarded; call Committed once the transaction is durable.
func (l *Ledger) RecordTx(ctx context.Context, appender Appender, e Entry) (Record, error) {
	rec := l.build(ctx, e)
	if err := appender.Append(ctx, &rec); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit record")
	}
	return rec, nil
}

// Committed publishes a record written by RecordTx after its transaction committed.
func (l *Ledger) Committed(ctx context.Context, rec Record) {
	l.stored(ctx, rec)
}

func (l *Ledger) stored(ctx context.Context, rec Record) {
	l.metrics.IncAuditWrite(string(rec.Action))
	if l.forwarder != nil {
		l.forwarder.Forward(context.WithoutCancel(ctx), rec)
	}
}

func (l *Ledger) build(ctx context.Context, e Entry) Record {
	rec := Record{
		Action:    e.Action,
		Timestamp: requestcontext.Now(ctx).UTC().Truncate(time.Microsecond),
		Detail:    make(map[string]any, len(e.Detail)+4),
	}
	if !e.ActorID.IsZero() {
		actor := e.ActorID
		rec.ActorID = &actor
	}
	if !e.SectorID.IsZero() {
		sector := e.SectorID
		rec.SectorID = &sector
	}
	maps.Copy(rec.Detail, e.Detail)
	enrich(ctx, rec.Detail)
	return rec
}

// Query returns records visible to caller, newest first. A Coordinator only
// ever sees its own sector; the scope is fixed before any other filter.
func (l *Ledger) Query(ctx context.Context, caller requestcontext.AuthPrincipal, f Filter) ([]Record, error) {
	scoped, err := l.scope(ctx, caller, f)
	if err != nil {
		return nil, err
	}
	records, err := l.store.Query(ctx, scoped)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to query audit records", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit records")
	}
	return records, nil
}

// recordDenial writes the access_denied row for a refused ledger read.
func (l *Ledger) recordDenial(ctx context.Context, caller requestcontext.AuthPrincipal, reason dErrors.Code) {
	l.logger.WarnContext(ctx, "audit query denied",
		"reason", string(reason),
		"account_id", int64(caller.AccountID),
		"role", string(caller.Role),
	)
	l.Record(ctx, Entry{
		ActorID:  caller.AccountID,
		SectorID: caller.SectorID,
		Action:   ActionAccessDenied,
		Detail: map[string]any{
			"reason":        string(reason),
			"route":         requestcontext.Route(ctx),
			"caller_role":   string(caller.Role),
			"caller_sector": int64(caller.SectorID),
		},
	})
}

func (l *Ledger) scope(ctx context.Context, caller requestcontext.AuthPrincipal, f Filter) (Filter, error) {
	switch caller.Role {
	case domain.RoleMaster:
		f.SectorID = 0
	case domain.RoleCoordinator:
		if caller.SectorID.IsZero() {
			l.recordDenial(ctx, caller, dErrors.CodeCrossSectorDenied)
			return Filter{}, dErrors.New(dErrors.CodeCrossSectorDenied, "coordinator has no sector")
		}
		f.SectorID = caller.SectorID
	default:
		l.recordDenial(ctx, caller, dErrors.CodeRoleNotPermitted)
		return Filter{}, dErrors.New(dErrors.CodeRoleNotPermitted, "audit access requires master or coordinator role")
	}

	if !f.From.IsZero() && !f.Until.IsZero() && !f.Until.After(f.From) {
		return Filter{}, dErrors.New(dErrors.CodeValidation, "date range is empty")
	}
	if f.Limit <= 0 {
		f.Limit = defaultQueryLimit
	}
	if f.Limit > maxQueryLimit {
		f.Limit = maxQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}
