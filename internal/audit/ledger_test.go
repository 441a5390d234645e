package audit_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"govportal/internal/audit"
	"govportal/internal/audit/store/memory"
	"govportal/internal/platform/metrics"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

type failingStore struct {
	*memory.InMemoryStore
	err error
}

func (f failingStore) Append(context.Context, *audit.Record) error { return f.err }

type recordingForwarder struct{ got []audit.Record }

func (r *recordingForwarder) Forward(_ context.Context, rec audit.Record) { r.got = append(r.got, rec) }

type LedgerSuite struct {
	suite.Suite
	store   *memory.InMemoryStore
	ledger  *audit.Ledger
	logs    *bytes.Buffer
	metrics *metrics.Metrics
	fwd     *recordingForwarder
	ctx     context.Context
	now     time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.store = memory.NewInMemoryStore()
	s.logs = &bytes.Buffer{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.fwd = &recordingForwarder{}
	s.ledger = audit.New(s.store,
		audit.WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
		audit.WithMetrics(s.metrics),
		audit.WithForwarder(s.fwd),
	)
	s.now = time.Date(2026, 5, 4, 9, 30, 0, 123456789, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithRequestID(s.ctx, "req-1")
	s.ctx = requestcontext.WithClientMetadata(s.ctx, "203.0.113.5",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
}

func (s *LedgerSuite) TestRecord() {
	s.Run("stores attributed record with enrichment", func() {
		s.ledger.Record(s.ctx, audit.Entry{
			ActorID:  4,
			SectorID: 2,
			Action:   audit.ActionRegistrationSubmitted,
			Detail:   map[string]any{"request_id": 10},
		})

		recs, err := s.store.Query(context.Background(), audit.Filter{})
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		rec := recs[0]
		s.Equal(domain.AccountID(4), *rec.ActorID)
		s.Equal(domain.SectorID(2), *rec.SectorID)
		s.Equal(s.now.Truncate(time.Microsecond), rec.Timestamp)
		s.Equal(10, rec.Detail["request_id"], "caller keys are not overwritten")
		s.Equal("203.0.113.5", rec.Detail["ip"])
		s.Contains(rec.Detail["browser"], "Chrome")
		s.Equal("Windows 10", rec.Detail["os"])
		s.Len(s.fwd.got, 1)
	})

	s.Run("pre-authentication events have no actor or sector", func() {
		s.ledger.Record(s.ctx, audit.Entry{Action: audit.ActionLoginUnknownEmail})
		recs, err := s.store.Query(context.Background(), audit.Filter{ActionLike: "unknown_email"})
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		s.Nil(recs[0].ActorID)
		s.Nil(recs[0].SectorID)
	})

	s.Run("survives a cancelled request context", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		s.ledger.Record(ctx, audit.Entry{Action: audit.ActionLogout, ActorID: 4})
		recs, err := s.store.Query(context.Background(), audit.Filter{ActionLike: "logout"})
		s.Require().NoError(err)
		s.Len(recs, 1)
	})
}

func (s *LedgerSuite) TestRecordFallsBackToProcessLog() {
	ledger := audit.New(failingStore{InMemoryStore: s.store, err: errors.New("disk full")},
		audit.WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
		audit.WithMetrics(s.metrics),
		audit.WithForwarder(s.fwd),
	)

	s.NotPanics(func() {
		ledger.Record(s.ctx, audit.Entry{ActorID: 1, Action: audit.ActionSecretReset})
	})
	s.Contains(s.logs.String(), `"msg":"audit_fallback"`)
	s.Contains(s.logs.String(), "secret_reset")
	s.Contains(s.logs.String(), "disk full")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuditWriteFailures))
	s.Empty(s.fwd.got, "unstored records are not forwarded")
}

func (s *LedgerSuite) TestRecordTxIsFailClosed() {
	s.Run("returns append error", func() {
		_, err := s.ledger.RecordTx(s.ctx, failingStore{err: errors.New("tx aborted")}, audit.Entry{Action: audit.ActionRegistrationApproved})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("forwards only after commit", func() {
		rec, err := s.ledger.RecordTx(s.ctx, s.store, audit.Entry{ActorID: 1, Action: audit.ActionRegistrationApproved})
		s.Require().NoError(err)
		s.NotZero(rec.ID)
		s.Empty(s.fwd.got)

		s.ledger.Committed(s.ctx, rec)
		s.Require().Len(s.fwd.got, 1)
		s.Equal(rec.ID, s.fwd.got[0].ID)
	})
}

func (s *LedgerSuite) seedSectors() {
	for _, e := range []audit.Entry{
		{ActorID: 1, SectorID: 10, Action: audit.ActionLoginSuccess},
		{ActorID: 2, SectorID: 20, Action: audit.ActionLoginSuccess},
		{ActorID: 3, SectorID: 10, Action: audit.ActionRegistrationRejected},
		{Action: audit.ActionLoginUnknownEmail},
	} {
		s.ledger.Record(s.ctx, e)
	}
}

func (s *LedgerSuite) lastDenial(actor domain.AccountID) audit.Record {
	recs, err := s.store.Query(context.Background(), audit.Filter{ActorID: actor, ActionLike: string(audit.ActionAccessDenied)})
	s.Require().NoError(err)
	s.Require().NotEmpty(recs)
	return recs[0]
}

func (s *LedgerSuite) TestQueryScoping() {
	s.seedSectors()
	master := requestcontext.AuthPrincipal{AccountID: 99, Role: domain.RoleMaster, SectorID: 20}
	coordinator := requestcontext.AuthPrincipal{AccountID: 3, Role: domain.RoleCoordinator, SectorID: 10}
	member := requestcontext.AuthPrincipal{AccountID: 1, Role: domain.RoleMember, SectorID: 10}

	s.Run("master sees every record", func() {
		recs, err := s.ledger.Query(s.ctx, master, audit.Filter{})
		s.Require().NoError(err)
		s.Len(recs, 4)
	})

	s.Run("coordinator is pinned to own sector even when asking for another", func() {
		recs, err := s.ledger.Query(s.ctx, coordinator, audit.Filter{SectorID: 20})
		s.Require().NoError(err)
		s.Len(recs, 2)
		for _, r := range recs {
			s.Equal(domain.SectorID(10), *r.SectorID)
		}
	})

	s.Run("scope applies before other filters", func() {
		recs, err := s.ledger.Query(s.ctx, coordinator, audit.Filter{ActorID: 2})
		s.Require().NoError(err)
		s.Empty(recs)
	})

	s.Run("member is refused", func() {
		_, err := s.ledger.Query(s.ctx, member, audit.Filter{})
		s.True(dErrors.HasCode(err, dErrors.CodeRoleNotPermitted))
		s.Equal("role_not_permitted", s.lastDenial(1).Detail["reason"])
	})

	s.Run("coordinator without sector is refused and audited", func() {
		orphan := requestcontext.AuthPrincipal{AccountID: 4, Role: domain.RoleCoordinator}
		_, err := s.ledger.Query(requestcontext.WithRoute(s.ctx, "GET /audit"), orphan, audit.Filter{})
		s.True(dErrors.HasCode(err, dErrors.CodeCrossSectorDenied))

		denial := s.lastDenial(4)
		s.Equal("cross_sector_denied", denial.Detail["reason"])
		s.Equal("GET /audit", denial.Detail["route"])
	})

	s.Run("inverted date range is a validation error", func() {
		_, err := s.ledger.Query(s.ctx, master, audit.Filter{From: s.now, Until: s.now.Add(-time.Hour)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LedgerSuite) TestExport() {
	s.seedSectors()
	coordinator := requestcontext.AuthPrincipal{AccountID: 3, Role: domain.RoleCoordinator, SectorID: 10}

	var buf bytes.Buffer
	n, err := s.ledger.Export(s.ctx, coordinator, audit.Filter{}, &buf)
	s.Require().NoError(err)
	s.Equal(2, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal([]string{"id", "timestamp", "actor_id", "actor_name", "action", "sector_code", "detail"}, rows[0])

	exported, err := s.store.Query(context.Background(), audit.Filter{ActionLike: string(audit.ActionAuditExported)})
	s.Require().NoError(err)
	s.Len(exported, 1, "exports are themselves audited")
}
