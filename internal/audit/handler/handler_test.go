package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Ledger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"govportal/internal/audit"
	"govportal/internal/audit/handler/mocks"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
	"govportal/pkg/testutil"
)

type AuditHandlerSuite struct {
	suite.Suite
	ledger *mocks.MockLedger
	router chi.Router
	caller requestcontext.AuthPrincipal
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuditHandlerSuite))
}

func (s *AuditHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ledger = mocks.NewMockLedger(ctrl)
	s.caller = requestcontext.AuthPrincipal{AccountID: 1, Role: domain.RoleMaster, SectorID: 1, SectorCode: "ADM"}

	h := New(s.ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC))
			if r.Header.Get("Authorization") != "" {
				ctx = requestcontext.WithPrincipal(ctx, s.caller)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.Register(s.router)
}

func (s *AuditHandlerSuite) get(path string, authed bool) *httptest.ResponseRecorder {
	return testutil.Serve(s.router, http.MethodGet, path, "", authed)
}

func (s *AuditHandlerSuite) TestQueryPassesFilter() {
	actor := domain.AccountID(4)
	s.ledger.EXPECT().Query(gomock.Any(), s.caller, audit.Filter{
		ActorID:    4,
		ActionLike: "login",
		From:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Until:      time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Limit:      20,
		Offset:     40,
	}).Return([]audit.Record{{ID: 7, ActorID: &actor, Action: audit.ActionLoginSuccess, ActorName: "Ana"}}, nil)

	w := s.get("/audit?date_from=2026-05-01&date_to=2026-05-03&action=login&actor_id=4&limit=20&offset=40", true)

	s.Require().Equal(http.StatusOK, w.Code)
	resp := testutil.Decode[QueryResponse](s.T(), w)
	s.Equal(1, resp.Count)
	s.Equal("Ana", resp.Records[0].ActorName)
}

func (s *AuditHandlerSuite) TestQueryEmptyIsArray() {
	s.ledger.EXPECT().Query(gomock.Any(), gomock.Any(), audit.Filter{}).Return(nil, nil)

	w := s.get("/audit", true)

	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"records":[],"count":0}`, w.Body.String())
}

func (s *AuditHandlerSuite) TestQueryDeniedForMember() {
	s.ledger.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeRoleNotPermitted, "role may not perform this action"))

	w := s.get("/audit", true)

	testutil.AssertError(s.T(), w, http.StatusForbidden, "role_not_permitted")
}

func (s *AuditHandlerSuite) TestRequiresSession() {
	testutil.AssertError(s.T(), s.get("/audit", false), http.StatusUnauthorized, "unauthorized")
	testutil.AssertError(s.T(), s.get("/audit/export", false), http.StatusUnauthorized, "unauthorized")
}

func (s *AuditHandlerSuite) TestExportStreamsCSV() {
	s.ledger.EXPECT().Export(gomock.Any(), s.caller, audit.Filter{ActionLike: "registration"}, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ requestcontext.AuthPrincipal, _ audit.Filter, w io.Writer) (int, error) {
			_, err := io.WriteString(w, "id,timestamp,actor_id,actor_name,action,sector_code,detail\n")
			return 0, err
		})

	w := s.get("/audit/export?action=registration", true)

	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	s.Equal(`attachment; filename="audit-20260504-093000.csv"`, w.Header().Get("Content-Disposition"))
	s.Equal("0", w.Header().Get("X-Total-Count"))
	s.Contains(w.Body.String(), "actor_name")
}

func (s *AuditHandlerSuite) TestExportFailureIsJSON() {
	s.ledger.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ requestcontext.AuthPrincipal, _ audit.Filter, w io.Writer) (int, error) {
			_, _ = io.WriteString(w, "id,timestamp\n")
			return 0, dErrors.New(dErrors.CodeInternal, "failed to export audit records")
		})

	w := s.get("/audit/export", true)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "id,timestamp")
	s.NotEqual("text/csv; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestParseFilter(t *testing.T) {
	t.Run("rfc3339 date_to is exact", func(t *testing.T) {
		f, err := ParseFilter(url.Values{"date_to": {"2026-05-03T12:00:00-03:00"}})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 3, 15, 0, 0, 0, time.UTC), f.Until)
	})

	t.Run("calendar date_to includes the day", func(t *testing.T) {
		f, err := ParseFilter(url.Values{"date_to": {"2026-05-03"}})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), f.Until)
	})

	t.Run("sector is never read from the query", func(t *testing.T) {
		f, err := ParseFilter(url.Values{"sector_id": {"9"}})
		require.NoError(t, err)
		assert.Zero(t, f.SectorID)
	})

	bad := map[string]url.Values{
		"date":     {"date_from": {"05/01/2026"}},
		"actor":    {"actor_id": {"abc"}},
		"limit":    {"limit": {"-1"}},
		"offset":   {"offset": {"x"}},
		"date_to":  {"date_to": {"tomorrow"}},
		"actor <0": {"actor_id": {"-3"}},
	}
	for name, q := range bad {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := ParseFilter(q)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "got %v", err)
		})
	}
}
