package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

type stubValidator struct {
	principal requestcontext.AuthPrincipal
	err       error
}

func (s stubValidator) Validate(_ context.Context, _ string) (requestcontext.AuthPrincipal, error) {
	return s.principal, s.err
}

type stubPublic map[string]bool

func (p stubPublic) IsPublic(method, path string) bool { return p[method+" "+path] }

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	principal := requestcontext.AuthPrincipal{AccountID: 7, Role: domain.RoleCoordinator, SectorID: 3}

	var seen requestcontext.AuthPrincipal
	var called bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = requestcontext.Principal(r.Context())
	})

	t.Run("public route passes without token", func(t *testing.T) {
		called = false
		mw := RequireAuth(stubValidator{err: assert.AnError}, stubPublic{"GET /sectors": true}, logger)
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sectors", nil))
		assert.True(t, called)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		called = false
		mw := RequireAuth(stubValidator{principal: principal}, stubPublic{}, logger)
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"unauthorized"`)
	})

	t.Run("expired token is rejected with its code", func(t *testing.T) {
		called = false
		mw := RequireAuth(stubValidator{err: dErrors.New(dErrors.CodeTokenExpired, "token expired")}, nil, logger)
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, req)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"token_expired"`)
	})

	t.Run("valid token injects principal", func(t *testing.T) {
		called = false
		mw := RequireAuth(stubValidator{principal: principal}, stubPublic{}, logger)
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, req)
		require.True(t, called)
		assert.Equal(t, principal, seen)
	})
}
