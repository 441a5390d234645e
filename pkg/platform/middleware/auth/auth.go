package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// TokenValidator decodes and verifies a bearer access token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (requestcontext.AuthPrincipal, error)
}

// PublicRoutes answers whether a request may skip authentication.
type PublicRoutes interface {
	IsPublic(method, path string) bool
}

// RequireAuth authenticates every request not on the public allow-list. It
// fails closed: missing, malformed, expired or tampered tokens are rejected
// with 401 before any handler runs.
func RequireAuth(validator TokenValidator, public PublicRoutes, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public != nil && public.IsPublic(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
					"route", requestcontext.Route(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			principal, err := validator.Validate(ctx, strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}
