// Package servicetoken authenticates collaborator processes that call the
// portal with a shared secret rather than a user session.
package servicetoken

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

const Header = "X-Service-Token"

// Require rejects requests whose X-Service-Token does not match expected.
// An empty expected token disables the guarded routes entirely.
func Require(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(Header)
			if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "service token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"route", requestcontext.Route(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "service token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
