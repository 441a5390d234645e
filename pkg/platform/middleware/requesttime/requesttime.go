// Package requesttime pins one "now" per request so audit timestamps, token
// issuance and lifecycle fields written by the same request agree.
package requesttime

import (
	"net/http"
	"time"

	"govportal/pkg/requestcontext"
)

// Middleware captures the current UTC time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
