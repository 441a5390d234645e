// Package request assigns every inbound request a correlation id.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"govportal/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-ID"

const maxInboundIDLen = 64

// RequestID reuses a caller-supplied X-Request-ID when it is short enough,
// otherwise mints a UUID, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" || len(reqID) > maxInboundIDLen {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
