package httptransport

import (
	"context"
	"net/http"
	"sort"
	"time"

	"govportal/pkg/platform/httputil"
)

const probeTimeout = 2 * time.Second

// Probe reports whether one backing dependency is reachable.
type Probe func(ctx context.Context) error

// Health answers GET /health. Every probe runs on each call; any failure
// turns the response into 503.
type Health struct {
	probes map[string]Probe
}

func NewHealth() *Health {
	return &Health{probes: make(map[string]Probe)}
}

// Add registers a named probe. A nil probe is ignored so optional backends
// can be passed unconditionally.
func (h *Health) Add(name string, p Probe) *Health {
	if p != nil {
		h.probes[name] = p
	}
	return h
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.probes[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
