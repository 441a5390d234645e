// Package handler exposes the audit ledger over HTTP.
package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"govportal/internal/audit"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

const dateLayout = "2006-01-02"

// Ledger is the read surface of the audit ledger. *audit.Ledger satisfies it.
type Ledger interface {
	Query(ctx context.Context, caller requestcontext.AuthPrincipal, f audit.Filter) ([]audit.Record, error)
	Export(ctx context.Context, caller requestcontext.AuthPrincipal, f audit.Filter, w io.Writer) (int, error)
}

type Handler struct {
	ledger Ledger
	logger *slog.Logger
}

func New(ledger Ledger, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.HandleQuery)
	r.Get("/audit/export", h.HandleExport)
}

type QueryResponse struct {
	Records []audit.Record `json:"records"`
	Count   int            `json:"count"`
}

func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.ledger.Query(ctx, caller, f)
	if err != nil {
		h.logger.DebugContext(ctx, "audit query failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, QueryResponse{Records: records, Count: len(records)})
}

// HandleExport renders the CSV in memory so a failure can still be reported
// as a JSON error. Exports are bounded by the ledger's maximum limit.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	rows, err := h.ledger.Export(ctx, caller, f, &buf)
	if err != nil {
		h.logger.DebugContext(ctx, "audit export failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	name := fmt.Sprintf("audit-%s.csv", requestcontext.Now(ctx).UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Total-Count", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ParseFilter reads date_from, date_to, action, actor_id, limit and offset.
// Dates are calendar days (YYYY-MM-DD, UTC) or RFC 3339 instants; a
// calendar date_to includes the whole day.
func ParseFilter(q url.Values) (audit.Filter, error) {
	var f audit.Filter
	var err error
	if raw := strings.TrimSpace(q.Get("date_from")); raw != "" {
		if f.From, _, err = parseDate(raw, "date_from"); err != nil {
			return f, err
		}
	}
	if raw := strings.TrimSpace(q.Get("date_to")); raw != "" {
		until, dayOnly, err := parseDate(raw, "date_to")
		if err != nil {
			return f, err
		}
		if dayOnly {
			until = until.Add(24 * time.Hour)
		}
		f.Until = until
	}
	f.ActionLike = strings.TrimSpace(q.Get("action"))
	if raw := q.Get("actor_id"); raw != "" {
		if f.ActorID, err = domain.ParseAccountID(raw); err != nil {
			return f, err
		}
	}
	if f.Limit, err = nonNegative(q.Get("limit"), "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = nonNegative(q.Get("offset"), "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(raw, field string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, dErrors.New(dErrors.CodeInvalidInput, field+" must be YYYY-MM-DD or RFC 3339")
}

func nonNegative(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, field+" must be a non-negative integer")
	}
	return n, nil
}
