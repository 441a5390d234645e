package logging

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecovererHidesStackOutsideDevelopment(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil map write") })

	rr := httptest.NewRecorder()
	Recoverer(logger, false)(boom).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal_error")
	assert.NotContains(t, rr.Body.String(), "nil map write")

	rr = httptest.NewRecorder()
	Recoverer(logger, true)(boom).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Contains(t, rr.Body.String(), "nil map write")
	assert.Contains(t, rr.Body.String(), "stack")
}

func TestAccessLogRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/registrations", nil))
	assert.Contains(t, buf.String(), "status=409")
	assert.Contains(t, buf.String(), "path=/registrations")
}
