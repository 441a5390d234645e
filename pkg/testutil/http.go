// Package testutil holds helpers shared by handler tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BearerHeader marks a request as carrying a session. Handler suites inject
// the principal themselves when they see it.
const BearerHeader = "Bearer test-session"

// Serve builds a request, sends it through h and returns the recorder.
// A non-empty body is sent as JSON.
func Serve(h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", BearerHeader)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the response body into T, failing the test on error.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "decode response: %s", w.Body.String())
	return out
}

// AssertError checks the status and the "error" code of a JSON error body.
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, "unexpected status code")
	body := Decode[map[string]string](t, w)
	assert.Equal(t, code, body["error"], "unexpected error code")
	assert.NotEmpty(t, body["error_description"])
}
