package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"govportal/internal/platform/config"
	"govportal/pkg/platform/middleware/servicetoken"
)

const (
	masterEmail  = "root@portal.example"
	masterSecret = "root-secret-123"
	serviceToken = "onboarding-service-token"
)

// AppSuite drives the assembled router on in-memory backends.
type AppSuite struct {
	suite.Suite
	app    *app
	server *httptest.Server
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func testConfig() config.Config {
	return config.Config{
		Server:   config.Server{Addr: ":0", Env: config.EnvDevelopment},
		Database: config.Database{Timeout: time.Second},
		Auth: config.Auth{
			SigningKey:        "test-access-signing-key-0123456789abcdef",
			RefreshSigningKey: "test-refresh-signing-key-0123456789abcdef",
			Issuer:            "govportal",
			Audience:          "govportal-api",
			AccessTTL:         time.Hour,
			RefreshTTL:        24 * time.Hour,
			LoginRatePerSec:   100,
			LoginRateBurst:    100,
			BcryptCost:        bcrypt.MinCost,
		},
		Kafka: config.Kafka{AuditTopic: "govportal.audit"},
		Bootstrap: config.Bootstrap{
			MasterEmail:  masterEmail,
			MasterSecret: masterSecret,
			SectorCode:   "ADM",
			SectorName:   "Administration",
		},
		OnboardingServiceToken: serviceToken,
	}
}

func (s *AppSuite) SetupTest() {
	reg := prometheus.NewRegistry()
	a, err := newApp(context.Background(), testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), reg, reg)
	s.Require().NoError(err)
	s.app = a
	s.server = httptest.NewServer(a.router)
}

func (s *AppSuite) TearDownTest() {
	s.server.Close()
	s.NoError(s.app.close(context.Background()))
}

func (s *AppSuite) call(method, path, token, body string, headers ...string) (int, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, raw
}

func (s *AppSuite) login(email, secret string) string {
	status, raw := s.call(http.MethodPost, "/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, secret))
	s.Require().Equal(http.StatusOK, status, string(raw))
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(raw, &resp))
	s.Require().NotEmpty(resp.AccessToken)
	return resp.AccessToken
}

func (s *AppSuite) TestHealthIsPublic() {
	status, raw := s.call(http.MethodGet, "/health", "", "")
	s.Equal(http.StatusOK, status)
	s.Contains(string(raw), `"status":"ok"`)
	s.Equal("memory", s.app.storage)
}

func (s *AppSuite) TestProtectedRoutesFailClosed() {
	for _, path := range []string{"/users", "/registrations/pending", "/audit", "/auth/me"} {
		status, _ := s.call(http.MethodGet, path, "", "")
		s.Equal(http.StatusUnauthorized, status, path)
	}
	status, _ := s.call(http.MethodGet, "/sectors", "", "")
	s.Equal(http.StatusOK, status)
}

func (s *AppSuite) TestRegistrationLifecycle() {
	master := s.login(masterEmail, masterSecret)

	status, raw := s.call(http.MethodPost, "/registrations", master,
		`{"name":"Nova Silva","email":"nova@portal.example","password":"nova-secret-1","role":"member","sector_code":"adm"}`)
	s.Require().Equal(http.StatusCreated, status, string(raw))
	var submitted struct {
		RequestID int64 `json:"request_id"`
	}
	s.Require().NoError(json.Unmarshal(raw, &submitted))
	s.Require().NotZero(submitted.RequestID)

	status, raw = s.call(http.MethodGet, "/registrations/pending", master, "")
	s.Require().Equal(http.StatusOK, status)
	s.Contains(string(raw), "nova@portal.example")
	s.NotContains(string(raw), "nova-secret-1")

	approvePath := fmt.Sprintf("/registrations/%d/approve", submitted.RequestID)
	status, raw = s.call(http.MethodPatch, approvePath, master, "")
	s.Require().Equal(http.StatusOK, status, string(raw))
	var account struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(raw, &account))
	s.Equal("active_pending_onboarding", account.Status)

	status, raw = s.call(http.MethodPatch, approvePath, master, "")
	s.Equal(http.StatusConflict, status)
	s.Contains(string(raw), "already_processed")

	member := s.login("nova@portal.example", "nova-secret-1")
	status, raw = s.call(http.MethodGet, "/audit", member, "")
	s.Equal(http.StatusForbidden, status)
	s.Contains(string(raw), "role_not_permitted")

	onboard := fmt.Sprintf("/internal/onboarding/%d/complete", account.ID)
	status, _ = s.call(http.MethodPost, onboard, member, "")
	s.Equal(http.StatusUnauthorized, status)
	status, _ = s.call(http.MethodPost, onboard, "", "", servicetoken.Header, serviceToken)
	s.Equal(http.StatusNoContent, status)

	status, raw = s.call(http.MethodGet, "/audit?action=registration", master, "")
	s.Require().Equal(http.StatusOK, status)
	s.Contains(string(raw), `"registration_submitted"`)
	s.Contains(string(raw), `"registration_approved"`)

	status, raw = s.call(http.MethodGet, "/audit/export?action=onboarding", master, "")
	s.Require().Equal(http.StatusOK, status)
	s.True(strings.HasPrefix(string(raw), "id,timestamp,actor_id,actor_name,action,sector_code,detail"))
	s.Contains(string(raw), "onboarding_completed")

	status, raw = s.call(http.MethodGet, "/metrics", "", "")
	s.Require().Equal(http.StatusOK, status)
	s.Contains(string(raw), "govportal_registration_events_total")
}
