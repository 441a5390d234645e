package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"govportal/internal/account/handler/mocks"
	"govportal/internal/account/models"
	"govportal/internal/account/service"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/requestcontext"
)

type AccountHandlerSuite struct {
	suite.Suite
	svc    *mocks.MockService
	router chi.Router
	caller requestcontext.AuthPrincipal
}

func TestAccountHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerSuite))
}

func (s *AccountHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.svc = mocks.NewMockService(ctrl)
	s.caller = requestcontext.AuthPrincipal{AccountID: 2, Role: domain.RoleCoordinator, SectorID: 1}

	h := New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(r.Context(), s.caller)))
			})
		})
		h.Register(r)
	})
	h.RegisterInternal(s.router)
}

func (s *AccountHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AccountHandlerSuite) TestCreateAccount() {
	created := &models.Account{
		ID: 10, Email: "nova@example.org", Name: "Nova", SecretHash: "$2a$secret",
		Role: domain.RoleMember, SectorID: 1, Status: domain.AccountStatusActive, SectorCode: "TI",
		CreatedAt: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}
	s.svc.EXPECT().CreateAccount(gomock.Any(), s.caller, service.CreateAccountCommand{
		Name: "Nova", Email: "nova@example.org", Secret: "correct-horse", Role: domain.RoleMember, SectorID: 1,
	}).Return(created, nil)

	w := s.do(http.MethodPost, "/users",
		`{"name":" Nova ","email":"nova@example.org","password":"correct-horse","role":"COLABORADOR","sector_id":1}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(float64(10), resp["id"])
	s.Equal("TI", resp["sector_code"])
	s.NotContains(w.Body.String(), "secret")
}

func (s *AccountHandlerSuite) TestCreateAccountRejectsUnknownRole() {
	w := s.do(http.MethodPost, "/users",
		`{"name":"Nova","email":"nova@example.org","password":"correct-horse","role":"admin","sector_id":1}`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "invalid_input")
}

func (s *AccountHandlerSuite) TestGetAccountMapsForbidden() {
	s.svc.EXPECT().GetAccount(gomock.Any(), s.caller, domain.AccountID(9)).
		Return(nil, dErrors.New(dErrors.CodeCrossSectorDenied, "resource belongs to another sector"))

	w := s.do(http.MethodGet, "/users/9", "")
	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "cross_sector_denied")
}

func (s *AccountHandlerSuite) TestGetAccountBadID() {
	w := s.do(http.MethodGet, "/users/abc", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AccountHandlerSuite) TestListParsesFilter() {
	s.svc.EXPECT().ListAccounts(gomock.Any(), s.caller, models.ListFilter{
		Search:   "ana",
		Statuses: []domain.AccountStatus{domain.AccountStatusActive, domain.AccountStatusInactive},
		Limit:    10,
	}).Return([]*models.Account{{ID: 3, Name: "Ana"}}, nil)

	w := s.do(http.MethodGet, "/users?search=ana&status=active,inactive&limit=10", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"count":1`)
}

func (s *AccountHandlerSuite) TestListRejectsBadStatus() {
	w := s.do(http.MethodGet, "/users?status=ativo", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AccountHandlerSuite) TestUpdatePassesOnlyPresentFields() {
	s.svc.EXPECT().UpdateAccount(gomock.Any(), s.caller, domain.AccountID(4), gomock.Any()).
		DoAndReturn(func(_ any, _ requestcontext.AuthPrincipal, _ domain.AccountID, cmd service.UpdateAccountCommand) (*models.Account, error) {
			s.Require().NotNil(cmd.Status)
			s.Equal(domain.AccountStatusInactive, *cmd.Status)
			s.Nil(cmd.Name)
			s.Nil(cmd.Role)
			return &models.Account{ID: 4, Status: domain.AccountStatusInactive}, nil
		})

	w := s.do(http.MethodPatch, "/users/4", `{"status":"inactive"}`)
	s.Equal(http.StatusOK, w.Code)
}

func (s *AccountHandlerSuite) TestDeleteConflict() {
	s.svc.EXPECT().DeleteAccount(gomock.Any(), s.caller, domain.AccountID(2)).
		Return(dErrors.New(dErrors.CodeConflict, "cannot delete your own account"))

	w := s.do(http.MethodDelete, "/users/2", "")
	s.Equal(http.StatusConflict, w.Code)
}

func (s *AccountHandlerSuite) TestResetSecretReturnsGenerated() {
	s.svc.EXPECT().ResetSecret(gomock.Any(), s.caller, domain.AccountID(4), "").Return("generated-1", nil)

	w := s.do(http.MethodPost, "/users/4/password", `{}`)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "generated-1")
}

func (s *AccountHandlerSuite) TestCompleteOnboarding() {
	s.svc.EXPECT().CompleteOnboarding(gomock.Any(), domain.AccountID(7)).Return(nil)

	w := s.do(http.MethodPost, "/internal/onboarding/7/complete", "")
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *AccountHandlerSuite) TestSectors() {
	s.svc.EXPECT().ListSectors(gomock.Any()).Return([]*models.Sector{{ID: 1, Name: "Tecnologia", Code: "TI"}}, nil)
	w := s.do(http.MethodGet, "/sectors", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"code":"TI"`)

	w = s.do(http.MethodPost, "/sectors", `{"name":"","code":"X"}`)
	s.Equal(http.StatusBadRequest, w.Code)

	s.svc.EXPECT().UpdateSector(gomock.Any(), s.caller, domain.SectorID(1), "Tec", "TI").
		Return(nil, dErrors.New(dErrors.CodeRoleNotPermitted, "role not permitted for this operation"))
	w = s.do(http.MethodPut, "/sectors/1", `{"name":"Tec","code":"TI"}`)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *AccountHandlerSuite) TestFunctionsInternalErrorHidesDetail() {
	s.svc.EXPECT().ListFunctions(gomock.Any()).
		Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to list functions"))

	w := s.do(http.MethodGet, "/functions", "")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "unexpected EOF")
}
