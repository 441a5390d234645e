package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"govportal/internal/account/models"
	"govportal/internal/account/service"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// Service is the account administration surface the handler depends on.
type Service interface {
	CreateAccount(ctx context.Context, caller requestcontext.AuthPrincipal, cmd service.CreateAccountCommand) (*models.Account, error)
	GetAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) (*models.Account, error)
	ListAccounts(ctx context.Context, caller requestcontext.AuthPrincipal, f models.ListFilter) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID, cmd service.UpdateAccountCommand) (*models.Account, error)
	DeactivateAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error
	DeleteAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error
	ResetSecret(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID, secret string) (string, error)
	CompleteOnboarding(ctx context.Context, id domain.AccountID) error
	ListSectors(ctx context.Context) ([]*models.Sector, error)
	CreateSector(ctx context.Context, caller requestcontext.AuthPrincipal, name, code string) (*models.Sector, error)
	UpdateSector(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.SectorID, name, code string) (*models.Sector, error)
	DeleteSector(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.SectorID) error
	ListFunctions(ctx context.Context) ([]*models.Function, error)
	CreateFunction(ctx context.Context, caller requestcontext.AuthPrincipal, name string) (*models.Function, error)
	DeleteFunction(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.FunctionID) error
}

// Handler wires account, sector, function and onboarding endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the session-authenticated endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users", h.HandleList)
	r.Post("/users", h.HandleCreate)
	r.Get("/users/{id}", h.HandleGet)
	r.Patch("/users/{id}", h.HandleUpdate)
	r.Delete("/users/{id}", h.HandleDelete)
	r.Post("/users/{id}/deactivate", h.HandleDeactivate)
	r.Post("/users/{id}/password", h.HandleResetSecret)

	r.Get("/sectors", h.HandleListSectors)
	r.Post("/sectors", h.HandleCreateSector)
	r.Put("/sectors/{id}", h.HandleUpdateSector)
	r.Delete("/sectors/{id}", h.HandleDeleteSector)

	r.Get("/functions", h.HandleListFunctions)
	r.Post("/functions", h.HandleCreateFunction)
	r.Delete("/functions/{id}", h.HandleDeleteFunction)
}

// RegisterInternal mounts collaborator endpoints. The caller guards r with
// the service-token middleware.
func (h *Handler) RegisterInternal(r chi.Router) {
	r.Post("/internal/onboarding/{accountID}/complete", h.HandleCompleteOnboarding)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (requestcontext.AuthPrincipal, bool) {
	p, ok := requestcontext.Principal(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return p, ok
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == dErrors.CodeTimeout {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.DebugContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	f, err := listFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	accounts, err := h.service.ListAccounts(r.Context(), caller, f)
	if err != nil {
		h.fail(w, r, "list accounts failed", err)
		return
	}
	resp := AccountListResponse{Accounts: make([]AccountResponse, len(accounts)), Count: len(accounts)}
	for i, a := range accounts {
		resp.Accounts[i] = FromAccount(a)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func listFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	f := models.ListFilter{Search: strings.TrimSpace(q.Get("search"))}
	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, err := domain.ParseAccountStatus(strings.TrimSpace(part))
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if raw := q.Get("sector_id"); raw != "" {
		id, err := domain.ParseSectorID(raw)
		if err != nil {
			return f, err
		}
		f.SectorID = id
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		return f, err
	}
	return f, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "pagination parameters must be non-negative integers")
	}
	return n, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateAccountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.CreateAccount(ctx, caller, req.Command())
	if err != nil {
		h.fail(w, r, "create account failed", err)
		return
	}
	h.logger.InfoContext(ctx, "account created",
		"account_id", int64(a.ID),
		"actor_id", int64(caller.AccountID),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromAccount(a))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.GetAccount(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, "get account failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(a))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateAccountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.UpdateAccount(ctx, caller, id, req.Command())
	if err != nil {
		h.fail(w, r, "update account failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAccount(a))
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeactivateAccount(r.Context(), caller, id); err != nil {
		h.fail(w, r, "deactivate account failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteAccount(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete account failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleResetSecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResetSecretRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	generated, err := h.service.ResetSecret(ctx, caller, id, req.Secret)
	if err != nil {
		h.fail(w, r, "reset secret failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResetSecretResponse{GeneratedPassword: generated})
}

func (h *Handler) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.CompleteOnboarding(r.Context(), id); err != nil {
		h.fail(w, r, "complete onboarding failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.service.ListSectors(r.Context())
	if err != nil {
		h.fail(w, r, "list sectors failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SectorListResponse{Sectors: sectors})
}

func (h *Handler) HandleCreateSector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SectorRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sector, err := h.service.CreateSector(ctx, caller, req.Name, req.Code)
	if err != nil {
		h.fail(w, r, "create sector failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sector)
}

func (h *Handler) HandleUpdateSector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseSectorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SectorRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sector, err := h.service.UpdateSector(ctx, caller, id, req.Name, req.Code)
	if err != nil {
		h.fail(w, r, "update sector failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sector)
}

func (h *Handler) HandleDeleteSector(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseSectorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteSector(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete sector failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListFunctions(w http.ResponseWriter, r *http.Request) {
	functions, err := h.service.ListFunctions(r.Context())
	if err != nil {
		h.fail(w, r, "list functions failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FunctionListResponse{Functions: functions})
}

func (h *Handler) HandleCreateFunction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FunctionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	fn, err := h.service.CreateFunction(ctx, caller, req.Name)
	if err != nil {
		h.fail(w, r, "create function failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fn)
}

func (h *Handler) HandleDeleteFunction(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseFunctionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteFunction(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete function failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
