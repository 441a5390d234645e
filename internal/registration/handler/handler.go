package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountmodels "govportal/internal/account/models"
	"govportal/internal/registration/models"
	"govportal/internal/registration/service"
	"govportal/pkg/domain"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// Service is the registration workflow surface the handler depends on.
type Service interface {
	Submit(ctx context.Context, caller requestcontext.AuthPrincipal, cmd service.SubmitCommand) (*service.SubmitResult, error)
	Approve(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.RequestID) (*accountmodels.Account, error)
	Reject(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.RequestID, reason string) error
	ListPending(ctx context.Context, caller requestcontext.AuthPrincipal) ([]*models.Request, error)
	RequestAccess(ctx context.Context, reg service.SelfRegistration) (*accountmodels.Account, error)
	ApproveAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error
	RejectAccount(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the workflow endpoints. POST /auth/request-access is
// public; the rest need a session.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.HandleSubmit)
	r.Get("/registrations/pending", h.HandleListPending)
	r.Patch("/registrations/{id}/approve", h.HandleApprove)
	r.Patch("/registrations/{id}/reject", h.HandleReject)

	r.Post("/auth/request-access", h.HandleRequestAccess)
	r.Patch("/users/{id}/approve", h.HandleApproveAccount)
	r.Patch("/users/{id}/reject", h.HandleRejectAccount)
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
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	default:
		h.logger.DebugContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Submit(ctx, caller, req.Command())
	if err != nil {
		h.fail(w, r, "submit registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromSubmit(res))
}

func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	pending, err := h.service.ListPending(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "list pending registrations failed", err)
		return
	}
	resp := PendingListResponse{Requests: make([]RequestResponse, len(pending)), Count: len(pending)}
	for i, p := range pending {
		resp.Requests[i] = fromRequest(p)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Approve(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, "approve registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAccount(a))
}

// HandleReject accepts an empty body or {"reason": "..."}.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var reason string
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		reason = req.Reason
	}
	if err := h.service.Reject(ctx, caller, id, reason); err != nil {
		h.fail(w, r, "reject registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResolutionResponse{ID: int64(id), Decision: decisionRejected})
}

func (h *Handler) HandleRequestAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AccessRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	a, err := h.service.RequestAccess(ctx, req.Registration())
	if err != nil {
		h.fail(w, r, "request access failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromAccount(a))
}

const (
	decisionApproved = "approved"
	decisionRejected = "rejected"
)

func (h *Handler) HandleApproveAccount(w http.ResponseWriter, r *http.Request) {
	h.resolveAccount(w, r, "approve account failed", decisionApproved, h.service.ApproveAccount)
}

func (h *Handler) HandleRejectAccount(w http.ResponseWriter, r *http.Request) {
	h.resolveAccount(w, r, "reject account failed", decisionRejected, h.service.RejectAccount)
}

func (h *Handler) resolveAccount(
	w http.ResponseWriter,
	r *http.Request,
	msg string,
	decision string,
	resolve func(ctx context.Context, caller requestcontext.AuthPrincipal, id domain.AccountID) error,
) {
	caller, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := resolve(r.Context(), caller, id); err != nil {
		h.fail(w, r, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResolutionResponse{ID: int64(id), Decision: decision})
}
