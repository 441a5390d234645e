package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govportal/internal/session/service"
	dErrors "govportal/pkg/domain-errors"
	"govportal/pkg/platform/httputil"
	"govportal/pkg/requestcontext"
)

// Service is the session surface the handler depends on.
type Service interface {
	Authenticate(ctx context.Context, email, secret string) (*service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*service.Session, error)
	Logout(ctx context.Context, caller requestcontext.AuthPrincipal, refreshToken string) error
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	loginLimiter func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithLoginLimiter throttles POST /auth/login.
func WithLoginLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.loginLimiter = mw }
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	if h.loginLimiter != nil {
		r.With(h.loginLimiter).Post("/auth/login", h.HandleLogin)
	} else {
		r.Post("/auth/login", h.HandleLogin)
	}
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	sess, err := h.service.Authenticate(ctx, req.Email, req.Secret)
	if err != nil {
		h.fail(ctx, w, "login failed", err)
		return
	}
	h.logger.InfoContext(ctx, "session opened",
		"account_id", int64(sess.Claims.AccountID),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RefreshRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sess, err := h.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.fail(ctx, w, "refresh failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[RefreshRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.Logout(ctx, caller, req.RefreshToken); err != nil {
		h.fail(ctx, w, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe echoes the caller's session claims.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := requestcontext.Principal(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MeResponse{User: UserResponse{
		ID:         int64(p.AccountID),
		Name:       p.Name,
		Role:       string(p.Role),
		SectorID:   int64(p.SectorID),
		SectorName: p.SectorName,
		SectorCode: p.SectorCode,
	}})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	default:
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}

func toSessionResponse(sess *service.Session) SessionResponse {
	return SessionResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    sess.TokenType,
		ExpiresIn:    int64(sess.ExpiresIn.Seconds()),
		User:         userFromClaims(sess.Claims),
	}
}
