// Package httptransport assembles the portal's HTTP surface: the middleware
// chain, the authentication boundary and the module route tables.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"govportal/pkg/platform/middleware/auth"
	"govportal/pkg/platform/middleware/logging"
	"govportal/pkg/platform/middleware/metadata"
	"govportal/pkg/platform/middleware/request"
	"govportal/pkg/platform/middleware/requesttime"
	"govportal/pkg/platform/middleware/servicetoken"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// InternalRegistrar mounts routes called by collaborator processes.
type InternalRegistrar interface {
	RegisterInternal(r chi.Router)
}

// Deps is everything the router needs from cmd/server.
type Deps struct {
	Logger      *slog.Logger
	Development bool

	Validator auth.TokenValidator
	Public    auth.PublicRoutes

	Health  http.Handler
	Metrics http.Handler

	// RequestTimeout bounds the context of every API and internal request so
	// store calls outside a transaction give up too. Zero disables it.
	RequestTimeout time.Duration

	// API handlers run behind RequireAuth; public routes are let through by
	// the allow-list in Public.
	API []Registrar

	// Internal handlers run behind the shared service token.
	Internal     []InternalRegistrar
	ServiceToken string
}

// NewRouter wires the middleware chain and mounts every module.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(logging.AccessLog(d.Logger))
	r.Use(logging.Recoverer(d.Logger, d.Development))

	if d.Health != nil {
		r.Method(http.MethodGet, "/health", d.Health)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(chimw.Timeout(d.RequestTimeout))
		}
		r.Use(auth.RequireAuth(d.Validator, d.Public, d.Logger))
		for _, h := range d.API {
			h.Register(r)
		}
	})

	if len(d.Internal) > 0 {
		r.Group(func(r chi.Router) {
			if d.RequestTimeout > 0 {
				r.Use(chimw.Timeout(d.RequestTimeout))
			}
			r.Use(servicetoken.Require(d.ServiceToken, d.Logger))
			for _, h := range d.Internal {
				h.RegisterInternal(r)
			}
		})
	}
	return r
}
