package authz

import (
	"net/http"
	"strings"
)

// PublicRoutes is the single allow-list of endpoints reachable without a
// session. Anything not listed requires authentication.
type PublicRoutes struct {
	routes map[string]struct{}
}

// NewPublicRoutes builds an allow-list from "METHOD /path" entries.
func NewPublicRoutes(entries ...string) *PublicRoutes {
	p := &PublicRoutes{routes: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		method, path, ok := strings.Cut(strings.TrimSpace(e), " ")
		if !ok {
			panic("authz: public route must be \"METHOD /path\": " + e)
		}
		p.routes[key(method, path)] = struct{}{}
	}
	return p
}

// DefaultPublicRoutes are the portal's unauthenticated endpoints.
func DefaultPublicRoutes() *PublicRoutes {
	return NewPublicRoutes(
		http.MethodPost+" /auth/login",
		http.MethodPost+" /auth/refresh",
		http.MethodPost+" /auth/request-access",
		http.MethodGet+" /sectors",
		http.MethodGet+" /functions",
		http.MethodGet+" /health",
		http.MethodGet+" /metrics",
	)
}

// IsPublic matches method and path exactly, ignoring one trailing slash.
func (p *PublicRoutes) IsPublic(method, path string) bool {
	_, ok := p.routes[key(method, path)]
	return ok
}

func key(method, path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return strings.ToUpper(method) + " " + path
}
