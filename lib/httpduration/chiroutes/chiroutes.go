// Package chiroutes resolves request routes from a chi router so that
// httpduration can label requests with their route pattern.
package chiroutes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hedisam/httpduration/lib/httpduration"
)

// Resolver matches requests against a chi router without dispatching them.
type Resolver struct {
	routes chi.Routes
	names  map[string]httpduration.Route
}

// New returns a resolver for routes. chi does not expose the matched handler,
// so controller and action names are looked up in names by route pattern.
// names may be nil.
func New(routes chi.Routes, names map[string]httpduration.Route) *Resolver {
	return &Resolver{
		routes: routes,
		names:  names,
	}
}

func (res *Resolver) ResolveRoute(r *http.Request) (httpduration.Route, bool) {
	path := r.URL.RawPath
	if path == "" {
		path = r.URL.Path
	}

	rctx := chi.NewRouteContext()
	if !res.routes.Match(rctx, r.Method, path) {
		return httpduration.Route{}, false
	}

	pattern := rctx.RoutePattern()
	route := res.names[pattern]
	route.Name = pattern
	return route, true
}
