package httpduration

import (
	"context"
	"net/http"
	"strings"
)

// Route is the metadata a router knows about the endpoint serving a request.
type Route struct {
	Name       string
	Controller string
	Action     string
}

// RouteResolver resolves the route of a request before it is dispatched.
// Pipelines that cannot do so leave Options.Routes nil.
type RouteResolver interface {
	ResolveRoute(r *http.Request) (Route, bool)
}

// NamedHandler is implemented by handlers that know which controller and action they serve.
type NamedHandler interface {
	http.Handler
	HandlerNames() (controller, action string)
}

type namedHandler struct {
	http.Handler
	controller string
	action     string
}

func (h *namedHandler) HandlerNames() (string, string) {
	return h.controller, h.action
}

// NamedHandlerFunc attaches controller and action names to f.
func NamedHandlerFunc(controller, action string, f http.HandlerFunc) NamedHandler {
	return &namedHandler{
		Handler:    f,
		controller: controller,
		action:     action,
	}
}

type serveMuxRoutes struct {
	mux *http.ServeMux
}

// ServeMuxRoutes resolves routes by asking mux which pattern it would dispatch to.
func ServeMuxRoutes(mux *http.ServeMux) RouteResolver {
	return &serveMuxRoutes{mux: mux}
}

func (s *serveMuxRoutes) ResolveRoute(r *http.Request) (Route, bool) {
	h, pattern := s.mux.Handler(r)
	if pattern == "" {
		return Route{}, false
	}

	route := Route{Name: patternPath(pattern)}
	if nh, ok := h.(NamedHandler); ok {
		route.Controller, route.Action = nh.HandlerNames()
	}
	return route, true
}

// patternPath strips the method and host from a ServeMux pattern:
// "GET example.com/items/{id}" becomes "/items/{id}".
func patternPath(pattern string) string {
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = strings.TrimLeft(pattern[i+1:], " \t")
	}
	if i := strings.IndexByte(pattern, '/'); i > 0 {
		pattern = pattern[i:]
	}
	return pattern
}

type routeCtxKey struct{}

// WithRoute returns a copy of ctx carrying route, for use with ContextRoutes.
func WithRoute(ctx context.Context, route Route) context.Context {
	return context.WithValue(ctx, routeCtxKey{}, route)
}

// RouteFromContext returns the route stored by WithRoute.
func RouteFromContext(ctx context.Context) (Route, bool) {
	route, ok := ctx.Value(routeCtxKey{}).(Route)
	return route, ok
}

// ContextRoutes resolves routes stored in the request context by WithRoute.
// It suits frameworks that match routes before running middleware.
type ContextRoutes struct{}

func (ContextRoutes) ResolveRoute(r *http.Request) (Route, bool) {
	return RouteFromContext(r.Context())
}
