// Package httpduration records the latency of inbound HTTP requests into a
// prometheus histogram.
//
// The label schema is fixed when an Interceptor is built, in this order:
//
//	status_code, method, controller, action, path, <custom labels...>
//
// Each label is present only when enabled in Options; controller and action
// additionally require a RouteResolver. Requests may be excluded by path
// prefix, substring, exact match or a predicate, evaluated in that order
// against the path after CustomNormalizePath rewrites were applied.
package httpduration
