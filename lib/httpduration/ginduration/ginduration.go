// Package ginduration plugs httpduration into a gin engine.
//
// gin matches routes before running middleware, so the route pattern
// (c.FullPath) and the handler name are known when the request is measured.
// Handler names such as "api.(*ItemsController).Get-fm" are split into the
// controller ("ItemsController") and action ("Get") labels.
package ginduration

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/hedisam/httpduration/lib/httpduration"
)

// New builds an interceptor from opts and returns it as gin middleware.
// opts.Routes is always replaced by the route gin matched for the request.
func New(opts httpduration.Options) (gin.HandlerFunc, error) {
	opts.Routes = httpduration.ContextRoutes{}
	i, err := httpduration.New(opts)
	if err != nil {
		return nil, err
	}
	return Middleware(i), nil
}

// Middleware adapts i to gin. i should have been built with httpduration.ContextRoutes
// for route names, controllers and actions to be used.
func Middleware(i *httpduration.Interceptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if fullPath := c.FullPath(); fullPath != "" {
			route := httpduration.Route{Name: fullPath}
			route.Controller, route.Action = handlerNames(c.HandlerName())
			c.Request = c.Request.WithContext(httpduration.WithRoute(c.Request.Context(), route))
		}

		i.Invoke(c.Request, func() int {
			c.Next()
			return c.Writer.Status()
		})
	}
}

// handlerNames splits a runtime function name into controller and action.
// An unparenthesized receiver is only recognized when it is exported, otherwise
// the segment is taken to belong to the package name (as in "yaml.v3").
func handlerNames(name string) (controller, action string) {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	if open := strings.Index(name, ".("); open >= 0 {
		recv, method, _ := strings.Cut(name[open+2:], ").")
		return strings.TrimPrefix(recv, "*"), method
	}

	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	qualifier, action := name[:i], name[i+1:]
	if j := strings.LastIndexByte(qualifier, '.'); j >= 0 {
		if typ := qualifier[j+1:]; typ != "" && unicode.IsUpper(rune(typ[0])) {
			return typ, action
		}
	}
	return qualifier, action
}
