package chiroutes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hedisam/httpduration/lib/httpduration"
	"github.com/hedisam/httpduration/lib/httpduration/chiroutes"
)

func TestResolver_ResolveRoute(t *testing.T) {
	apps := chi.NewRouter()
	apps.Get("/{app_id}/bars/{bar_id}", func(http.ResponseWriter, *http.Request) {})

	r := chi.NewRouter()
	r.Get("/hello/{name}", func(http.ResponseWriter, *http.Request) {})
	r.Mount("/apps", apps)

	res := chiroutes.New(r, map[string]httpduration.Route{
		"/hello/{name}": {Controller: "Greeter", Action: "Hello"},
	})

	tests := map[string]struct {
		method   string
		url      string
		expected httpduration.Route
		found    bool
	}{
		"Simple": {
			method:   http.MethodGet,
			url:      "/hello/world",
			expected: httpduration.Route{Name: "/hello/{name}", Controller: "Greeter", Action: "Hello"},
			found:    true,
		},
		"Mounted": {
			method:   http.MethodGet,
			url:      "/apps/1/bars/2",
			expected: httpduration.Route{Name: "/apps/{app_id}/bars/{bar_id}"},
			found:    true,
		},
		"WrongMethod": {
			method: http.MethodPost,
			url:    "/hello/world",
		},
		"NotFound": {
			method: http.MethodGet,
			url:    "/nope",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			route, ok := res.ResolveRoute(httptest.NewRequest(tc.method, tc.url, nil))
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.expected, route)
		})
	}
}

func TestResolver_WithInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := chi.NewRouter()

	opts := httpduration.DefaultOptions()
	opts.MetricName = "chi_request_duration_seconds"
	opts.Registerer = reg
	opts.UseRouteName = true
	opts.IncludeController = true
	opts.IncludeAction = true
	opts.IgnorePrefix = []string{"/healthz"}
	opts.Routes = chiroutes.New(r, map[string]httpduration.Route{
		"/items/{id}": {Controller: "Items", Action: "Get"},
	})
	i, err := httpduration.New(opts)
	require.NoError(t, err)

	r.Use(i.Handler)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/healthz", func(http.ResponseWriter, *http.Request) {})

	for _, url := range []string{"/items/1", "/items/2", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, url, nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	metrics := families[0].GetMetric()
	require.Len(t, metrics, 1)

	labels := make(map[string]string)
	for _, lp := range metrics[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, map[string]string{
		"status_code": "204",
		"method":      "GET",
		"controller":  "Items",
		"action":      "Get",
		"path":        "/items/{id}",
	}, labels)
	assert.EqualValues(t, 2, metrics[0].GetHistogram().GetSampleCount())
}
