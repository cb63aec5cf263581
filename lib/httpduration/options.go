package httpduration

import (
	"io"
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMetricName is the histogram name used by DefaultOptions.
	DefaultMetricName = "http_request_duration_seconds"
)

// CustomLabel is an extra label appended to the histogram's label set.
// Value is evaluated once per measured request, after the downstream stage returned.
type CustomLabel struct {
	Name  string
	Value func() string
}

// PathRewrite replaces every match of Pattern in the request path with Replacement.
type PathRewrite struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Options configures an Interceptor. It must not be modified once passed to New.
type Options struct {
	MetricName       string
	IncludeTimestamp bool

	IncludeStatusCode bool
	IncludeMethod     bool
	// IncludeController and IncludeAction only take effect when Routes is set.
	IncludeController bool
	IncludeAction     bool
	IncludePath       bool
	// UseRouteName labels requests with the resolved route name instead of the raw path.
	UseRouteName      bool

	// A nil slice disables the corresponding rule.
	IgnoreExact    []string
	IgnoreContains []string
	IgnorePrefix   []string

	// Buckets falls back to prometheus.DefBuckets when nil.
	Buckets []float64

	CustomLabels         []CustomLabel
	CustomNormalizePath  []PathRewrite
	ShouldMeasureRequest func(r *http.Request) bool

	// Routes is the optional route-metadata capability of the hosting pipeline.
	Routes RouteResolver

	Registerer prometheus.Registerer
	Logger     *logrus.Logger
}

// DefaultOptions returns options labeling by status code, method and path.
func DefaultOptions() Options {
	return Options{
		MetricName:        DefaultMetricName,
		IncludeStatusCode: true,
		IncludeMethod:     true,
		IncludePath:       true,
	}
}

// IncludeCustomLabels reports whether custom labels are configured.
func (o Options) IncludeCustomLabels() bool {
	return o.CustomLabels != nil
}

// IncludeCustomNormalizePath reports whether path rewrites are configured.
func (o Options) IncludeCustomNormalizePath() bool {
	return o.CustomNormalizePath != nil
}

func (o Options) registerer() prometheus.Registerer {
	if o.Registerer != nil {
		return o.Registerer
	}
	return prometheus.DefaultRegisterer
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
