package httpduration

import (
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Label names, in the order they appear in the histogram.
const (
	// LabelStatusCode is the response status, 200 when the handler wrote nothing.
	LabelStatusCode = "status_code"
	// LabelMethod is the request method.
	LabelMethod = "method"
	// LabelController is the controller of the resolved route.
	LabelController = "controller"
	// LabelAction is the action of the resolved route.
	LabelAction = "action"
	// LabelPath is the normalized request path or route name.
	LabelPath = "path"

	helpPrefix = "Duration histogram of http responses labeled with: "
)

// Interceptor measures request durations into a single histogram.
// It is safe for concurrent use; nothing in it changes after New returns.
type Interceptor struct {
	opts   Options
	logger *logrus.Logger

	includeController bool
	includeAction     bool
	labelNames        []string
	hist              *prometheus.HistogramVec
}

// New builds the label schema from opts and registers the histogram with opts.Registerer.
// Registering options identical to an earlier interceptor's reuses its histogram.
func New(opts Options) (*Interceptor, error) {
	i := &Interceptor{
		opts:              opts,
		logger:            opts.logger(),
		includeController: opts.Routes != nil && opts.IncludeController,
		includeAction:     opts.Routes != nil && opts.IncludeAction,
	}
	i.labelNames = i.buildLabelNames()

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    opts.MetricName,
		Help:    helpPrefix + strings.Join(i.labelNames, ", "),
		Buckets: opts.Buckets,
	}, i.labelNames)

	var c prometheus.Collector = vec
	if opts.IncludeTimestamp {
		c = &timestampedHistogram{HistogramVec: vec, now: time.Now}
	}

	hist, reused, err := registerHistogram(opts.registerer(), c)
	if err != nil {
		return nil, err
	}
	i.hist = hist

	i.logger.WithFields(logrus.Fields{
		"metric": opts.MetricName,
		"labels": i.labelNames,
		"reused": reused,
	}).Info("Registered request duration histogram")

	return i, nil
}

// MustNew is like New but panics if the histogram cannot be registered.
func MustNew(opts Options) *Interceptor {
	i, err := New(opts)
	if err != nil {
		panic(err)
	}
	return i
}

// Middleware returns a net/http middleware measuring requests as configured by opts.
func Middleware(opts Options) (func(http.Handler) http.Handler, error) {
	i, err := New(opts)
	if err != nil {
		return nil, err
	}
	return i.Handler, nil
}

func (i *Interceptor) buildLabelNames() []string {
	var names []string
	if i.opts.IncludeStatusCode {
		names = append(names, LabelStatusCode)
	}
	if i.opts.IncludeMethod {
		names = append(names, LabelMethod)
	}
	if i.includeController {
		names = append(names, LabelController)
	}
	if i.includeAction {
		names = append(names, LabelAction)
	}
	if i.opts.IncludePath {
		names = append(names, LabelPath)
	}
	for _, l := range i.opts.CustomLabels {
		names = append(names, l.Name)
	}
	return names
}

// LabelNames returns the histogram's label names in the order values are recorded.
func (i *Interceptor) LabelNames() []string {
	return slices.Clone(i.labelNames)
}

// Invoke runs next, which must execute the downstream stage and return the
// response status it produced, and records its duration unless r is excluded.
// A panic in next is recorded with status 500 and keeps propagating.
func (i *Interceptor) Invoke(r *http.Request, next func() int) {
	var route Route
	if i.opts.Routes != nil {
		route, _ = i.opts.Routes.ResolveRoute(r)
	}
	path := i.normalizePath(i.requestPath(r, route))

	if reason, skip := i.skip(r, path); skip {
		if i.logger.IsLevelEnabled(logrus.DebugLevel) {
			i.logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   path,
				"reason": reason,
			}).Debug("Request excluded from duration histogram")
		}
		next()
		return
	}

	start := time.Now()
	status := 0
	panicked := true
	defer func() {
		if panicked {
			status = http.StatusInternalServerError
		}
		i.observe(r, route, path, status, time.Since(start))
	}()

	status = next()
	panicked = false
}

// Handler wraps next so that every request it serves goes through Invoke.
func (i *Interceptor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i.Invoke(r, func() int {
			rec := &statusRecorder{}
			next.ServeHTTP(rec.wrap(w), r)
			return rec.status
		})
	})
}

func (i *Interceptor) requestPath(r *http.Request, route Route) string {
	if i.opts.UseRouteName && route.Name != "" {
		return route.Name
	}
	return r.URL.Path
}

func (i *Interceptor) normalizePath(path string) string {
	for _, rw := range i.opts.CustomNormalizePath {
		path = rw.Pattern.ReplaceAllString(path, rw.Replacement)
	}
	return path
}

func (i *Interceptor) skip(r *http.Request, path string) (string, bool) {
	for _, prefix := range i.opts.IgnorePrefix {
		if strings.HasPrefix(path, prefix) {
			return "prefix", true
		}
	}
	for _, sub := range i.opts.IgnoreContains {
		if strings.Contains(path, sub) {
			return "contains", true
		}
	}
	if slices.Contains(i.opts.IgnoreExact, path) {
		return "exact", true
	}
	if i.opts.ShouldMeasureRequest != nil && !i.opts.ShouldMeasureRequest(r) {
		return "predicate", true
	}
	return "", false
}

func (i *Interceptor) observe(r *http.Request, route Route, path string, status int, elapsed time.Duration) {
	if status == 0 {
		// nothing written means net/http replies 200
		status = http.StatusOK
	}

	values := make([]string, 0, len(i.labelNames))
	if i.opts.IncludeStatusCode {
		values = append(values, strconv.Itoa(status))
	}
	if i.opts.IncludeMethod {
		values = append(values, r.Method)
	}
	if i.includeController {
		values = append(values, route.Controller)
	}
	if i.includeAction {
		values = append(values, route.Action)
	}
	if i.opts.IncludePath {
		values = append(values, path)
	}
	for _, l := range i.opts.CustomLabels {
		values = append(values, l.Value())
	}
	for n, v := range values {
		// decoded paths may carry arbitrary bytes, label values must be UTF-8
		values[n] = strings.ToValidUTF8(v, "\uFFFD")
	}

	obs, err := i.hist.GetMetricWithLabelValues(values...)
	if err != nil {
		i.logger.WithError(err).WithField("labels", values).Warn("Failed to observe request duration")
		return
	}
	obs.Observe(elapsed.Seconds())
}

// statusRecorder remembers the final status code written through a wrapped ResponseWriter.
type statusRecorder struct {
	status int
}

func (s *statusRecorder) wrap(w http.ResponseWriter) http.ResponseWriter {
	return httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				if s.status == 0 && (code >= http.StatusOK || code == http.StatusSwitchingProtocols) {
					s.status = code
				}
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				s.implicitOK()
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				s.implicitOK()
				return next(src)
			}
		},
	})
}

func (s *statusRecorder) implicitOK() {
	if s.status == 0 {
		s.status = http.StatusOK
	}
}
