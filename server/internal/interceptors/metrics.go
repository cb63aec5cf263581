package interceptors

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hedisam/httpduration/lib/httpduration"
)

const (
	InstanceLabel = "instance_id"
)

// InstanceID identifies this process in the instance_id label.
var InstanceID = uuid.NewString()

// InterceptWithMetrics measures request durations as configured by opts, adding an
// instance_id label, and tracks in-flight requests under <namespace>_http_in_flight_requests.
func InterceptWithMetrics(namespace string, opts httpduration.Options, handler http.Handler) (http.Handler, error) {
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	inFlightGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})
	if err := reg.Register(inFlightGauge); err != nil {
		return nil, fmt.Errorf("register in-flight gauge: %w", err)
	}

	opts.CustomLabels = append(slices.Clone(opts.CustomLabels), httpduration.CustomLabel{
		Name:  InstanceLabel,
		Value: func() string { return InstanceID },
	})
	i, err := httpduration.New(opts)
	if err != nil {
		return nil, fmt.Errorf("create request duration interceptor: %w", err)
	}

	return promhttp.InstrumentHandlerInFlight(inFlightGauge, i.Handler(handler)), nil
}
