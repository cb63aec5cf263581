package httpduration

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrNoHistogram is returned by New when the metric name is taken by a collector
	// with an identical descriptor that is not a histogram vector.
	ErrNoHistogram = errors.New("registered collector is not a histogram vector")
)

// timestampedHistogram stamps every collected histogram with the collection time.
type timestampedHistogram struct {
	*prometheus.HistogramVec
	now func() time.Time
}

func (t *timestampedHistogram) Collect(ch chan<- prometheus.Metric) {
	metrics := make(chan prometheus.Metric)
	go func() {
		t.HistogramVec.Collect(metrics)
		close(metrics)
	}()

	ts := t.now()
	for m := range metrics {
		ch <- prometheus.NewMetricWithTimestamp(ts, m)
	}
}

// registerHistogram registers c and returns the histogram vector to observe into.
// An identical collector registered earlier is reused instead of failing.
func registerHistogram(reg prometheus.Registerer, c prometheus.Collector) (*prometheus.HistogramVec, bool, error) {
	reused := false
	err := reg.Register(c)
	if err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, false, fmt.Errorf("register histogram: %w", err)
		}
		c = are.ExistingCollector
		reused = true
	}

	switch c := c.(type) {
	case *prometheus.HistogramVec:
		return c, reused, nil
	case *timestampedHistogram:
		return c.HistogramVec, reused, nil
	default:
		return nil, false, fmt.Errorf("register histogram (%T): %w", c, ErrNoHistogram)
	}
}
