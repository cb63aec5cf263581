package httpduration_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

type observation struct {
	labels  map[string]string
	count   uint64
	metric  *dto.Metric
	buckets []float64
}

// gather returns one entry per label tuple observed for the named histogram.
func gather(t *testing.T, reg *prometheus.Registry, name string) []observation {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	var out []observation
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			obs := observation{
				labels: make(map[string]string),
				count:  m.GetHistogram().GetSampleCount(),
				metric: m,
			}
			for _, lp := range m.GetLabel() {
				obs.labels[lp.GetName()] = lp.GetValue()
			}
			for _, b := range m.GetHistogram().GetBucket() {
				obs.buckets = append(obs.buckets, b.GetUpperBound())
			}
			out = append(out, obs)
		}
	}
	return out
}

// labelTuple reorders labels following names.
func labelTuple(names []string, labels map[string]string) []string {
	tuple := make([]string, 0, len(names))
	for _, n := range names {
		tuple = append(tuple, labels[n])
	}
	return tuple
}
