package main

import (
	"flag"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hedisam/httpduration/lib/httpduration"
)

// Options defines a set of config options.
type Options struct {
	ServerAddr       string
	Quiet            bool
	MaxSleep         time.Duration
	TraceSampleRatio float64

	MetricName       string
	IncludeTimestamp bool
	UseRouteName     bool
	IgnorePrefix     []string
	IgnoreContains   []string
	IgnoreExact      []string
	Buckets          []float64
	NormalizePath    []httpduration.PathRewrite
	SkipHeader       string
}

func parseOptions(fs *flag.FlagSet, args []string) (*Options, error) {
	opts := &Options{
		IgnorePrefix: []string{"/healthz"},
		IgnoreExact:  []string{"/metrics"},
	}

	fs.StringVar(&opts.ServerAddr, "server-addr", "localhost:8080", "Address to listen on")
	fs.BoolVar(&opts.Quiet, "quiet", false, "Quiet output")
	fs.DurationVar(&opts.MaxSleep, "max-sleep", 10*time.Second, "Longest duration accepted by the sleep endpoint")
	fs.Float64Var(&opts.TraceSampleRatio, "trace-sample-ratio", 0.1, "Fraction of new traces to sample")
	fs.StringVar(&opts.MetricName, "metric-name", httpduration.DefaultMetricName, "Name of the request duration histogram")
	fs.BoolVar(&opts.IncludeTimestamp, "include-timestamp", false, "Expose histogram samples with a timestamp")
	fs.BoolVar(&opts.UseRouteName, "use-route-name", true, "Label requests with their route pattern instead of the raw path")
	fs.StringVar(&opts.SkipHeader, "skip-header", "", "Requests carrying this header are not measured")
	fs.Func("ignore-prefix", "Comma separated path prefixes excluded from measurement (default \"/healthz\")", func(s string) error {
		opts.IgnorePrefix = splitList(s)
		return nil
	})
	fs.Func("ignore-contains", "Comma separated path substrings excluded from measurement", func(s string) error {
		opts.IgnoreContains = splitList(s)
		return nil
	})
	fs.Func("ignore-exact", "Comma separated paths excluded from measurement (default \"/metrics\")", func(s string) error {
		opts.IgnoreExact = splitList(s)
		return nil
	})
	fs.Func("buckets", "Comma separated histogram bucket upper bounds in seconds", func(s string) error {
		buckets, err := parseBuckets(s)
		if err != nil {
			return err
		}
		opts.Buckets = buckets
		return nil
	})
	fs.Func("normalize-path", "Path rewrite as regexp=replacement, split at the last '='; repeat to apply several in order", func(s string) error {
		rewrite, err := parseRewrite(s)
		if err != nil {
			return err
		}
		opts.NormalizePath = append(opts.NormalizePath, rewrite)
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// durationOptions maps the command line options onto the interceptor configuration.
func (o *Options) durationOptions(logger *logrus.Logger, mux *http.ServeMux) httpduration.Options {
	d := httpduration.DefaultOptions()
	d.MetricName = o.MetricName
	d.IncludeTimestamp = o.IncludeTimestamp
	d.IncludeController = true
	d.IncludeAction = true
	d.UseRouteName = o.UseRouteName
	d.IgnorePrefix = o.IgnorePrefix
	d.IgnoreContains = o.IgnoreContains
	d.IgnoreExact = o.IgnoreExact
	d.Buckets = o.Buckets
	d.CustomNormalizePath = o.NormalizePath
	d.Routes = httpduration.ServeMuxRoutes(mux)
	d.Logger = logger
	if header := o.SkipHeader; header != "" {
		d.ShouldMeasureRequest = func(r *http.Request) bool {
			return r.Header.Get(header) == ""
		}
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBuckets(s string) ([]float64, error) {
	var buckets []float64
	for _, item := range splitList(s) {
		b, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bucket %q: %w", item, err)
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func parseRewrite(s string) (httpduration.PathRewrite, error) {
	sep := strings.LastIndexByte(s, '=')
	if sep < 0 {
		return httpduration.PathRewrite{}, fmt.Errorf("invalid path rewrite %q: expected regexp=replacement", s)
	}
	re, err := regexp.Compile(s[:sep])
	if err != nil {
		return httpduration.PathRewrite{}, fmt.Errorf("invalid path rewrite %q: %w", s, err)
	}
	return httpduration.PathRewrite{Pattern: re, Replacement: s[sep+1:]}, nil
}
