package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	restapi "github.com/hedisam/httpduration/server/api/rest"
	"github.com/hedisam/httpduration/server/internal/interceptors"
)

const (
	appName = "httpduration-demo"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.AddHook(&interceptors.TraceHook{})

	opts, err := parseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.WithError(err).Fatal("Invalid command line options")
	}
	if opts.Quiet {
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	restapi.NewDemoServer(logger, opts.MaxSleep).Register(mux)
	// Expose the registered metrics via HTTP
	mux.Handle("GET /metrics", promhttp.Handler())

	shutdown := mustInitTracer(logger, appName, opts.TraceSampleRatio)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.WithError(err).Error("Failed to shutdown tracer")
		}
	}()

	handler, err := interceptors.InterceptWithMetrics("httpduration_demo", opts.durationOptions(logger, mux), mux)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize request metrics")
	}
	handler = otelhttp.NewHandler(handler, appName)

	srv := &http.Server{
		Addr:              opts.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.MaxSleep+time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown server gracefully")
		}
	}()

	logger.WithField("addr", opts.ServerAddr).Info("Starting server")
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Server failed with error")
	}
	logger.Info("Server stopped")
}

func mustInitTracer(logger *logrus.Logger, appName string, sampleRatio float64) func(context.Context) error {
	exp, err := interceptors.NewSTDOUTExporter(true)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize STDOUT trace exporter")
	}

	tp, err := interceptors.RegisterTraceProvider(appName, exp, sampleRatio)
	if err != nil {
		logger.WithError(err).Fatal("Failed to register trace provider")
	}

	return tp.Shutdown
}
