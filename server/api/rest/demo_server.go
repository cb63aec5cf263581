package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DemoServer serves endpoints with controllable latency and outcome, for
// exercising the request duration histogram.
type DemoServer struct {
	logger   *logrus.Logger
	maxSleep time.Duration
}

func NewDemoServer(logger *logrus.Logger, maxSleep time.Duration) *DemoServer {
	return &DemoServer{
		logger:   logger,
		maxSleep: maxSleep,
	}
}

// Register adds every demo endpoint to mux.
func (s *DemoServer) Register(mux Mux) {
	RegisterFunc(s.logger, mux, Endpoint{Method: http.MethodGet, Path: "/v1/echo/{message}", Controller: "Demo", Action: "Echo"}, s.Echo)
	RegisterFunc(s.logger, mux, Endpoint{Method: http.MethodGet, Path: "/v1/status/{code}", Controller: "Demo", Action: "Status"}, s.Status)
	RegisterFunc(s.logger, mux, Endpoint{Method: http.MethodGet, Path: "/v1/sleep/{millis}", Controller: "Demo", Action: "Sleep"}, s.Sleep)
	RegisterFunc(s.logger, mux, Endpoint{Method: http.MethodGet, Path: "/v1/panic", Controller: "Demo", Action: "Panic"}, s.Panic)
	RegisterFunc(s.logger, mux, Endpoint{Method: http.MethodGet, Path: "/healthz/{probe}", Controller: "Health", Action: "Probe"}, s.Health)
}

func (s *DemoServer) Echo(_ context.Context, req *EchoRequest) (*EchoResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, NewErrf(http.StatusBadRequest, "invalid request: 'message' is required")
	}
	return &EchoResponse{Message: msg}, nil
}

func (s *DemoServer) Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error) {
	code, err := strconv.Atoi(req.Code)
	if err != nil || code < 200 || code > 599 {
		return nil, NewErrf(http.StatusBadRequest, "invalid status code %q", req.Code)
	}

	s.logger.WithContext(ctx).WithField("code", code).Debug("Replying with requested status")
	if code >= http.StatusBadRequest {
		return nil, NewErrf(code, "%s", http.StatusText(code))
	}
	return &StatusResponse{Code: code}, nil
}

func (s *DemoServer) Sleep(ctx context.Context, req *SleepRequest) (*SleepResponse, error) {
	millis, err := strconv.ParseInt(req.Millis, 10, 64)
	if err != nil || millis < 0 {
		return nil, NewErrf(http.StatusBadRequest, "invalid sleep duration %q", req.Millis)
	}
	d := time.Duration(millis) * time.Millisecond
	if d > s.maxSleep {
		return nil, NewErrf(http.StatusBadRequest, "sleep duration exceeds %s", s.maxSleep)
	}

	start := time.Now()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(d):
	}

	return &SleepResponse{Slept: time.Since(start).String()}, nil
}

func (s *DemoServer) Panic(context.Context, *PanicRequest) (*PanicResponse, error) {
	panic("demo panic")
}

func (s *DemoServer) Health(_ context.Context, req *HealthRequest) (*HealthResponse, error) {
	switch req.Probe {
	case "live", "ready":
		return &HealthResponse{Status: "ok"}, nil
	default:
		return nil, NewErrf(http.StatusNotFound, "unknown probe %q", req.Probe)
	}
}

type EchoRequest struct {
	Message string `json:"message"`
}

type EchoResponse struct {
	Message string `json:"message"`
}

type StatusRequest struct {
	Code string `json:"code"`
}

type StatusResponse struct {
	Code int `json:"code"`
}

// StatusCode implements StatusCoder.
func (r *StatusResponse) StatusCode() int {
	if r == nil {
		return 0
	}
	return r.Code
}

type SleepRequest struct {
	Millis string `json:"millis"`
}

type SleepResponse struct {
	Slept string `json:"slept"`
}

type PanicRequest struct{}

type PanicResponse struct{}

type HealthRequest struct {
	Probe string `json:"probe"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
