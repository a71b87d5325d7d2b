package web

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/taskmeshio/taskmesh/pkg/core"
	"github.com/taskmeshio/taskmesh/pkg/health"
)

// MetricsExporter renders metrics in the Prometheus text format.
type MetricsExporter interface {
	Export() (string, error)
}

// AdminServer exposes the pool's operational surface over HTTP:
// GET /metrics, GET /healthz (liveness) and GET /readyz (readiness).
// It is never on the task submission path.
type AdminServer struct {
	addr    string
	server  *fasthttp.Server
	metrics MetricsExporter
	monitor *health.Monitor
	logger  core.Logger
}

// AdminServerConfig configures the admin server.
type AdminServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultAdminServerConfig returns default configuration.
func DefaultAdminServerConfig(addr string) AdminServerConfig {
	return AdminServerConfig{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// NewAdminServer creates the admin server. metrics may be nil, in which
// case /metrics serves 404.
func NewAdminServer(cfg AdminServerConfig, metrics MetricsExporter, monitor *health.Monitor, logger core.Logger) *AdminServer {
	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	s := &AdminServer{
		addr:    cfg.Addr,
		metrics: metrics,
		monitor: monitor,
		logger:  logger,
	}
	s.server = &fasthttp.Server{
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the request handler, exposed for tests and embedding.
func (s *AdminServer) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/metrics":
			s.handleMetrics(ctx)
		case "/healthz":
			s.writeProbe(ctx, s.monitor.Liveness())
		case "/readyz":
			s.writeProbe(ctx, s.monitor.Readiness())
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
}

func (s *AdminServer) handleMetrics(ctx *fasthttp.RequestCtx) {
	if s.metrics == nil {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	text, err := s.metrics.Export()
	if err != nil {
		s.logger.Errorf("metrics export failed: %v", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("text/plain; version=0.0.4; charset=utf-8")
	ctx.SetBodyString(text)
}

func (s *AdminServer) writeProbe(ctx *fasthttp.RequestCtx, status health.Status) {
	body, err := json.Marshal(status)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	if status.Healthy() {
		ctx.SetStatusCode(fasthttp.StatusOK)
	} else {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// Start begins serving in a background goroutine.
func (s *AdminServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Infof("admin server listening on %s", s.addr)
	go func() {
		if err := s.server.Serve(ln); err != nil {
			s.logger.Errorf("admin server stopped: %v", err)
		}
	}()
	return nil
}

// Serve serves on a caller-provided listener. Blocks until the listener
// closes; used by tests with in-memory listeners.
func (s *AdminServer) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

// Stop gracefully shuts the server down.
func (s *AdminServer) Stop(ctx context.Context) error {
	return s.server.ShutdownWithContext(ctx)
}
