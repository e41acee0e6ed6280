// Package httpserver wires the dotrewrite HTTP endpoints onto one listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"git.home.luguber.info/inful/dotrewrite/internal/config"
	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	handlers "git.home.luguber.info/inful/dotrewrite/internal/server/handlers"
	smw "git.home.luguber.info/inful/dotrewrite/internal/server/middleware"
)

// Service is what the HTTP layer needs from the job layer.
type Service interface {
	handlers.JobService
	handlers.Pinger
}

// Options configures optional endpoints.
type Options struct {
	// MetricsHandler is mounted at monitoring.metrics.path when metrics are enabled.
	MetricsHandler http.Handler
	StartTime      time.Time
}

// Server serves uploads, downloads and monitoring endpoints.
type Server struct {
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	monitoringHandlers *handlers.MonitoringHandlers
	jobHandlers        *handlers.JobHandlers

	mchain  func(http.Handler) http.Handler
	handler http.Handler
}

// New constructs the server and its routes.
func New(cfg *config.Config, svc Service, opts Options) *Server {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}
	s.monitoringHandlers = handlers.NewMonitoringHandlers(svc, opts.StartTime)
	s.jobHandlers = handlers.NewJobHandlers(svc, cfg.Server.DownloadPath, cfg.Server.MaxUploadBytes)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	s.handler = s.mchain(s.routes())
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+s.cfg.Server.UploadPath, s.jobHandlers.HandleUpload)
	mux.HandleFunc("GET "+s.cfg.Server.DownloadPath+"/{id}", s.jobHandlers.HandleDownload)
	mux.HandleFunc("GET /jobs/{id}", s.jobHandlers.HandleHistory)

	mux.HandleFunc("GET "+s.cfg.Monitoring.Health.Path, s.monitoringHandlers.HandleHealthCheck)
	if s.cfg.Monitoring.Health.Path != "/healthz" {
		mux.HandleFunc("GET /healthz", s.monitoringHandlers.HandleHealthCheck) // Kubernetes-style alias
	}
	mux.HandleFunc("GET /ready", s.monitoringHandlers.HandleReadiness)
	mux.HandleFunc("GET /readyz", s.monitoringHandlers.HandleReadiness)

	if s.cfg.Monitoring.Metrics.Enabled && s.opts.MetricsHandler != nil {
		mux.Handle("GET "+s.cfg.Monitoring.Metrics.Path, s.opts.MetricsHandler)
	}
	return mux
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve binds server.address and serves until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done, then shuts down gracefully
// within server.shutdown_timeout.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	if n := s.cfg.Server.MaxConnections; n > 0 {
		ln = netutil.LimitListener(ln, n)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeoutDuration(),
		WriteTimeout:      s.cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("HTTP server started",
		slog.String("address", ln.Addr().String()),
		logfields.Path(s.cfg.Server.UploadPath),
		slog.Int("max_connections", s.cfg.Server.MaxConnections))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
