package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/dotrewrite/internal/config"
	"git.home.luguber.info/inful/dotrewrite/internal/janitor"
	"git.home.luguber.info/inful/dotrewrite/internal/jobs"
	"git.home.luguber.info/inful/dotrewrite/internal/jobstore"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
	"git.home.luguber.info/inful/dotrewrite/internal/notify"
	"git.home.luguber.info/inful/dotrewrite/internal/server/httpserver"
	"git.home.luguber.info/inful/dotrewrite/internal/version"
	"git.home.luguber.info/inful/dotrewrite/internal/workspace"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Address string `short:"a" help:"Listen address (overrides server.address)"`
	DataDir string `short:"d" name:"data-dir" help:"Data directory (overrides storage.data_dir)"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	s.applyOverrides(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, cfg)
}

func (s *ServeCmd) applyOverrides(cfg *config.Config) {
	if s.Address != "" {
		cfg.Server.Address = s.Address
	}
	if s.DataDir != "" {
		if cfg.Storage.Database == filepath.Join(cfg.Storage.DataDir, "jobs.db") {
			cfg.Storage.Database = filepath.Join(s.DataDir, "jobs.db")
		}
		cfg.Storage.DataDir = s.DataDir
	}
}

// RunServe runs the HTTP service, and the janitor when a TTL is configured,
// until ctx is canceled or one of them fails.
func RunServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("Starting dotrewrite",
		slog.String("version", version.Current()),
		slog.String("address", cfg.Server.Address),
		logfields.Path(cfg.Storage.DataDir))

	ws := workspace.NewPersistentManager(cfg.Storage.DataDir)
	if err := ws.Create(); err != nil {
		return err
	}

	store, err := jobstore.NewSQLiteStore(cfg.Storage.Database)
	if err != nil {
		return fmt.Errorf("open job registry: %w", err)
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Monitoring.Metrics.Enabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec = metrics.NewPrometheusRecorder(reg)
	}

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.Notify.Enabled() {
		n, err := notify.NewNATSNotifier(cfg.Notify)
		if err != nil {
			return err
		}
		notifier = n
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			slog.Warn("Failed to close notifier", logfields.Error(err))
		}
	}()

	svc := jobs.NewService(store, ws, newPipeline(cfg, rec, ws),
		jobs.WithNotifier(notifier),
		jobs.WithRecorder(rec))
	defer svc.Close()
	if err := svc.Recover(ctx); err != nil {
		return err
	}

	srv := httpserver.New(cfg, svc, httpserver.Options{
		MetricsHandler: metrics.HTTPHandler(reg),
		StartTime:      time.Now(),
	})

	var j *janitor.Janitor
	interval, ttl := cfg.Cleanup.IntervalDuration(), cfg.Cleanup.TTLDuration()
	if interval > 0 && ttl > 0 {
		if j, err = janitor.New(svc, interval, ttl); err != nil {
			return err
		}
	} else {
		slog.Info("Artifact cleanup disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	if j != nil {
		g.Go(func() error { return j.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("dotrewrite stopped")
	return nil
}
