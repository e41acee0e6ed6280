// Package janitor periodically removes artifacts nobody downloaded.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

// Sweeper removes artifacts older than ttl and reports how many it removed.
type Sweeper interface {
	Sweep(ctx context.Context, ttl time.Duration) (int, error)
}

// Janitor runs a Sweeper on a fixed interval.
type Janitor struct {
	scheduler gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	ttl       time.Duration
}

// New creates a janitor. interval and ttl must be positive.
func New(sweeper Sweeper, interval, ttl time.Duration) (*Janitor, error) {
	if sweeper == nil {
		return nil, derrors.ValidationError("sweeper is required").Build()
	}
	if interval <= 0 {
		return nil, derrors.ValidationError("sweep interval must be > 0").Build()
	}
	if ttl <= 0 {
		return nil, derrors.ValidationError("artifact ttl must be > 0").Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Janitor{scheduler: s, sweeper: sweeper, interval: interval, ttl: ttl}, nil
}

// Run sweeps once immediately, then every interval, until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	_, err := j.scheduler.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.sweep, ctx),
		gocron.WithName("artifact-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = j.scheduler.Shutdown()
		return fmt.Errorf("failed to schedule artifact sweep: %w", err)
	}

	slog.Info("Starting janitor",
		slog.Duration("interval", j.interval),
		slog.Duration("ttl", j.ttl))
	j.scheduler.Start()
	<-ctx.Done()

	slog.Info("Stopping janitor")
	return j.scheduler.Shutdown()
}

func (j *Janitor) sweep(ctx context.Context) {
	start := time.Now()
	n, err := j.sweeper.Sweep(ctx, j.ttl)
	if err != nil {
		slog.Error("Artifact sweep failed", logfields.Error(err))
		return
	}
	if n > 0 {
		slog.Info("Removed expired artifacts",
			slog.Int("count", n),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000.0))
		return
	}
	slog.Debug("Artifact sweep found nothing to remove")
}
