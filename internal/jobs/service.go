package jobs

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/jobstore"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
	"git.home.luguber.info/inful/dotrewrite/internal/notify"
	"git.home.luguber.info/inful/dotrewrite/internal/observability"
	"git.home.luguber.info/inful/dotrewrite/internal/pipeline"
)

// Store is the job registry used by Service.
type Store interface {
	Create(ctx context.Context, a jobstore.Artifact) error
	Claim(ctx context.Context, id string) (jobstore.Artifact, error)
	Release(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Expired(ctx context.Context, cutoff time.Time) ([]jobstore.Artifact, error)
	ResetClaims(ctx context.Context) (int64, error)
	AppendEvent(ctx context.Context, jobID, eventType, detail string) error
	Events(ctx context.Context, jobID string) ([]jobstore.Event, error)
	PruneEvents(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// Workspace provides per-job directories.
type Workspace interface {
	JobDir(id string) (string, error)
	RemoveJob(id string) error
}

// Job is the outcome of a successful Submit.
type Job struct {
	ID           string
	DownloadName string
	Digest       string
	Size         int64
	Result       pipeline.Result
}

// Service coordinates the pipeline with storage and notification.
type Service struct {
	store     Store
	workspace Workspace
	pipeline  *pipeline.Pipeline
	notifier  notify.Notifier
	recorder  metrics.Recorder
	now       func() time.Time
	newID     func() string

	notifications sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets where job events are published.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService wires a job service.
func NewService(store Store, ws Workspace, p *pipeline.Pipeline, opts ...Option) *Service {
	s := &Service{
		store:     store,
		workspace: ws,
		pipeline:  p,
		notifier:  notify.NoopNotifier{},
		recorder:  metrics.NoopRecorder{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recover returns artifacts left claimed by a previous process to ready.
func (s *Service) Recover(ctx context.Context) error {
	n, err := s.store.ResetClaims(ctx)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to reset artifact claims").Build()
	}
	if n > 0 {
		slog.Info("Released stale artifact claims", slog.Int64("count", n))
	}
	return nil
}

// Submit transforms src into a new job. On failure the job directory is
// removed and nothing is registered.
func (s *Service) Submit(ctx context.Context, src io.Reader, originalName string) (Job, error) {
	id := s.newID()
	ctx = observability.WithJobID(ctx, id)
	ctx, span := observability.StartSpan(ctx, "transform")

	s.appendEvent(ctx, id, jobstore.EventSubmitted, originalName)
	job, err := s.run(ctx, id, src, originalName)
	elapsed := span.End(err)
	s.recorder.ObserveJobDuration(elapsed)

	if err != nil {
		if rmErr := s.workspace.RemoveJob(id); rmErr != nil {
			observability.WarnContext(ctx, "Failed to remove job directory", logfields.Error(rmErr))
		}
		outcome := metrics.OutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		s.recorder.IncJobOutcome(outcome)
		s.appendEvent(ctx, id, jobstore.EventFailed, errorMessage(err))
		s.publish(ctx, notify.Event{JobID: id, Status: notify.StatusFailed, Error: errorMessage(err)})
		return Job{}, err
	}

	s.recorder.IncJobOutcome(metrics.OutcomeCompleted)
	s.appendEvent(ctx, id, jobstore.EventCompleted, job.Digest)
	s.publish(ctx, notify.Event{
		JobID:        id,
		Status:       notify.StatusCompleted,
		DownloadName: job.DownloadName,
		Entries:      job.Result.Entries,
		Bytes:        job.Size,
		Digest:       job.Digest,
	})
	observability.InfoContext(ctx, "Job completed",
		logfields.DownloadName(job.DownloadName),
		logfields.Entries(job.Result.Entries),
		logfields.Bytes(job.Size),
		logfields.Digest(job.Digest),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000.0))
	return job, nil
}

func (s *Service) run(ctx context.Context, id string, src io.Reader, originalName string) (Job, error) {
	dir, err := s.workspace.JobDir(id)
	if err != nil {
		return Job{}, err
	}
	name := pipeline.DownloadName(originalName)
	outPath := filepath.Join(dir, name)
	f, err := os.Create(outPath) // #nosec G304 -- path is built from a generated id and a sanitized name
	if err != nil {
		return Job{}, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create output file").Build()
	}

	hasher := blake3.New()
	res, err := s.pipeline.TransformArchive(ctx, src, originalName, io.MultiWriter(f, hasher))
	if err != nil {
		_ = f.Close()
		return Job{}, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return Job{}, derrors.WrapError(err, derrors.CategoryOutputWrite, "failed to sync output archive").Build()
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Job{}, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to stat output archive").Build()
	}
	if err := f.Close(); err != nil {
		return Job{}, derrors.WrapError(err, derrors.CategoryOutputWrite, "failed to close output archive").Build()
	}

	job := Job{
		ID:           id,
		DownloadName: res.DownloadName,
		Digest:       hex.EncodeToString(hasher.Sum(nil)),
		Size:         info.Size(),
		Result:       res,
	}
	err = s.store.Create(ctx, jobstore.Artifact{
		ID:           id,
		DownloadName: job.DownloadName,
		OriginalName: originalName,
		Path:         outPath,
		Size:         job.Size,
		Digest:       job.Digest,
		Entries:      res.Entries,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return Job{}, derrors.WrapError(err, derrors.CategoryInternal, "failed to register artifact").Build()
	}
	return job, nil
}

// History returns the recorded events of job id.
func (s *Service) History(ctx context.Context, id string) ([]jobstore.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, derrors.NotFoundError("job not found").WithContext("job_id", id).Build()
	}
	events, err := s.store.Events(ctx, id)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "failed to load job history").Build()
	}
	if len(events) == 0 {
		return nil, derrors.NotFoundError("job not found").WithContext("job_id", id).Build()
	}
	return events, nil
}

// Ping reports whether the job registry is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close waits for in-flight notifications.
func (s *Service) Close() {
	s.notifications.Wait()
}

func (s *Service) appendEvent(ctx context.Context, id, eventType, detail string) {
	if err := s.store.AppendEvent(ctx, id, eventType, detail); err != nil {
		observability.WarnContext(ctx, "Failed to record job event",
			slog.String("event", eventType), logfields.Error(err))
	}
}

// publish delivers ev in the background; a slow broker never delays the caller.
func (s *Service) publish(ctx context.Context, ev notify.Event) {
	ev.Timestamp = s.now().UTC()
	ctx = context.WithoutCancel(ctx)
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.recorder.IncNotifyFailure()
			observability.WarnContext(ctx, "Failed to publish job event",
				logfields.JobStatus(ev.Status), logfields.Error(err))
		}
	}()
}

func errorMessage(err error) string {
	if ce, ok := derrors.AsClassified(err); ok {
		return ce.Message()
	}
	return err.Error()
}
