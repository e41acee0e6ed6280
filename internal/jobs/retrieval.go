package jobs

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/jobstore"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/metrics"
	"git.home.luguber.info/inful/dotrewrite/internal/observability"
)

// Retrieval is an exclusive claim on one artifact. Exactly one of Complete
// or Abort must be called.
type Retrieval struct {
	Artifact jobstore.Artifact

	svc  *Service
	done bool
}

// Retrieve claims the artifact of job id. Unknown, malformed and already
// claimed ids are all reported as not found.
func (s *Service) Retrieve(ctx context.Context, id string) (*Retrieval, error) {
	notFound := func() error {
		s.recorder.IncDownload(metrics.DownloadNotFound)
		return derrors.NotFoundError("File not found").WithContext("job_id", id).Build()
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound()
	}
	a, err := s.store.Claim(ctx, id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			return nil, notFound()
		}
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "failed to claim artifact").Build()
	}
	return &Retrieval{Artifact: a, svc: s}, nil
}

// Open opens the artifact file. A missing file drops the registration and
// reports not found.
func (r *Retrieval) Open(ctx context.Context) (*os.File, error) {
	f, err := os.Open(r.Artifact.Path)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		r.done = true
		_ = r.svc.store.Delete(ctx, r.Artifact.ID)
		r.svc.recorder.IncDownload(metrics.DownloadNotFound)
		return nil, derrors.NotFoundError("File not found").WithContext("job_id", r.Artifact.ID).Build()
	}
	return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to open artifact").Build()
}

// Complete removes the artifact after a successful transfer.
func (r *Retrieval) Complete(ctx context.Context) error {
	if r.done {
		return nil
	}
	r.done = true
	ctx = observability.WithJobID(ctx, r.Artifact.ID)
	if err := r.svc.store.Delete(ctx, r.Artifact.ID); err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to delete artifact").Build()
	}
	if err := r.svc.workspace.RemoveJob(r.Artifact.ID); err != nil {
		observability.WarnContext(ctx, "Failed to remove job directory", logfields.Error(err))
	}
	r.svc.recorder.IncDownload(metrics.DownloadServed)
	r.svc.appendEvent(ctx, r.Artifact.ID, jobstore.EventDownloaded, r.Artifact.DownloadName)
	observability.InfoContext(ctx, "Artifact downloaded", logfields.DownloadName(r.Artifact.DownloadName))
	return nil
}

// Abort releases the claim so the artifact can be retrieved again.
func (r *Retrieval) Abort(ctx context.Context) error {
	if r.done {
		return nil
	}
	r.done = true
	r.svc.recorder.IncDownload(metrics.DownloadAborted)
	if err := r.svc.store.Release(ctx, r.Artifact.ID); err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to release artifact").Build()
	}
	return nil
}
