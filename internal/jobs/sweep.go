package jobs

import (
	"context"
	"time"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/jobstore"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/observability"
)

// Sweep removes artifacts older than ttl, and job history older than ttl.
// It returns the number of artifacts removed.
func (s *Service) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.now().Add(-ttl)
	expired, err := s.store.Expired(ctx, cutoff)
	if err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryInternal, "failed to list expired artifacts").Build()
	}

	removed := 0
	for _, a := range expired {
		if err := ctx.Err(); err != nil {
			s.recorder.SetArtifactsSwept(removed)
			return removed, err
		}
		jctx := observability.WithJobID(ctx, a.ID)
		if err := s.workspace.RemoveJob(a.ID); err != nil {
			observability.WarnContext(jctx, "Failed to remove expired job directory", logfields.Error(err))
			continue
		}
		if err := s.store.Delete(ctx, a.ID); err != nil {
			observability.WarnContext(jctx, "Failed to delete expired artifact", logfields.Error(err))
			continue
		}
		s.appendEvent(jctx, a.ID, jobstore.EventExpired, a.DownloadName)
		removed++
	}

	if _, err := s.store.PruneEvents(ctx, cutoff); err != nil {
		observability.WarnContext(ctx, "Failed to prune job history", logfields.Error(err))
	}
	s.recorder.SetArtifactsSwept(removed)
	return removed, nil
}
