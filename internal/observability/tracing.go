package observability

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

// Span times a named unit of work and logs its duration when ended.
type Span struct {
	ctx   context.Context
	name  string
	start time.Time
	now   func() time.Time
}

// StartSpan begins a span. The returned context carries name as its stage.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	ctx = WithStage(ctx, name)
	s := &Span{ctx: ctx, name: name, start: time.Now(), now: time.Now}
	DebugContext(ctx, "span started")
	return ctx, s
}

// Elapsed reports the time since the span started.
func (s *Span) Elapsed() time.Duration {
	return s.now().Sub(s.start)
}

// End logs the span duration, at error level when err is non-nil.
func (s *Span) End(err error) time.Duration {
	d := s.Elapsed()
	ms := float64(d.Microseconds()) / 1000.0
	if err != nil {
		ErrorContext(s.ctx, "span failed", logfields.DurationMS(ms), logfields.Error(err))
		return d
	}
	logWithContext(s.ctx, slog.LevelDebug, "span ended", []slog.Attr{logfields.DurationMS(ms)})
	return d
}
