package metrics

import "time"

// OutcomeLabel enumerates job outcomes for counters.
type OutcomeLabel string

const (
	OutcomeCompleted OutcomeLabel = "completed"
	OutcomeFailed    OutcomeLabel = "failed"
	OutcomeCanceled  OutcomeLabel = "canceled"
)

// DownloadLabel enumerates download results.
type DownloadLabel string

const (
	DownloadServed   DownloadLabel = "served"
	DownloadNotFound DownloadLabel = "not_found"
	DownloadAborted  DownloadLabel = "aborted"
)

// Direction labels content byte counters.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Recorder defines observability hooks for job and entry metrics.
type Recorder interface {
	ObserveJobDuration(d time.Duration)
	IncJobOutcome(outcome OutcomeLabel)
	IncEntry(kind string) // kind: file|directory
	AddContentBytes(dir Direction, n int64)
	IncDownload(result DownloadLabel)
	IncNotifyFailure()
	SetArtifactsSwept(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveJobDuration(time.Duration)   {}
func (NoopRecorder) IncJobOutcome(OutcomeLabel)         {}
func (NoopRecorder) IncEntry(string)                    {}
func (NoopRecorder) AddContentBytes(Direction, int64)   {}
func (NoopRecorder) IncDownload(DownloadLabel)          {}
func (NoopRecorder) IncNotifyFailure()                  {}
func (NoopRecorder) SetArtifactsSwept(int)              {}
