// Package notify publishes job lifecycle events.
package notify

import (
	"context"
	"time"
)

// Status values carried by Event.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Event describes the outcome of one archive job.
type Event struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	DownloadName string    `json:"download_name,omitempty"`
	Entries      int       `json:"entries"`
	Bytes        int64     `json:"bytes"`
	Digest       string    `json:"digest,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Notifier delivers job events. Delivery failures are reported to the caller,
// which decides whether they matter.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Close() error
}

// NoopNotifier discards every event.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Event) error { return nil }
func (NoopNotifier) Close() error                        { return nil }
