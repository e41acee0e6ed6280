package jobstore

import "time"

// Status is the retrieval state of an artifact.
type Status string

const (
	StatusReady   Status = "ready"
	StatusServing Status = "serving"
)

// Artifact describes one produced archive awaiting download.
type Artifact struct {
	ID           string
	DownloadName string
	OriginalName string
	Path         string
	Size         int64
	Digest       string
	Entries      int
	Status       Status
	CreatedAt    time.Time
	ClaimedAt    time.Time
}

// Event is one entry of a job's history.
type Event struct {
	ID        int64
	JobID     string
	Type      string
	Detail    string
	Timestamp time.Time
}

// Event types recorded by the job service.
const (
	EventSubmitted  = "submitted"
	EventCompleted  = "completed"
	EventFailed     = "failed"
	EventDownloaded = "downloaded"
	EventExpired    = "expired"
)
