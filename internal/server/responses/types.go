// Package responses defines API response types used by dotrewrite HTTP handlers.
package responses

import "time"

// UploadResponse is returned after an archive has been transformed.
// Field names match the original upload API.
type UploadResponse struct {
	Message          string `json:"message"`
	DownloadURL      string `json:"downloadUrl"`
	OriginalFileName string `json:"originalFileName"`
	JobID            string `json:"jobId"`
	Digest           string `json:"digest"`
	Entries          int    `json:"entries"`
	Size             int64  `json:"size"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// ReadinessResponse reports whether dependencies are reachable.
type ReadinessResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// JobHistoryResponse lists the recorded events of one job.
type JobHistoryResponse struct {
	JobID  string     `json:"job_id"`
	Events []JobEvent `json:"events"`
}

// JobEvent is one entry of a job history.
type JobEvent struct {
	Type      string    `json:"type"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
