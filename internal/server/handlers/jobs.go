package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/jobs"
	"git.home.luguber.info/inful/dotrewrite/internal/jobstore"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/observability"
	"git.home.luguber.info/inful/dotrewrite/internal/server/responses"
)

// UploadField is the multipart field carrying the archive.
const UploadField = "file"

// DigestHeader carries the BLAKE3 digest of a downloaded archive.
const DigestHeader = "X-Content-Blake3"

// JobService is the job layer used by JobHandlers.
type JobService interface {
	Submit(ctx context.Context, src io.Reader, originalName string) (jobs.Job, error)
	Retrieve(ctx context.Context, id string) (*jobs.Retrieval, error)
	History(ctx context.Context, id string) ([]jobstore.Event, error)
}

// JobHandlers serve archive upload and download.
type JobHandlers struct {
	svc            JobService
	downloadPath   string
	maxUploadBytes int64
	errorAdapter   *derrors.HTTPErrorAdapter
}

// NewJobHandlers creates job handlers. downloadPath is the URL prefix that
// download links are built from; maxUploadBytes of 0 disables the cap.
func NewJobHandlers(svc JobService, downloadPath string, maxUploadBytes int64) *JobHandlers {
	return &JobHandlers{
		svc:            svc,
		downloadPath:   downloadPath,
		maxUploadBytes: maxUploadBytes,
		errorAdapter:   derrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleUpload transforms the archive in the "file" multipart field.
func (h *JobHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("No file uploaded.").WithCause(err).Build())
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.errorAdapter.WriteErrorResponse(w, r, uploadError(err))
			return
		}
		if part.FormName() != UploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		job, err := h.svc.Submit(r.Context(), part, part.FileName())
		_ = part.Close()
		if err != nil {
			h.errorAdapter.WriteErrorResponse(w, r, uploadError(err))
			return
		}

		resp := responses.UploadResponse{
			Message:          "File processed successfully",
			DownloadURL:      h.downloadPath + "/" + job.ID,
			OriginalFileName: job.DownloadName,
			JobID:            job.ID,
			Digest:           job.Digest,
			Entries:          job.Result.Entries,
			Size:             job.Size,
		}
		if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
			slog.Error("Failed to write upload response", logfields.JobID(job.ID), logfields.Error(err))
		}
		return
	}

	h.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("No file uploaded.").Build())
}

// uploadError maps an exceeded body limit to a too-large error.
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return derrors.NewError(derrors.CategoryTooLarge, "Uploaded file is too large.").
			WithContext("limit", tooLarge.Limit).
			Build()
	}
	if derrors.IsClassified(err) {
		return err
	}
	return derrors.InputStreamError("Upload could not be read.").WithCause(err).Build()
}

// HandleDownload streams an artifact once. A failed transfer leaves it
// available for another attempt.
func (h *JobHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	ret, err := h.svc.Retrieve(ctx, id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	ctx = observability.WithJobID(ctx, id)

	f, err := ret.Open(ctx)
	if err != nil {
		if !derrors.HasCategory(err, derrors.CategoryNotFound) {
			_ = ret.Abort(ctx)
		}
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	a := ret.Artifact
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.DownloadName}))
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.Header().Set(DigestHeader, a.Digest)
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, f)
	if err == nil && n != a.Size {
		err = io.ErrShortWrite
	}
	if err != nil {
		observability.WarnContext(ctx, "Download interrupted", logfields.Bytes(n), logfields.Error(err))
		if aerr := ret.Abort(context.WithoutCancel(ctx)); aerr != nil {
			observability.ErrorContext(ctx, "Failed to release artifact", logfields.Error(aerr))
		}
		return
	}
	if err := ret.Complete(context.WithoutCancel(ctx)); err != nil {
		observability.ErrorContext(ctx, "Failed to finish download", logfields.Error(err))
	}
}

// HandleHistory returns the recorded events of one job.
func (h *JobHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	events, err := h.svc.History(r.Context(), id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	resp := responses.JobHistoryResponse{JobID: id, Events: make([]responses.JobEvent, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, responses.JobEvent{Type: e.Type, Detail: e.Detail, Timestamp: e.Timestamp.UTC()})
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		slog.Error("Failed to write history response", logfields.JobID(id), logfields.Error(err))
	}
}
