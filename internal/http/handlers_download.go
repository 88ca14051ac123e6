// Package httpx provides the HTTP transport for the media fetch job manager.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/target/mediafetch/internal/domain/model"
	apperrors "github.com/target/mediafetch/internal/errors"
	"github.com/target/mediafetch/internal/service"
)

const (
	progressPrefix      = "/progress/"
	maxSubmitBodyBytes  = 64 << 10
	downloadNotFoundMsg = "Download not found"
	unknownStatus       = "Unknown"
)

// JobsService is the part of the job service the HTTP layer drives.
type JobsService interface {
	Submit(ctx context.Context, req model.SubmitRequest) (string, error)
	Poll(ctx context.Context, id string) (model.Job, error)
	WaitForUpdate(ctx context.Context, id string, since time.Time) (model.Job, error)
	Running() int64
}

// FileRetriever opens finished artifacts for download.
type FileRetriever interface {
	Fetch(ctx context.Context, id string) (*model.FileHandle, error)
}

// StatsSource reports registry counts.
type StatsSource interface {
	Stats() model.RegistryStats
}

// DownloadHandlers serves job submission, progress polling and artifact retrieval.
type DownloadHandlers struct {
	Jobs      JobsService
	Retrieval FileRetriever
	Stats     StatsSource
	// MaxWait caps the ?wait= long-poll on the progress endpoint. 0 disables long-polling.
	MaxWait time.Duration
	Logger  *slog.Logger
}

type submitResponse struct {
	Success    bool   `json:"success"`
	DownloadID string `json:"download_id,omitempty"`
	Error      string `json:"error,omitempty"`
	Field      string `json:"field,omitempty"`
}

type statsResponse struct {
	Jobs    model.RegistryStats `json:"jobs"`
	Workers int64               `json:"workers"`
}

// Submit handles POST /download.
func (h *DownloadHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBodyBytes)

	var req model.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, submitResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	id, err := h.Jobs.Submit(r.Context(), req)
	if err != nil {
		code := statusForError(err)
		if errors.Is(err, service.ErrShuttingDown) {
			code = http.StatusServiceUnavailable
		}
		if code >= http.StatusInternalServerError {
			h.logger().ErrorContext(r.Context(), "submit failed", "error", err)
		}
		WriteJSON(w, code, submitResponse{Error: err.Error(), Field: apperrors.GetField(err)})
		return
	}

	WriteJSON(w, http.StatusOK, submitResponse{Success: true, DownloadID: id})
}

// Progress handles GET /progress/{id}. With ?wait=N it blocks up to N seconds
// (capped by MaxWait) for the job to change before answering.
func (h *DownloadHandlers) Progress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := h.Jobs.Poll(r.Context(), id)
	if err != nil {
		h.writeProgressError(w, r, err)
		return
	}

	if wait := h.waitDuration(r); wait > 0 && !job.Completed {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		job, err = h.Jobs.WaitForUpdate(ctx, id, job.UpdatedAt)
		cancel()
		if err != nil {
			h.writeProgressError(w, r, err)
			return
		}
	}

	WriteJSON(w, http.StatusOK, job.ProgressView())
}

func (h *DownloadHandlers) waitDuration(r *http.Request) time.Duration {
	secs := parseIntQuery(r, "wait", 0)
	if secs <= 0 || h.MaxWait <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, h.MaxWait)
}

func (h *DownloadHandlers) writeProgressError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.IsNotFound(err) {
		msg := downloadNotFoundMsg
		WriteJSON(w, http.StatusNotFound, model.JobProgress{
			Status:    unknownStatus,
			Completed: true,
			Error:     &msg,
		})
		return
	}
	h.logger().ErrorContext(r.Context(), "progress lookup failed", "error", err)
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "progress_failed", Err: err})
}

// File handles GET /file/{id}, streaming the artifact as an attachment.
func (h *DownloadHandlers) File(w http.ResponseWriter, r *http.Request) {
	handle, err := h.Retrieval.Fetch(r.Context(), r.PathValue("id"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger().ErrorContext(r.Context(), "file retrieval failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil {
			h.logger().WarnContext(r.Context(), "close artifact", "error", cerr)
		}
	}()

	w.Header().Set("Content-Disposition", contentDisposition(handle.Filename))
	w.Header().Set("Content-Type", contentType(handle.Filename))
	http.ServeContent(w, r, handle.Filename, handle.ModTime, handle.File)
}

// StatsSummary handles GET /api/stats.
func (h *DownloadHandlers) StatsSummary(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, statsResponse{
		Jobs:    h.Stats.Stats(),
		Workers: h.Jobs.Running(),
	})
}

func (h *DownloadHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

// mediaTypes covers the output formats; host mime tables rarely list audio containers.
var mediaTypes = map[string]string{ //nolint:gochecknoglobals // read-only lookup
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
}

func contentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
