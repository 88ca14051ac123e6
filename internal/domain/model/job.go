// Package model defines the core data types shared by the job registry, the job services and the HTTP layer.
package model

import (
	"errors"
	"time"
)

// Status texts written into a job record at well-known points of its lifecycle.
const (
	StatusStarting    = "Starting download..."
	StatusQueued      = "Queued..."
	StatusFetching    = "Fetching video info..."
	StatusDownloading = "Downloading..."
	StatusProcessing  = "Processing..."
	StatusComplete    = "Download complete!"
)

const (
	// ProgressMin is the progress of a freshly created job.
	ProgressMin = 0.0
	// ProgressCeiling caps byte-based progress until the job is finished.
	ProgressCeiling = 99.0
	// ProgressMax is the progress of a job whose transfer has finished.
	ProgressMax = 100.0
)

// ErrJobFinalized is returned when a mutation targets a job that already reached a terminal state.
var ErrJobFinalized = errors.New("job already completed")

// JobState is the derived lifecycle state of a job.
type JobState string

const (
	// JobStateRunning indicates the worker has not reported a terminal event yet.
	JobStateRunning JobState = "running"
	// JobStateSucceeded indicates the job completed and produced an artifact.
	JobStateSucceeded JobState = "succeeded"
	// JobStateFailed indicates the job completed with an error.
	JobStateFailed JobState = "failed"
)

// Job is the record of one client-initiated fetch/transcode request.
type Job struct {
	ID          string     `json:"id"`
	SourceURL   string     `json:"source_url"`
	Format      Format     `json:"format"`
	Quality     Quality    `json:"quality"`
	Progress    float64    `json:"progress"`
	Status      string     `json:"status"`
	Completed   bool       `json:"completed"`
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob returns the initial record for a submitted request.
func NewJob(id string, req SubmitRequest, now time.Time) Job {
	return Job{
		ID:        id,
		SourceURL: req.URL,
		Format:    req.Format,
		Quality:   req.Quality,
		Progress:  ProgressMin,
		Status:    StatusStarting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the lifecycle state from the completed/success flags.
func (j Job) State() JobState {
	switch {
	case !j.Completed:
		return JobStateRunning
	case j.Success:
		return JobStateSucceeded
	default:
		return JobStateFailed
	}
}

// JobProgress is the poll view of a job.
type JobProgress struct {
	Progress  float64 `json:"progress"`
	Status    string  `json:"status"`
	Completed bool    `json:"completed"`
	Success   bool    `json:"success"`
	Error     *string `json:"error"`
}

// ProgressView returns the poll view of the job. Error is nil unless the job failed.
func (j Job) ProgressView() JobProgress {
	view := JobProgress{
		Progress:  j.Progress,
		Status:    j.Status,
		Completed: j.Completed,
		Success:   j.Success,
	}
	if j.Completed && !j.Success {
		msg := j.Error
		view.Error = &msg
	}
	return view
}

// RegistryStats summarises the contents of the job registry.
type RegistryStats struct {
	Running   int `json:"running"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Artifacts int `json:"artifacts"`
}
