// Package core defines the ports between the job services, the registry and the fetch engine.
package core

import (
	"context"
	"time"

	"github.com/target/mediafetch/internal/domain/model"
)

// ProgressReporter accepts progress events for one job. Implementations never panic and
// drop events for jobs that are unknown or already completed.
type ProgressReporter interface {
	Report(ev model.ProgressEvent)
}

// FetchRequest groups the inputs of a single engine run.
type FetchRequest struct {
	JobID     string
	URL       string
	Format    model.Format
	Quality   model.Quality
	OutputDir string
}

// FetchResult is the produced artifact location.
type FetchResult struct {
	Path     string
	Filename string
}

// Engine fetches and transcodes remote media into OutputDir.
// Intermediate progress is pushed through the reporter; terminal events are left to the caller.
type Engine interface {
	Fetch(ctx context.Context, req FetchRequest, reporter ProgressReporter) (FetchResult, error)
}

// JobRegistry defines the operations the job services need from the in-memory job store.
type JobRegistry interface {
	CreateJob(job model.Job) error
	UpdateJob(id string, mutate func(*model.Job)) (model.Job, error)
	GetJob(id string) (model.Job, error)
	CompleteWithArtifact(a model.Artifact, mutate func(*model.Job)) (model.Job, error)
	GetArtifact(id string) (model.Artifact, error)
	ExpiredArtifacts(cutoff time.Time) []model.Artifact
	// Remove deletes the artifact and job records; ok reports whether an artifact was present.
	Remove(id string) (model.Artifact, bool)
	Stats() model.RegistryStats
}

// FileStore manages per-job working directories.
type FileStore interface {
	CreateJobDir(id string) (string, error)
	FirstFile(dir string) (string, error)
	RemoveFile(path string) error
	RemoveJobDir(id string) error
}

// JobUpdates broadcasts job changes to long-poll waiters.
type JobUpdates interface {
	Subscribe(jobID string) (func(), <-chan struct{})
	Publish(jobID string)
	StopAll()
}
