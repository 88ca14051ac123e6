package data

import (
	"math"
	"sync"
	"time"

	"github.com/target/mediafetch/internal/domain/model"
	apperrors "github.com/target/mediafetch/internal/errors"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Clock Clock // optional; defaults to RealClock
}

// Registry is the in-memory store of job and artifact records.
// Every operation holds a single RWMutex; reads return value copies.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*model.Job
	artifacts map[string]model.Artifact
	clock     Clock
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts RegistryOptions) *Registry {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &Registry{
		jobs:      make(map[string]*model.Job),
		artifacts: make(map[string]model.Artifact),
		clock:     clock,
	}
}

// CreateJob inserts a new job record. The id must not be in use.
func (r *Registry) CreateJob(job model.Job) error {
	if job.ID == "" {
		return apperrors.Validation("job id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; ok {
		return apperrors.Conflictf("job %s already exists", job.ID)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = r.clock.Now()
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	job.Progress = clampProgress(job.Progress)
	r.jobs[job.ID] = &job
	return nil
}

// UpdateJob applies mutate to the job with the given id and returns the resulting snapshot.
// Completed jobs are immutable and yield model.ErrJobFinalized.
func (r *Registry) UpdateJob(id string, mutate func(*model.Job)) (model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.jobs[id]
	if !ok {
		return model.Job{}, apperrors.NotFoundf("job %s not found", id)
	}
	if cur.Completed {
		return *cur, model.ErrJobFinalized
	}

	next := r.apply(*cur, mutate)
	*cur = next
	return next, nil
}

// apply runs mutate on a copy of prev and restores the record invariants.
func (r *Registry) apply(prev model.Job, mutate func(*model.Job)) model.Job {
	next := prev
	if mutate != nil {
		mutate(&next)
	}

	next.ID = prev.ID
	next.SourceURL = prev.SourceURL
	next.Format = prev.Format
	next.Quality = prev.Quality
	next.CreatedAt = prev.CreatedAt
	next.Progress = max(prev.Progress, clampProgress(next.Progress))

	now := r.clock.Now()
	next.UpdatedAt = now
	switch {
	case !next.Completed:
		next.Success = false
		next.Error = ""
		next.CompletedAt = nil
	case next.Success:
		next.Error = ""
		next.CompletedAt = &now
	default:
		next.CompletedAt = &now
	}
	return next
}

// GetJob returns a copy of the job record.
func (r *Registry) GetJob(id string) (model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return model.Job{}, apperrors.NotFoundf("job %s not found", id)
	}
	return *j, nil
}

// RemoveJob deletes the job record. Removing an unknown id is a no-op.
func (r *Registry) RemoveJob(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	r.mu.Unlock()
}

// PutArtifact registers the artifact of a job that already completed successfully.
func (r *Registry) PutArtifact(a model.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[a.JobID]
	if !ok || !j.Completed || !j.Success {
		return apperrors.ValidationField("job_id", "artifact requires a successfully completed job")
	}
	return r.putArtifactLocked(a)
}

func (r *Registry) putArtifactLocked(a model.Artifact) error {
	if _, exists := r.artifacts[a.JobID]; exists {
		return apperrors.Conflictf("artifact for job %s already exists", a.JobID)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.clock.Now()
	}
	r.artifacts[a.JobID] = a
	return nil
}

// CompleteWithArtifact applies the terminal success mutation and registers the artifact in
// one critical section, so readers never observe a successful job without its artifact.
func (r *Registry) CompleteWithArtifact(a model.Artifact, mutate func(*model.Job)) (model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.jobs[a.JobID]
	if !ok {
		return model.Job{}, apperrors.NotFoundf("job %s not found", a.JobID)
	}
	if cur.Completed {
		return *cur, model.ErrJobFinalized
	}
	if _, exists := r.artifacts[a.JobID]; exists {
		return *cur, apperrors.Conflictf("artifact for job %s already exists", a.JobID)
	}

	next := r.apply(*cur, mutate)
	if !next.Completed || !next.Success {
		return *cur, apperrors.Validation("completion mutation must mark the job successful")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = next.UpdatedAt
	}
	if err := r.putArtifactLocked(a); err != nil {
		return *cur, err
	}
	*cur = next
	return next, nil
}

// GetArtifact returns the artifact for a job id.
func (r *Registry) GetArtifact(id string) (model.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.artifacts[id]
	if !ok {
		return model.Artifact{}, apperrors.NotFoundf("artifact for job %s not found", id)
	}
	return a, nil
}

// RemoveArtifact deletes the artifact record. Removing an unknown id is a no-op.
func (r *Registry) RemoveArtifact(id string) {
	r.mu.Lock()
	delete(r.artifacts, id)
	r.mu.Unlock()
}

// ExpiredArtifacts returns a snapshot of artifacts created strictly before cutoff.
func (r *Registry) ExpiredArtifacts(cutoff time.Time) []model.Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Artifact
	for _, a := range r.artifacts {
		if a.Expired(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// Remove deletes both the artifact and the job for id and returns the artifact that was present.
// Jobs without an artifact are left untouched and ok is false.
// Only the caller that receives ok=true owns the artifact's file.
func (r *Registry) Remove(id string) (model.Artifact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.artifacts[id]
	if !ok {
		return model.Artifact{}, false
	}
	delete(r.artifacts, id)
	delete(r.jobs, id)
	return a, true
}

// Stats returns counts of jobs per state and of registered artifacts.
func (r *Registry) Stats() model.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := model.RegistryStats{Artifacts: len(r.artifacts)}
	for _, j := range r.jobs {
		switch j.State() {
		case model.JobStateRunning:
			stats.Running++
		case model.JobStateSucceeded:
			stats.Succeeded++
		case model.JobStateFailed:
			stats.Failed++
		}
	}
	return stats
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return model.ProgressMin
	case p < model.ProgressMin:
		return model.ProgressMin
	case p > model.ProgressMax:
		return model.ProgressMax
	default:
		return p
	}
}
