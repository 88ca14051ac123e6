package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/domain/model"
	apperrors "github.com/target/mediafetch/internal/errors"
	"github.com/target/mediafetch/internal/observability/metrics"
	"github.com/target/mediafetch/internal/observability/notify"
	"github.com/target/mediafetch/internal/observability/statsd"
	"github.com/target/mediafetch/internal/service/failurenotifier"
)

const defaultNotifyTimeout = 10 * time.Second

// ProgressServiceOptions groups dependencies for ProgressService.
type ProgressServiceOptions struct {
	Registry        core.JobRegistry         // Required: job registry
	Updates         core.JobUpdates          // Optional: long-poll broadcast
	Logger          *slog.Logger             // Optional: structured logger
	Metrics         statsd.Sink              // Optional: metrics sink
	FailureNotifier *failurenotifier.Service // Optional: failed-job notifications
	NotifyTimeout   time.Duration            // Optional: per-notification deadline
}

// ProgressService translates worker progress events into registry mutations.
// It hands out one Reporter per job.
type ProgressService struct {
	registry      core.JobRegistry
	updates       core.JobUpdates
	logger        *slog.Logger
	metrics       statsd.Sink
	failures      *failurenotifier.Service
	notifyTimeout time.Duration
}

// NewProgressService constructs a ProgressService.
func NewProgressService(opts ProgressServiceOptions) (*ProgressService, error) {
	if opts.Registry == nil {
		return nil, errors.New("JobRegistry is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}

	return &ProgressService{
		registry:      opts.Registry,
		updates:       opts.Updates,
		logger:        logger.With("component", "progress_reporter"),
		metrics:       opts.Metrics,
		failures:      opts.FailureNotifier,
		notifyTimeout: timeout,
	}, nil
}

// ReporterFor returns a Reporter bound to jobID.
func (p *ProgressService) ReporterFor(jobID string) *Reporter {
	return &Reporter{jobID: jobID, svc: p}
}

// Reporter pushes progress events for a single job. It is safe for concurrent use
// and never panics: events for unknown or completed jobs are dropped.
type Reporter struct {
	jobID string
	svc   *ProgressService
}

var _ core.ProgressReporter = (*Reporter)(nil)

// Report applies ev to the job record.
func (r *Reporter) Report(ev model.ProgressEvent) {
	r.deliver(ev)
}

// deliver applies ev and reports whether the registry accepted it.
func (r *Reporter) deliver(ev model.ProgressEvent) bool {
	var (
		job model.Job
		err error
	)

	switch ev.Kind {
	case model.EventPhase:
		job, err = r.svc.registry.UpdateJob(r.jobID, func(j *model.Job) {
			j.Status = ev.Status
		})
	case model.EventDownloading:
		progress, status := ev.DownloadProgress()
		job, err = r.svc.registry.UpdateJob(r.jobID, func(j *model.Job) {
			j.Progress = progress
			j.Status = status
		})
	case model.EventFinished:
		job, err = r.svc.registry.UpdateJob(r.jobID, func(j *model.Job) {
			j.Progress = model.ProgressMax
			j.Status = model.StatusProcessing
		})
	case model.EventSucceeded:
		job, err = r.svc.registry.CompleteWithArtifact(
			model.Artifact{JobID: r.jobID, Path: ev.Path, Filename: ev.Filename},
			func(j *model.Job) {
				j.Progress = model.ProgressMax
				j.Status = model.StatusComplete
				j.Completed = true
				j.Success = true
			},
		)
	case model.EventFailed:
		job, err = r.svc.registry.UpdateJob(r.jobID, func(j *model.Job) {
			j.Completed = true
			j.Success = false
			j.Error = ev.Message
		})
	default:
		r.svc.logger.Warn("unknown progress event dropped", "job_id", r.jobID, "kind", ev.Kind)
		return false
	}

	if err != nil {
		r.dropped(ev, err)
		return false
	}

	if r.svc.updates != nil {
		r.svc.updates.Publish(r.jobID)
	}
	if ev.Terminal() {
		r.svc.onTerminal(job)
	}
	return true
}

func (r *Reporter) dropped(ev model.ProgressEvent, err error) {
	switch {
	case errors.Is(err, model.ErrJobFinalized), apperrors.IsNotFound(err):
		r.svc.logger.Debug("progress event dropped", "job_id", r.jobID, "kind", ev.Kind, "reason", err)
	default:
		r.svc.logger.Warn("progress event rejected", "job_id", r.jobID, "kind", ev.Kind, "error", err)
	}
}

func (p *ProgressService) onTerminal(job model.Job) {
	var duration time.Duration
	if job.CompletedAt != nil {
		duration = job.CompletedAt.Sub(job.CreatedAt)
	}

	if job.Success {
		p.logger.Info("job completed", "job_id", job.ID, "format", job.Format, "duration", duration)
		metrics.EmitJobLifecycle(p.metrics, metrics.JobMetric{
			Format:     string(job.Format),
			Transition: metrics.TransitionCompleted,
			Result:     metrics.ResultSuccess,
			Duration:   duration,
		})
		return
	}

	jobErr := apperrors.Wrap(errors.New(job.Error), apperrors.ErrCodeWorker, "job failed")
	p.logger.Warn("job failed", "job_id", job.ID, "format", job.Format, "error", job.Error)
	metrics.EmitJobLifecycle(p.metrics, metrics.JobMetric{
		Format:     string(job.Format),
		Transition: metrics.TransitionCompleted,
		Result:     metrics.ResultError,
		Duration:   duration,
		Err:        jobErr,
	})

	if !p.failures.Enabled() {
		return
	}
	occurredAt := time.Now().UTC()
	if job.CompletedAt != nil {
		occurredAt = *job.CompletedAt
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.notifyTimeout)
	defer cancel()
	p.failures.NotifyJobFailure(ctx, notify.JobFailurePayload{
		JobID:      job.ID,
		SourceURL:  job.SourceURL,
		Format:     string(job.Format),
		Quality:    string(job.Quality),
		Error:      job.Error,
		ErrorClass: string(apperrors.ErrCodeWorker),
		OccurredAt: occurredAt,
	})
}
