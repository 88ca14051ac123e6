package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/target/mediafetch/config"
	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/data"
	"github.com/target/mediafetch/internal/domain/model"
	apperrors "github.com/target/mediafetch/internal/errors"
	"github.com/target/mediafetch/internal/observability/metrics"
	"github.com/target/mediafetch/internal/observability/statsd"
)

// ErrShuttingDown is returned by Submit once Shutdown has started.
var ErrShuttingDown = errors.New("job service is shutting down")

const noFileMessage = "No file was downloaded"

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Registry      core.JobRegistry  // Required: job registry
	Engine        core.Engine       // Required: media engine
	Files         core.FileStore    // Required: working directory storage
	Progress      *ProgressService  // Required: progress reporter factory
	Updates       core.JobUpdates   // Optional: long-poll broadcast
	Config        config.JobsConfig // Optional: concurrency limits
	EngineTimeout time.Duration     // Optional: per-job engine deadline, 0 disables
	Clock         data.Clock        // Optional: time source
	Logger        *slog.Logger      // Optional: structured logger
	Metrics       statsd.Sink       // Optional: metrics sink
	NewID         func() string     // Optional: job id generator
}

// JobService accepts fetch requests and runs each one on its own worker.
type JobService struct {
	registry      core.JobRegistry
	engine        core.Engine
	files         core.FileStore
	progress      *ProgressService
	updates       core.JobUpdates
	engineTimeout time.Duration
	clock         data.Clock
	logger        *slog.Logger
	metrics       statsd.Sink
	newID         func() string

	sem     *semaphore.Weighted
	running atomic.Int64

	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewJobService constructs a JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	switch {
	case opts.Registry == nil:
		return nil, errors.New("JobRegistry is required")
	case opts.Engine == nil:
		return nil, errors.New("engine is required")
	case opts.Files == nil:
		return nil, errors.New("FileStore is required")
	case opts.Progress == nil:
		return nil, errors.New("ProgressService is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = data.RealClock{}
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	var sem *semaphore.Weighted
	if opts.Config.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(int64(opts.Config.MaxConcurrent))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &JobService{
		registry:      opts.Registry,
		engine:        opts.Engine,
		files:         opts.Files,
		progress:      opts.Progress,
		updates:       opts.Updates,
		engineTimeout: opts.EngineTimeout,
		clock:         clock,
		logger:        logger.With("component", "job_service"),
		metrics:       opts.Metrics,
		newID:         newID,
		sem:           sem,
		baseCtx:       ctx,
		cancel:        cancel,
	}, nil
}

// MustNewJobService constructs a JobService and panics on error.
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Submit validates req, registers a new job and starts its worker. It returns
// the job id without waiting for the worker.
func (s *JobService) Submit(ctx context.Context, req model.SubmitRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
			Format:     string(req.Format),
			Transition: metrics.TransitionRejected,
			Result:     metrics.ResultError,
			Err:        err,
		})
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrShuttingDown
	}

	id := s.newID()
	job := model.NewJob(id, req, s.clock.Now())
	if err := s.registry.CreateJob(job); err != nil {
		return "", fmt.Errorf("register job: %w", err)
	}

	s.logger.InfoContext(ctx, "job submitted",
		"job_id", id,
		"format", req.Format,
		"quality", req.Quality,
	)
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Format:     string(req.Format),
		Transition: metrics.TransitionSubmitted,
		Result:     metrics.ResultSuccess,
	})

	s.wg.Add(1)
	go s.run(job)
	return id, nil
}

// Poll returns the current snapshot of a job.
func (s *JobService) Poll(_ context.Context, id string) (model.Job, error) {
	return s.registry.GetJob(id)
}

// WaitForUpdate blocks until the job changes after since, completes, or ctx ends.
// It always returns the latest snapshot it could read.
func (s *JobService) WaitForUpdate(ctx context.Context, id string, since time.Time) (model.Job, error) {
	if s.updates == nil {
		return s.registry.GetJob(id)
	}

	unsubscribe, ch := s.updates.Subscribe(id)
	defer unsubscribe()

	for {
		job, err := s.registry.GetJob(id)
		if err != nil {
			return model.Job{}, err
		}
		if job.Completed || job.UpdatedAt.After(since) {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, nil
		case _, ok := <-ch:
			if !ok {
				return s.registry.GetJob(id)
			}
		}
	}
}

// Accepting reports whether Submit still takes new jobs.
func (s *JobService) Accepting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Running reports how many workers are executing an engine call.
func (s *JobService) Running() int64 {
	return s.running.Load()
}

// Shutdown stops accepting jobs, cancels running workers and waits for them
// until ctx ends.
func (s *JobService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()

	if !already {
		s.logger.InfoContext(ctx, "job service stopping", "running", s.running.Load())
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("wait for workers: %w", ctx.Err())
	}

	if s.updates != nil {
		s.updates.StopAll()
	}
	return err
}

func (s *JobService) run(job model.Job) {
	defer s.wg.Done()

	reporter := s.progress.ReporterFor(job.ID)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job worker panicked", "job_id", job.ID, "panic", r)
			s.discard(job.ID)
			reporter.Report(model.Failed(fmt.Sprintf("internal error: %v", r)))
		}
	}()

	ctx := s.baseCtx
	if s.sem != nil {
		reporter.Report(model.Phase(model.StatusQueued))
		if err := s.sem.Acquire(ctx, 1); err != nil {
			reporter.Report(model.Failed(err.Error()))
			return
		}
		defer s.sem.Release(1)
	}

	s.trackRunning(1)
	defer s.trackRunning(-1)

	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Format:     string(job.Format),
		Transition: metrics.TransitionStarted,
		Result:     metrics.ResultSuccess,
	})

	dir, err := s.files.CreateJobDir(job.ID)
	if err != nil {
		s.logger.Error("create job dir failed", "job_id", job.ID, "error", err)
		reporter.Report(model.Failed(err.Error()))
		return
	}

	if s.engineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.engineTimeout)
		defer cancel()
	}

	reporter.Report(model.Phase(model.StatusFetching))
	res, err := s.engine.Fetch(ctx, core.FetchRequest{
		JobID:     job.ID,
		URL:       job.SourceURL,
		Format:    job.Format,
		Quality:   job.Quality,
		OutputDir: dir,
	}, reporter)
	if err != nil {
		s.discard(job.ID)
		reporter.Report(model.Failed(err.Error()))
		return
	}

	path := res.Path
	if path == "" {
		path, err = s.files.FirstFile(dir)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				s.logger.Warn("scan job dir failed", "job_id", job.ID, "error", err)
			}
			s.discard(job.ID)
			reporter.Report(model.Failed(noFileMessage))
			return
		}
	}

	filename := res.Filename
	if filename == "" {
		filename = filepath.Base(path)
	}
	if !reporter.deliver(model.Succeeded(path, filename)) {
		// No artifact owns the file, so nothing would ever evict it.
		s.discard(job.ID)
	}
}

func (s *JobService) discard(id string) {
	if err := s.files.RemoveJobDir(id); err != nil {
		s.logger.Warn("remove job dir failed", "job_id", id, "error", err)
	}
}

func (s *JobService) trackRunning(delta int64) {
	metrics.EmitJobsRunning(s.metrics, s.running.Add(delta))
}
