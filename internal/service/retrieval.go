package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/target/mediafetch/config"
	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/domain/model"
	apperrors "github.com/target/mediafetch/internal/errors"
	"github.com/target/mediafetch/internal/observability/metrics"
	"github.com/target/mediafetch/internal/observability/statsd"
)

const fileNotFoundMessage = "File not found"

// RetrievalServiceOptions groups dependencies for RetrievalService.
type RetrievalServiceOptions struct {
	Registry core.JobRegistry       // Required: job registry
	Evictor  *Evictor               // Required: artifact evictor
	Config   config.RetrievalConfig // Optional: grace delay
	Logger   *slog.Logger           // Optional: structured logger
	Metrics  statsd.Sink            // Optional: metrics sink
}

// RetrievalService hands finished artifacts to clients and schedules their
// eviction shortly after the first retrieval.
type RetrievalService struct {
	registry core.JobRegistry
	evictor  *Evictor
	grace    time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink

	mu      sync.Mutex
	stopped bool
	pending map[string]*time.Timer
}

// NewRetrievalService constructs a RetrievalService.
func NewRetrievalService(opts RetrievalServiceOptions) (*RetrievalService, error) {
	if opts.Registry == nil {
		return nil, errors.New("JobRegistry is required")
	}
	if opts.Evictor == nil {
		return nil, errors.New("evictor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrievalService{
		registry: opts.Registry,
		evictor:  opts.Evictor,
		grace:    opts.Config.GraceDelay,
		logger:   logger.With("component", "retrieval_service"),
		metrics:  opts.Metrics,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Fetch opens the artifact of job id. The caller must Close the returned handle.
// A missing artifact or a file that vanished from disk yields a not-found error.
func (s *RetrievalService) Fetch(ctx context.Context, id string) (*model.FileHandle, error) {
	a, err := s.registry.GetArtifact(id)
	if err != nil {
		metrics.EmitRetrieval(s.metrics, metrics.ReasonNotFound)
		return nil, apperrors.NotFound(fileNotFoundMessage)
	}

	f, err := os.Open(a.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "open artifact failed", "job_id", id, "error", err)
		}
		metrics.EmitRetrieval(s.metrics, metrics.ReasonMissing)
		return nil, apperrors.NotFound(fileNotFoundMessage)
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		metrics.EmitRetrieval(s.metrics, metrics.ReasonMissing)
		return nil, apperrors.NotFound(fileNotFoundMessage)
	}

	s.scheduleEviction(id)
	metrics.EmitRetrieval(s.metrics, metrics.ReasonServed)
	s.logger.InfoContext(ctx, "artifact served", "job_id", id, "filename", a.Filename, "size", info.Size())

	return &model.FileHandle{
		File:     f,
		Filename: a.Filename,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}

// Pending reports how many evictions are scheduled.
func (s *RetrievalService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels scheduled timers and evicts their artifacts immediately.
func (s *RetrievalService) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopped = true
	ids := make([]string, 0, len(s.pending))
	for id, t := range s.pending {
		if t.Stop() {
			ids = append(ids, id)
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if _, err := s.evictor.Evict(ctx, id, TriggerShutdown); err != nil {
			s.logger.WarnContext(ctx, "shutdown eviction failed", "job_id", id, "error", err)
		}
	}
}

// scheduleEviction arms one eviction timer per job id.
func (s *RetrievalService) scheduleEviction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.pending[id]; ok {
		return
	}
	s.pending[id] = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()

		if _, err := s.evictor.Evict(context.Background(), id, TriggerRetrieval); err != nil {
			s.logger.Warn("deferred eviction failed", "job_id", id, "error", err)
		}
	})
}
