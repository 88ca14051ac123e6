package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/observability/metrics"
	"github.com/target/mediafetch/internal/observability/statsd"
)

// Eviction triggers used for logging and metric tags.
const (
	TriggerSweeper   = "sweeper"
	TriggerRetrieval = "retrieval"
	TriggerShutdown  = "shutdown"
)

// EvictorOptions groups dependencies for Evictor.
type EvictorOptions struct {
	Registry core.JobRegistry // Required: job registry
	Files    core.FileStore   // Required: artifact storage
	Logger   *slog.Logger     // Optional: structured logger
	Metrics  statsd.Sink      // Optional: metrics sink
}

// Evictor removes an artifact and its job record together.
// Whichever caller wins the registry removal owns the file cleanup, so concurrent
// evictions of the same id delete the file at most once.
type Evictor struct {
	registry core.JobRegistry
	files    core.FileStore
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewEvictor constructs an Evictor.
func NewEvictor(opts EvictorOptions) (*Evictor, error) {
	if opts.Registry == nil {
		return nil, errors.New("JobRegistry is required")
	}
	if opts.Files == nil {
		return nil, errors.New("FileStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evictor{
		registry: opts.Registry,
		files:    opts.Files,
		logger:   logger.With("component", "evictor"),
		metrics:  opts.Metrics,
	}, nil
}

// Evict removes the artifact registered for id, its job record and its file.
// It reports false when there was nothing to evict.
func (e *Evictor) Evict(ctx context.Context, id, trigger string) (bool, error) {
	a, ok := e.registry.Remove(id)
	if !ok {
		return false, nil
	}

	err := errors.Join(
		e.files.RemoveFile(a.Path),
		e.files.RemoveJobDir(id),
	)
	if err != nil {
		e.logger.WarnContext(ctx, "artifact eviction left files behind",
			"job_id", id,
			"trigger", trigger,
			"error", err,
		)
	} else {
		e.logger.DebugContext(ctx, "artifact evicted", "job_id", id, "trigger", trigger)
	}
	metrics.EmitEviction(e.metrics, trigger, err)
	return true, err
}
