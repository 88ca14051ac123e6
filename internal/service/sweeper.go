package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/mediafetch/config"
	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/data"
	"github.com/target/mediafetch/internal/observability/metrics"
	"github.com/target/mediafetch/internal/observability/statsd"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Registry core.JobRegistry     // Required: job registry
	Evictor  *Evictor             // Required: artifact evictor
	Config   config.SweeperConfig // Required: sweeper configuration
	Clock    data.Clock           // Optional: time source
	Logger   *slog.Logger         // Optional: structured logger
	Metrics  statsd.Sink          // Optional: metrics sink
}

// SweeperService periodically evicts artifacts older than the retention window.
// Jobs that never produced an artifact are left alone.
type SweeperService struct {
	registry core.JobRegistry
	evictor  *Evictor
	config   config.SweeperConfig
	clock    data.Clock
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewSweeperService constructs a SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Registry == nil {
		return nil, errors.New("JobRegistry is required")
	}
	if opts.Evictor == nil {
		return nil, errors.New("evictor is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("sweeper interval must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sweeper_service")
	logger.Debug("SweeperService initialized",
		"interval", opts.Config.Interval,
		"retention", opts.Config.Retention,
	)

	clock := opts.Clock
	if clock == nil {
		clock = data.RealClock{}
	}

	return &SweeperService{
		registry: opts.Registry,
		evictor:  opts.Evictor,
		config:   opts.Config,
		clock:    clock,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// Run sweeps once after a short jitter and then on every tick until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting sweeper service",
		"interval", s.config.Interval,
		"retention", s.config.Retention,
	)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.Sweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
			}
		}
	}
}

// Sweep evicts every artifact created before now minus the retention window and
// returns how many were evicted. A failure on one artifact does not stop the others.
func (s *SweeperService) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	cutoff := s.clock.Now().Add(-s.config.Retention)

	var (
		evicted int
		failed  int
		errs    []error
	)
	for _, a := range s.registry.ExpiredArtifacts(cutoff) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := s.evictor.Evict(ctx, a.JobID, TriggerSweeper)
		if ok {
			evicted++
		}
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("evict %s: %w", a.JobID, err))
		}
	}

	sweepErr := errors.Join(errs...)
	metrics.EmitSweep(s.metrics, metrics.SweepMetric{
		Evicted:  evicted,
		Failed:   failed,
		Duration: time.Since(start),
		Err:      sweepErr,
	})
	if evicted > 0 {
		s.logger.InfoContext(ctx, "evicted expired artifacts",
			"count", evicted,
			"retention", s.config.Retention,
		)
	}
	return evicted, sweepErr
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *SweeperService) logSweepError(err error, label string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}
