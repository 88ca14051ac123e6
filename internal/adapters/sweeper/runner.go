// Package sweeper provides adapters for running the artifact expiry sweeper.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/mediafetch/config"
	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/data"
	"github.com/target/mediafetch/internal/observability/statsd"
	"github.com/target/mediafetch/internal/service"
)

// Runner wires the sweeper service and runs its loop.
type Runner struct {
	sweeper *service.SweeperService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Registry core.JobRegistry
	Evictor  *service.Evictor
	Config   config.SweeperConfig
	Logger   *slog.Logger

	// Optional dependency injection for testing
	Clock   data.Clock
	Metrics statsd.Sink
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	sweeper, err := service.NewSweeperService(service.SweeperServiceOptions{
		Registry: opts.Registry,
		Evictor:  opts.Evictor,
		Config:   opts.Config,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire sweeper service: %w", err)
	}

	return &Runner{sweeper: sweeper, logger: opts.Logger}, nil
}

func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Registry == nil {
		return errors.New("job registry is required")
	}
	if opts.Evictor == nil {
		return errors.New("evictor is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the sweeper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper runner")
	return r.sweeper.Run(ctx)
}

// SweepOnce runs a single sweep.
func (r *Runner) SweepOnce(ctx context.Context) (int, error) {
	return r.sweeper.Sweep(ctx)
}
