package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/mediafetch/config"
	"github.com/target/mediafetch/internal/adapters/sweeper"
	"github.com/target/mediafetch/internal/adapters/ytdlp"
	"github.com/target/mediafetch/internal/core"
	"github.com/target/mediafetch/internal/data"
	domainjob "github.com/target/mediafetch/internal/domain/job"
	"github.com/target/mediafetch/internal/observability/notify/pagerduty"
	"github.com/target/mediafetch/internal/observability/notify/slack"
	"github.com/target/mediafetch/internal/observability/statsd"
	"github.com/target/mediafetch/internal/service"
	"github.com/target/mediafetch/internal/service/failurenotifier"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Registry      *data.Registry
	Files         *data.FileStore
	Updates       *domainjob.DefaultNotifier
	Progress      *service.ProgressService
	Evictor       *service.Evictor
	Jobs          *service.JobService
	Retrieval     *service.RetrievalService
	Sweeper       *sweeper.Runner // nil when the sweeper service is disabled
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger

	// Engine overrides the yt-dlp engine; used by tests.
	Engine core.Engine
	// Clock overrides the wall clock; used by tests.
	Clock data.Clock
}

// NewServices wires the registry, storage, engine and job services.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = data.RealClock{}
	}

	files, err := data.NewFileStore(cfg.Engine.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}

	engine := deps.Engine
	if engine == nil {
		yt := ytdlp.New(ytdlp.Options{
			Binary:           cfg.Engine.Binary,
			ProgressInterval: cfg.Engine.ProgressInterval,
			AutoInstall:      cfg.Engine.AutoInstall,
			Logger:           logger,
		})
		if err := yt.Prepare(ctx); err != nil {
			return nil, fmt.Errorf("prepare engine: %w", err)
		}
		engine = yt
	}

	observability := buildObservability(logger, cfg.Observability)
	sink := observability.sink()

	registry := data.NewRegistry(data.RegistryOptions{Clock: clock})
	updates := domainjob.NewNotifier()

	progress, err := service.NewProgressService(service.ProgressServiceOptions{
		Registry:        registry,
		Updates:         updates,
		Logger:          logger,
		Metrics:         sink,
		FailureNotifier: observability.FailureNotifier,
		NotifyTimeout:   cfg.Observability.Notifications.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init progress service: %w", err)
	}

	evictor, err := service.NewEvictor(service.EvictorOptions{
		Registry: registry,
		Files:    files,
		Logger:   logger,
		Metrics:  sink,
	})
	if err != nil {
		return nil, fmt.Errorf("init evictor: %w", err)
	}

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Registry:      registry,
		Engine:        engine,
		Files:         files,
		Progress:      progress,
		Updates:       updates,
		Config:        cfg.Jobs,
		EngineTimeout: cfg.Engine.Timeout,
		Clock:         clock,
		Logger:        logger,
		Metrics:       sink,
	})
	if err != nil {
		return nil, fmt.Errorf("init job service: %w", err)
	}

	retrieval, err := service.NewRetrievalService(service.RetrievalServiceOptions{
		Registry: registry,
		Evictor:  evictor,
		Config:   cfg.Retrieval,
		Logger:   logger,
		Metrics:  sink,
	})
	if err != nil {
		return nil, fmt.Errorf("init retrieval service: %w", err)
	}

	var sweeperRunner *sweeper.Runner
	if cfg.IsSweeperEnabled() {
		sweeperRunner, err = sweeper.NewRunner(sweeper.RunnerOptions{
			Registry: registry,
			Evictor:  evictor,
			Config:   cfg.Sweeper,
			Logger:   logger,
			Clock:    clock,
			Metrics:  sink,
		})
		if err != nil {
			return nil, fmt.Errorf("init sweeper: %w", err)
		}
	}

	logger.InfoContext(ctx, "services initialised",
		"output_dir", files.Root(),
		"max_concurrent", cfg.Jobs.MaxConcurrent,
		"sweeper_enabled", sweeperRunner != nil,
		"metrics_enabled", observability.MetricsSink != nil,
		"notifications_enabled", observability.FailureNotifier.Enabled())

	return &ServiceContainer{
		Registry:      registry,
		Files:         files,
		Updates:       updates,
		Progress:      progress,
		Evictor:       evictor,
		Jobs:          jobs,
		Retrieval:     retrieval,
		Sweeper:       sweeperRunner,
		Observability: observability,
	}, nil
}

// sink returns the metrics sink, or nil so services skip emission.
func (o ObservabilityContainer) sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(obsLogger, cfg.Notifications),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: logger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{Logger: logger, Sinks: sinks})
}

// ServiceOrchestrationConfig contains everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config    *config.AppConfig
	Services  *ServiceContainer
	IndexHTML []byte
	Logger    *slog.Logger
}

// RunServicesWithShutdown starts the enabled services and blocks until ctx ends,
// SIGINT/SIGTERM arrives or a service fails, then stops everything in order.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config with config and services is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	var server *http.Server
	if enabled[config.ServiceModeHTTP] {
		server, err = startHTTP(gctx, g, cfg, logger)
		if err != nil {
			return err
		}
	}

	if enabled[config.ServiceModeSweeper] && cfg.Services.Sweeper != nil {
		g.Go(func() error {
			if err := cfg.Services.Sweeper.Run(gctx); err != nil {
				return fmt.Errorf("sweeper: %w", err)
			}
			logger.Info("sweeper stopped")
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		return gracefulStop(shutdownConfig{
			server:   server,
			services: cfg.Services,
			jobs:     cfg.Config.Jobs,
			logger:   logger,
		})
	})

	return g.Wait()
}

func startHTTP(
	ctx context.Context,
	g *errgroup.Group,
	cfg *ServiceOrchestrationConfig,
	logger *slog.Logger,
) (*http.Server, error) {
	httpCfg := cfg.Config.HTTP
	server := NewHTTPServer(&HTTPServerConfig{
		HTTP:      httpCfg,
		Services:  cfg.Services,
		IndexHTML: cfg.IndexHTML,
		Logger:    logger,
	})

	ln, err := ListenHTTP(ctx, server.Addr, httpCfg.MaxConnections)
	if err != nil {
		return nil, err
	}
	g.Go(func() error { return ServeHTTP(server, ln, logger) })
	return server, nil
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	server   *http.Server
	services *ServiceContainer
	jobs     config.JobsConfig
	logger   *slog.Logger
}

// gracefulStop stops intake first, then workers, then pending evictions and metrics.
func gracefulStop(cfg shutdownConfig) error {
	ctx := context.Background()
	var errs []error

	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: ctx,
		Server:  cfg.server,
		Logger:  cfg.logger,
	}); err != nil {
		errs = append(errs, err)
	}

	svc := cfg.services
	if svc.Jobs != nil {
		jobsCtx, cancel := context.WithTimeout(ctx, cfg.jobs.ShutdownTimeout)
		if err := svc.Jobs.Shutdown(jobsCtx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}

	if svc.Retrieval != nil {
		svc.Retrieval.Stop(ctx)
	}

	if svc.Observability.MetricsSink != nil {
		if err := svc.Observability.MetricsSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statsd: %w", err))
		}
	}

	cfg.logger.Info("services stopped")
	return errors.Join(errs...)
}
