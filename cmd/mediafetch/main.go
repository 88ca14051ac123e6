package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/mediafetch"
	"github.com/target/mediafetch/config"
	"github.com/target/mediafetch/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(bootstrap.LoggerOptions{})
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(bootstrap.LoggerOptions{Level: cfg.LogLevel, Dev: cfg.IsDev})

	logStartupInfo(ctx, logger, &cfg)

	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config: &cfg,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config:    &cfg,
		Services:  services,
		IndexHTML: mediafetch.IndexHTML,
		Logger:    logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting mediafetch service",
		"http_addr", cfg.HTTP.Addr,
		"output_dir", cfg.Engine.OutputDir,
		"retention", cfg.Sweeper.Retention,
		"grace_delay", cfg.Retrieval.GraceDelay,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}
