package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gridironlabs/roster-engine/internal/app"
	"github.com/gridironlabs/roster-engine/internal/config"
	"github.com/gridironlabs/roster-engine/internal/metrics"
	"github.com/gridironlabs/roster-engine/internal/observability"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
	"github.com/gridironlabs/roster-engine/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("pipeline exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("profiler shutdown failed", "error", err)
		}
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application failed", "error", err)
		}
	}()

	if cfg.RunMode == config.RunModeOnce {
		_, _, err := application.Pipeline.Run(ctx)
		return err
	}

	return runDaemon(ctx, cfg, application, logger)
}

func runDaemon(ctx context.Context, cfg config.Config, application *app.App, logger *logging.Logger) error {
	metricsServer := metrics.NewServer(cfg.MetricsAddr, logger)
	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	sched := scheduler.New(cfg.DaemonCronSpec, func(runCtx context.Context) error {
		_, _, err := application.Pipeline.Run(runCtx)
		return err
	}, logger)

	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown failed", "error", err)
	}

	logger.Info("pipeline daemon stopped")
	return nil
}
