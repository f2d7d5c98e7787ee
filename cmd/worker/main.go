package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twinforge/aasx-etl/internal/bootstrap"
	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/usecase"
	"github.com/twinforge/aasx-etl/internal/infrastructure/queue/nats"
	"github.com/twinforge/aasx-etl/internal/observability/logging"
	"github.com/twinforge/aasx-etl/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("aasx-etl-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	pipelineMetrics := metrics.NewPipelineMetrics("aasx-etl-worker")
	pipeline := usecase.NewPipeline(cfg.Pipeline, app.Factory, logger, pipelineMetrics)

	queue, err := nats.New(cfg.Worker.NATSURL, cfg.Worker.NATSSubject, logger)
	if err != nil {
		logger.Error("queue init failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Worker.MetricsPort,
		Handler: pipelineMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.Worker.NATSSubject, "metrics_port", cfg.Worker.MetricsPort)
	err = queue.SubscribePackages(ctx, func(handlerCtx context.Context, path string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		result := pipeline.ProcessFile(processCtx, path)
		if result.Status != domain.StatusCompleted {
			return fmt.Errorf("processing %s failed: %v", path, result.Errors)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}
