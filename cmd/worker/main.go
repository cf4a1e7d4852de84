package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajavaid77/claims-review-pipeline/internal/bootstrap"
	"github.com/rajavaid77/claims-review-pipeline/internal/config"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/observability/logging"
	"github.com/rajavaid77/claims-review-pipeline/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("claims-worker", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	pipelineMetrics := metrics.NewPipelineMetrics("claims-worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: pipelineMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server", "error", err)
		}
	}()

	stageTimeout := time.Duration(cfg.StageTimeoutSeconds) * time.Second
	instrument := func(stage string, handle func(context.Context, domain.Notification) error) func(context.Context, domain.Notification) error {
		return func(handlerCtx context.Context, n domain.Notification) error {
			stageCtx, cancel := context.WithTimeout(handlerCtx, stageTimeout)
			defer cancel()

			pipelineMetrics.StartStage(stage)
			start := time.Now()
			err := handle(stageCtx, n)
			pipelineMetrics.FinishStage(stage, time.Since(start), err)
			return err
		}
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("worker subscribed", "subject", cfg.NATSSubmissionSubject)
		errCh <- app.Bus.SubscribeSubmissionCreated(ctx, instrument("submission", app.Submitter.Submit))
	}()
	go func() {
		logger.Info("worker subscribed", "subject", cfg.NATSJobSubject)
		errCh <- app.Bus.SubscribeJobCompleted(ctx, instrument("completion", app.Completion.Handle))
	}()

	for range 2 {
		if err := <-errCh; err != nil {
			logger.Error("worker subscription ended", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker metrics shutdown", "error", err)
	}
}
