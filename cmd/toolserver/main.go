package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rajavaid77/claims-review-pipeline/internal/bootstrap"
	"github.com/rajavaid77/claims-review-pipeline/internal/config"
	"github.com/rajavaid77/claims-review-pipeline/internal/observability/logging"
)

// The tool server speaks MCP over stdio; protocol logs go to stderr so they
// never mix with the transport.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "claims-toolserver", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	logger.Info("tool server listening on stdio")
	if err := app.Tools.ServeStdio(); err != nil {
		log.Fatalf("tool server error: %v", err)
	}
}
