package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rajavaid77/claims-review-pipeline/internal/config"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/usecase"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/agent/openaiagent"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/extraction/docauto"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/mcptools"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/queue/nats"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/repository/cached"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/repository/postgres"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/resilience"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Bus     *nats.Bus
	Storage ports.ObjectStorage
	Claims  ports.ClaimStore
	Events  ports.ClaimEventStore

	Submitter  ports.ExtractionSubmitter
	Completion ports.JobCompletionHandler
	History    ports.ClaimHistoryService

	Tools *mcptools.Server

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	eventRepo := postgres.NewClaimEventRepository(db)
	if err := eventRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure claim event schema: %w", err)
	}
	claimsRepo := postgres.NewClaimsRepository(db)
	if err := claimsRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure claims schema: %w", err)
	}
	claims := cached.NewClaimStore(claimsRepo,
		time.Duration(cfg.ReferenceCacheTTLSeconds)*time.Second,
		time.Duration(cfg.ReferenceCachePurgeSeconds)*time.Second,
	)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	bus, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubmissionSubject, cfg.NATSJobSubject, cfg.NATSQueueGroup, logger, nats.Options{
		MaxDeliver:  cfg.NATSMaxDeliver,
		MaxEventAge: time.Duration(cfg.NATSMaxEventAgeMinutes) * time.Minute,
		AckWait:     time.Duration(cfg.NATSAckWaitSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("init claim bus: %w", err)
	}

	routing, err := config.LoadRouting(cfg.RoutingFilePath)
	if err != nil {
		return nil, fmt.Errorf("load extraction routing: %w", err)
	}

	guard := resilience.NewGuard(resilience.Config{
		MinRequests:      uint32(cfg.BreakerMinRequests),
		FailureRatio:     float64(cfg.BreakerFailurePercent) / 100.0,
		OpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
		HalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
	})

	extraction := docauto.New(cfg.ExtractionURL, guard)
	agent := openaiagent.New(cfg.AgentBaseURL, cfg.AgentAPIKey, cfg.AgentModel, guard, logger)

	submitter := usecase.NewSubmitExtractionUseCase(extraction, eventRepo, routing, cfg.ReviewBucket, logger)
	locator := usecase.NewLocateExtractionResultUseCase(storage, eventRepo, logger)
	verifier := usecase.NewVerificationInvokerUseCase(agent, storage, eventRepo, logger)
	completion := usecase.NewJobCompletionUseCase(locator, verifier, eventRepo, logger)
	history := usecase.NewClaimHistoryUseCase(eventRepo)

	tools := mcptools.NewServer(claims, storage, logger)

	return &App{
		Config: cfg,

		Bus:     bus,
		Storage: storage,
		Claims:  claims,
		Events:  eventRepo,

		Submitter:  submitter,
		Completion: completion,
		History:    history,

		Tools: tools,

		closeFn: func() {
			bus.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
