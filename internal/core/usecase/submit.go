package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
)

// SubmitExtractionUseCase handles a document landing in submission storage:
// derive the claim reference, record the submission, and start the
// asynchronous extraction job. Fire-and-forget; the job outcome arrives
// later as its own notification.
type SubmitExtractionUseCase struct {
	extraction   ports.ExtractionService
	events       ports.ClaimEventStore
	routing      domain.RoutingTargets
	reviewBucket string
	logger       *slog.Logger
	now          func() time.Time
}

func NewSubmitExtractionUseCase(
	extraction ports.ExtractionService,
	events ports.ClaimEventStore,
	routing domain.RoutingTargets,
	reviewBucket string,
	logger *slog.Logger,
) *SubmitExtractionUseCase {
	return &SubmitExtractionUseCase{
		extraction:   extraction,
		events:       events,
		routing:      routing,
		reviewBucket: reviewBucket,
		logger:       logger,
		now:          time.Now,
	}
}

func (uc *SubmitExtractionUseCase) Submit(ctx context.Context, n domain.Notification) error {
	if n.ObjectCreated == nil {
		return domain.WrapError(domain.ErrInvalidInput, "submit extraction", fmt.Errorf("notification kind %s is not object-created", n.Kind))
	}
	oc := *n.ObjectCreated
	claimReference := domain.ResolveClaimReference(oc.Key)

	uc.logger.Info("claim form submitted",
		"claim_reference", claimReference,
		"bucket", oc.Bucket,
		"key", oc.Key,
	)

	if err := uc.events.Append(ctx, &domain.ClaimEvent{
		ClaimReference: claimReference,
		Type:           domain.EventFormSubmission,
		Status:         domain.EventSuccess,
		Detail:         n.RawDetail(),
	}); err != nil {
		return fmt.Errorf("record submission event: %w", err)
	}

	if !uc.routing.Configured() {
		err := domain.WrapError(domain.ErrConfiguration, "submit extraction",
			fmt.Errorf("neither processing profile nor document schema configured"))
		uc.recordProcessingFailure(ctx, claimReference, err)
		return err
	}

	job := domain.ExtractionJob{
		ClaimReference: claimReference,
		InputLocation:  oc.Location(),
		OutputLocation: domain.ObjectLocation{Bucket: uc.reviewBucket, Key: claimReference},
		Status:         domain.JobPending,
		StartedAt:      uc.now().UTC(),
	}
	if err := uc.extraction.SubmitJob(ctx, job, uc.routing); err != nil {
		wrapped := fmt.Errorf("submit extraction job: %w", err)
		uc.recordProcessingFailure(ctx, claimReference, wrapped)
		return wrapped
	}

	if err := uc.events.Append(ctx, &domain.ClaimEvent{
		ClaimReference: claimReference,
		Type:           domain.EventDataProcessing,
		Status:         domain.EventInProgress,
		Detail: map[string]any{
			"input_location":  job.InputLocation.URI(),
			"output_location": job.OutputLocation.URI(),
		},
	}); err != nil {
		return fmt.Errorf("record extraction-start event: %w", err)
	}
	return nil
}

func (uc *SubmitExtractionUseCase) recordProcessingFailure(ctx context.Context, claimReference string, cause error) {
	if err := uc.events.Append(ctx, &domain.ClaimEvent{
		ClaimReference: claimReference,
		Type:           domain.EventDataProcessing,
		Status:         domain.EventFailed,
		Detail:         map[string]any{domain.DetailError: cause.Error()},
	}); err != nil {
		uc.logger.Error("record processing failure event",
			"claim_reference", claimReference,
			"error", err,
		)
	}
}
