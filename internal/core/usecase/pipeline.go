package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
)

// locator and verifier are satisfied by the concrete use cases; split out so
// the completion handler can be tested against fakes.
type resultLocator interface {
	Locate(ctx context.Context, n domain.Notification) (domain.ObjectLocation, error)
}

type verificationInvoker interface {
	Invoke(ctx context.Context, claimReference string, result domain.ObjectLocation) (domain.VerificationOutcome, error)
}

// JobCompletionUseCase routes an extraction job-completed notification.
// Error statuses go straight to the audit log; successes run through the
// result locator and on to verification. Terminal claim failures are
// acknowledged after auditing so the bus does not redeliver work that can
// never succeed.
type JobCompletionUseCase struct {
	locator  resultLocator
	verifier verificationInvoker
	events   ports.ClaimEventStore
	logger   *slog.Logger
}

func NewJobCompletionUseCase(
	locator resultLocator,
	verifier verificationInvoker,
	events ports.ClaimEventStore,
	logger *slog.Logger,
) *JobCompletionUseCase {
	return &JobCompletionUseCase{
		locator:  locator,
		verifier: verifier,
		events:   events,
		logger:   logger,
	}
}

func (uc *JobCompletionUseCase) Handle(ctx context.Context, n domain.Notification) error {
	if n.JobCompleted == nil {
		// Unanticipated shape on the completion subject. There is no claim
		// reference to audit against, so log it and acknowledge.
		uc.logger.Warn("dropping unrecognized completion notification", "kind", string(n.Kind))
		return nil
	}
	jc := *n.JobCompleted
	claimReference := jc.ClaimReference()

	if jc.JobStatus != domain.JobStatusSuccess {
		if err := uc.events.Append(ctx, &domain.ClaimEvent{
			ClaimReference: claimReference,
			Type:           domain.EventDataProcessing,
			Status:         domain.EventFailed,
			Detail:         n.RawDetail(),
		}); err != nil {
			return fmt.Errorf("record job failure event: %w", err)
		}
		uc.logger.Warn("extraction job failed",
			"claim_reference", claimReference,
			"job_status", string(jc.JobStatus),
		)
		return nil
	}

	resultLocation, err := uc.locator.Locate(ctx, n)
	if err != nil {
		if domain.IsTerminalForClaim(err) {
			uc.logger.Error("extraction result lost for claim",
				"claim_reference", claimReference,
				"error", err,
			)
			return nil
		}
		return err
	}

	if _, err := uc.verifier.Invoke(ctx, claimReference, resultLocation); err != nil {
		return fmt.Errorf("invoke verification: %w", err)
	}
	return nil
}
