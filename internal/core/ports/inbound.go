package ports

import (
	"context"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

// ExtractionSubmitter handles a submission-storage object-created
// notification: derive the claim reference and start extraction.
type ExtractionSubmitter interface {
	Submit(ctx context.Context, n domain.Notification) error
}

// JobCompletionHandler routes an extraction job-completed notification:
// failures go straight to the audit log, successes through result location
// and on to verification.
type JobCompletionHandler interface {
	Handle(ctx context.Context, n domain.Notification) error
}

// ClaimHistoryService is the read-only audit query surface consumed by the
// HTTP API.
type ClaimHistoryService interface {
	Events(ctx context.Context, claimReference string) ([]domain.ClaimEvent, error)
	State(ctx context.Context, claimReference string) (domain.Lifecycle, error)
	Summaries(ctx context.Context) ([]domain.ClaimSummary, error)
}
