package usecase

import (
	"context"
	"fmt"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
)

// ClaimHistoryUseCase is the read side of the audit trail: raw event rows
// and the lifecycle state derived from them. Ordering and anomaly flagging
// live here, never on the write path.
type ClaimHistoryUseCase struct {
	events ports.ClaimEventStore
}

func NewClaimHistoryUseCase(events ports.ClaimEventStore) *ClaimHistoryUseCase {
	return &ClaimHistoryUseCase{events: events}
}

func (uc *ClaimHistoryUseCase) Events(ctx context.Context, claimReference string) ([]domain.ClaimEvent, error) {
	events, err := uc.events.ListByReference(ctx, claimReference)
	if err != nil {
		return nil, fmt.Errorf("list claim events: %w", err)
	}
	if len(events) == 0 {
		return nil, domain.WrapError(domain.ErrClaimNotFound, "list claim events",
			fmt.Errorf("no events for claim %s", claimReference))
	}
	return events, nil
}

func (uc *ClaimHistoryUseCase) State(ctx context.Context, claimReference string) (domain.Lifecycle, error) {
	events, err := uc.Events(ctx, claimReference)
	if err != nil {
		return domain.Lifecycle{}, err
	}
	return domain.ReduceLifecycle(claimReference, events), nil
}

func (uc *ClaimHistoryUseCase) Summaries(ctx context.Context) ([]domain.ClaimSummary, error) {
	summaries, err := uc.events.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list claim summaries: %w", err)
	}
	return summaries, nil
}
