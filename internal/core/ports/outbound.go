package ports

import (
	"context"
	"io"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

// ObjectStorage stores claim documents and pipeline artifacts. Saves use
// overwrite semantics; rewriting the same location is how redelivered
// notifications stay idempotent.
type ObjectStorage interface {
	Save(ctx context.Context, loc domain.ObjectLocation, data io.Reader) error
	Open(ctx context.Context, loc domain.ObjectLocation) (io.ReadCloser, error)
}

// ExtractionService starts asynchronous document extraction. The call only
// acknowledges acceptance; the outcome arrives later on the claim bus.
type ExtractionService interface {
	SubmitJob(ctx context.Context, job domain.ExtractionJob, routing domain.RoutingTargets) error
}

// VerificationAgent is the conversational collaborator. Session identity is
// the claim reference, so repeated invocations continue one logical
// conversation. The agent's reasoning and tool calls are opaque here.
type VerificationAgent interface {
	Invoke(ctx context.Context, sessionID, prompt string) (string, error)
}

// ClaimEventStore is the append-only audit trail plus its read side.
type ClaimEventStore interface {
	Append(ctx context.Context, event *domain.ClaimEvent) error
	ListByReference(ctx context.Context, claimReference string) ([]domain.ClaimEvent, error)
	ListSummaries(ctx context.Context) ([]domain.ClaimSummary, error)
}

// ClaimStore reads and writes the relational claim records used by the
// verification step's tool calls.
type ClaimStore interface {
	GetMemberByPolicyNumber(ctx context.Context, policyNumber string) (*domain.InsuredMember, error)
	GetPatient(ctx context.Context, policyNumber, lastName, birthDate string) (*domain.Patient, error)
	CreateClaim(ctx context.Context, claim *domain.ClaimRecord, lines []domain.ServiceLine) (int64, error)
	UpdateClaimStatus(ctx context.Context, claimID int64, status domain.ClaimStatus) error
}

// ClaimBus delivers pipeline notifications at least once. Redelivery bounds
// live in the bus configuration, not in the handlers.
type ClaimBus interface {
	PublishSubmissionCreated(ctx context.Context, n domain.ObjectCreatedNotification) error
	PublishJobCompleted(ctx context.Context, n domain.JobCompletedNotification) error
	SubscribeSubmissionCreated(ctx context.Context, handler func(context.Context, domain.Notification) error) error
	SubscribeJobCompleted(ctx context.Context, handler func(context.Context, domain.Notification) error) error
}
