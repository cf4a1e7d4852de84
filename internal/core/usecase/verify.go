package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
)

const claimOutputFile = "claim_output.json"

// apologyMessage replaces the agent response when the verification call
// fails outward communication. The pipeline still completes its accounting
// steps with this text as the persisted output.
const apologyMessage = "Our system is currently unable to complete this task. " +
	"Please attempt to submit your claim again in approximately 5-10 minutes. " +
	"If you continue to experience difficulties, we kindly request that you contact " +
	"our customer support team for further assistance. We appreciate your patience " +
	"and understanding as we work to resolve this issue"

// VerificationInvokerUseCase opens the conversational verification session
// for a claim and persists whatever came back. Session identity equals the
// claim reference, so a repeated invocation continues the same logical
// conversation; serialization of concurrent sessions is the agent
// service's concern, not ours.
type VerificationInvokerUseCase struct {
	agent   ports.VerificationAgent
	storage ports.ObjectStorage
	events  ports.ClaimEventStore
	logger  *slog.Logger
}

func NewVerificationInvokerUseCase(
	agent ports.VerificationAgent,
	storage ports.ObjectStorage,
	events ports.ClaimEventStore,
	logger *slog.Logger,
) *VerificationInvokerUseCase {
	return &VerificationInvokerUseCase{agent: agent, storage: storage, events: events, logger: logger}
}

func (uc *VerificationInvokerUseCase) Invoke(ctx context.Context, claimReference string, result domain.ObjectLocation) (domain.VerificationOutcome, error) {
	if err := uc.events.Append(ctx, &domain.ClaimEvent{
		ClaimReference: claimReference,
		Type:           domain.EventVerification,
		Status:         domain.EventInProgress,
		Detail:         map[string]any{domain.DetailResultLocation: result.URI()},
	}); err != nil {
		return domain.VerificationOutcome{}, fmt.Errorf("record verification-start event: %w", err)
	}

	prompt := fmt.Sprintf("Review the claim using claim form data in S3 URI %s", result.URI())

	responseText, agentErr := uc.agent.Invoke(ctx, claimReference, prompt)
	if agentErr != nil {
		uc.logger.Warn("verification agent call failed, substituting safe message",
			"claim_reference", claimReference,
			"error", agentErr,
		)
		responseText = apologyMessage
	}

	outputLocation := domain.ObjectLocation{
		Bucket: result.Bucket,
		Key:    claimReference + "/" + claimOutputFile,
	}
	encoded, err := json.Marshal(responseText)
	if err != nil {
		return domain.VerificationOutcome{}, fmt.Errorf("encode verification output: %w", err)
	}
	if err := uc.storage.Save(ctx, outputLocation, bytes.NewReader(encoded)); err != nil {
		uc.recordResult(ctx, claimReference, domain.EventFailed, map[string]any{
			domain.DetailError: err.Error(),
		})
		return domain.VerificationOutcome{}, fmt.Errorf("write verification output: %w", err)
	}

	if agentErr != nil {
		uc.recordResult(ctx, claimReference, domain.EventFailed, map[string]any{
			domain.DetailError:          agentErr.Error(),
			domain.DetailOutputLocation: outputLocation.URI(),
		})
	} else {
		uc.recordResult(ctx, claimReference, domain.EventSuccess, map[string]any{
			domain.DetailOutputLocation: outputLocation.URI(),
		})
	}

	return domain.VerificationOutcome{
		ClaimReference: claimReference,
		ResponseText:   responseText,
		OutputLocation: outputLocation,
		AgentFailed:    agentErr != nil,
	}, nil
}

func (uc *VerificationInvokerUseCase) recordResult(ctx context.Context, claimReference string, status domain.ClaimEventStatus, detail map[string]any) {
	if err := uc.events.Append(ctx, &domain.ClaimEvent{
		ClaimReference: claimReference,
		Type:           domain.EventVerification,
		Status:         status,
		Detail:         detail,
	}); err != nil {
		uc.logger.Error("record verification event",
			"claim_reference", claimReference,
			"status", string(status),
			"error", err,
		)
	}
}
