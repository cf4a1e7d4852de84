package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/core/ports"
)

const jobMetadataFile = "job_metadata.json"

// LocateExtractionResultUseCase walks a succeeded job's metadata to the one
// output artifact matching the original input asset, extracts its inference
// result, and republishes it at the canonical per-claim location. Every
// failure here is terminal for the claim's extraction and lands in the
// audit log with full context; nothing is retried.
type LocateExtractionResultUseCase struct {
	storage ports.ObjectStorage
	events  ports.ClaimEventStore
	logger  *slog.Logger
}

func NewLocateExtractionResultUseCase(
	storage ports.ObjectStorage,
	events ports.ClaimEventStore,
	logger *slog.Logger,
) *LocateExtractionResultUseCase {
	return &LocateExtractionResultUseCase{storage: storage, events: events, logger: logger}
}

type jobMetadata struct {
	OutputMetadata []outputEntry `json:"output_metadata"`
}

type outputEntry struct {
	AssetID         json.Number       `json:"asset_id"`
	SegmentMetadata []segmentMetadata `json:"segment_metadata"`
}

type segmentMetadata struct {
	CustomOutputPath string `json:"custom_output_path"`
}

// Locate returns the canonical location of the extraction result for a
// job-succeeded notification.
func (uc *LocateExtractionResultUseCase) Locate(ctx context.Context, n domain.Notification) (domain.ObjectLocation, error) {
	if n.JobCompleted == nil {
		return domain.ObjectLocation{}, domain.WrapError(domain.ErrInvalidInput, "locate extraction result",
			fmt.Errorf("notification kind %s is not job-completed", n.Kind))
	}
	jc := *n.JobCompleted
	claimReference := jc.ClaimReference()

	loc, err := uc.locate(ctx, jc, claimReference)
	if err != nil {
		uc.recordFailure(ctx, claimReference, n, err)
		return domain.ObjectLocation{}, err
	}

	if appendErr := uc.events.Append(ctx, &domain.ClaimEvent{
		ClaimReference: claimReference,
		Type:           domain.EventDataProcessing,
		Status:         domain.EventSuccess,
		Detail:         map[string]any{domain.DetailResultLocation: loc.URI()},
	}); appendErr != nil {
		return domain.ObjectLocation{}, fmt.Errorf("record extraction-success event: %w", appendErr)
	}
	return loc, nil
}

func (uc *LocateExtractionResultUseCase) locate(ctx context.Context, jc domain.JobCompletedNotification, claimReference string) (domain.ObjectLocation, error) {
	if jc.JobStatus != domain.JobStatusSuccess {
		return domain.ObjectLocation{}, domain.WrapError(domain.ErrJobFailed, "locate extraction result",
			fmt.Errorf("job status %s for claim %s", jc.JobStatus, claimReference))
	}

	metadata, err := uc.readJobMetadata(ctx, jc)
	if err != nil {
		return domain.ObjectLocation{}, err
	}
	if len(metadata.OutputMetadata) == 0 {
		return domain.ObjectLocation{}, domain.WrapError(domain.ErrMissingOutput, "locate extraction result",
			fmt.Errorf("job metadata has no output entries for claim %s", claimReference))
	}

	customOutputPath, err := matchAsset(metadata.OutputMetadata, jc.AssetID())
	if err != nil {
		return domain.ObjectLocation{}, err
	}

	result, err := uc.readInferenceResult(ctx, customOutputPath)
	if err != nil {
		return domain.ObjectLocation{}, err
	}

	canonical := domain.ObjectLocation{
		Bucket: jc.OutputBucket,
		Key:    jc.InputObjectKey + ".json",
	}
	if err := uc.storage.Save(ctx, canonical, bytes.NewReader(result)); err != nil {
		return domain.ObjectLocation{}, fmt.Errorf("write extraction result: %w", err)
	}

	uc.logger.Info("extraction result republished",
		"claim_reference", claimReference,
		"result_location", canonical.URI(),
	)
	return canonical, nil
}

func (uc *LocateExtractionResultUseCase) readJobMetadata(ctx context.Context, jc domain.JobCompletedNotification) (jobMetadata, error) {
	loc := domain.ObjectLocation{
		Bucket: jc.OutputBucket,
		Key:    jc.OutputPrefix() + "/" + jobMetadataFile,
	}
	body, err := uc.storage.Open(ctx, loc)
	if err != nil {
		return jobMetadata{}, domain.WrapError(domain.ErrMissingOutput, "read job metadata", err)
	}
	defer body.Close()

	var metadata jobMetadata
	if err := json.NewDecoder(body).Decode(&metadata); err != nil {
		return jobMetadata{}, domain.WrapError(domain.ErrMissingOutput, "decode job metadata", err)
	}
	return metadata, nil
}

// matchAsset finds the single entry whose asset id equals the trailing
// segment of the output location. Ambiguous or absent matches are
// correlation failures, not index errors.
func matchAsset(entries []outputEntry, assetID string) (string, error) {
	for _, entry := range entries {
		if entry.AssetID.String() != assetID {
			continue
		}
		if len(entry.SegmentMetadata) == 0 || entry.SegmentMetadata[0].CustomOutputPath == "" {
			return "", domain.WrapError(domain.ErrCorrelation, "match output asset",
				fmt.Errorf("asset %s has no custom output path", assetID))
		}
		return entry.SegmentMetadata[0].CustomOutputPath, nil
	}
	return "", domain.WrapError(domain.ErrCorrelation, "match output asset",
		fmt.Errorf("no output entry matches asset id %q", assetID))
}

func (uc *LocateExtractionResultUseCase) readInferenceResult(ctx context.Context, customOutputPath string) ([]byte, error) {
	loc, err := domain.ParseObjectURI(customOutputPath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorrelation, "parse custom output path", err)
	}

	body, err := uc.storage.Open(ctx, loc)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMissingOutput, "read custom output", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read custom output body: %w", err)
	}

	var custom struct {
		InferenceResult json.RawMessage `json:"inference_result"`
	}
	if err := json.Unmarshal(raw, &custom); err != nil {
		return nil, domain.WrapError(domain.ErrMissingOutput, "decode custom output", err)
	}
	if len(custom.InferenceResult) == 0 {
		return nil, domain.WrapError(domain.ErrMissingOutput, "decode custom output",
			fmt.Errorf("custom output has no inference result"))
	}
	return custom.InferenceResult, nil
}

func (uc *LocateExtractionResultUseCase) recordFailure(ctx context.Context, claimReference string, n domain.Notification, cause error) {
	detail := map[string]any{
		domain.DetailError: cause.Error(),
		"notification":     n.RawDetail(),
	}
	if err := uc.events.Append(ctx, &domain.ClaimEvent{
		ClaimReference: claimReference,
		Type:           domain.EventDataProcessing,
		Status:         domain.EventFailed,
		Detail:         detail,
	}); err != nil {
		uc.logger.Error("record extraction failure event",
			"claim_reference", claimReference,
			"error", err,
		)
	}
}
