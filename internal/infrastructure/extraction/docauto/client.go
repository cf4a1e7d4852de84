package docauto

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/resilience"
)

// Client submits asynchronous extraction jobs to the document automation
// service. The service acknowledges acceptance immediately and announces the
// outcome later through a job-completed notification; nothing here waits for
// the extraction to finish.
type Client struct {
	baseURL    string
	guard      *resilience.Guard
	httpClient *http.Client
}

func New(baseURL string, guard *resilience.Guard) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		guard:      guard,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type jobRequest struct {
	InputLocation  string          `json:"input_location"`
	OutputLocation string          `json:"output_location"`
	ProfileID      string          `json:"profile_id"`
	BlueprintID    string          `json:"blueprint_id,omitempty"`
	Tags           []jobRequestTag `json:"tags"`
}

type jobRequestTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
}

// SubmitJob starts extraction for one claim document. The claim reference
// rides along as a job tag so the completion notification can be correlated
// back to the claim.
func (c *Client) SubmitJob(ctx context.Context, job domain.ExtractionJob, routing domain.RoutingTargets) error {
	payload := jobRequest{
		InputLocation:  job.InputLocation.URI(),
		OutputLocation: job.OutputLocation.URI(),
		ProfileID:      routing.ProfileID,
		BlueprintID:    routing.SchemaID,
		Tags: []jobRequestTag{
			{Key: "Claim Id", Value: job.ClaimReference},
		},
	}

	err := c.guard.Execute(ctx, "extraction.submit", func(ctx context.Context) error {
		var response jobResponse
		return c.postJSON(ctx, "/v1/jobs", payload, &response, "submit job")
	})
	return wrapTemporaryIfNeeded("submit extraction job", err)
}
