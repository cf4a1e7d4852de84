package domain

import "time"

type ClaimEventType string

const (
	EventFormSubmission ClaimEventType = "CLAIM FORM SUBMISSION"
	EventDataProcessing ClaimEventType = "CLAIM DATA PROCESSING"
	EventVerification   ClaimEventType = "CLAIM VERIFICATION"
)

type ClaimEventStatus string

const (
	EventInProgress ClaimEventStatus = "IN PROGRESS"
	EventSuccess    ClaimEventStatus = "SUCCESS"
	EventFailed     ClaimEventStatus = "FAILED"
)

// ClaimEvent is one row of the append-only audit trail. Rows are never
// updated or deleted; duplicates from redelivered notifications are a
// tolerated artifact. Detail carries the upstream payload verbatim because
// notification shapes vary by source.
type ClaimEvent struct {
	ID             int64            `json:"id"`
	ClaimReference string           `json:"claim_reference"`
	Type           ClaimEventType   `json:"claim_event"`
	Status         ClaimEventStatus `json:"claim_status"`
	Detail         map[string]any   `json:"detail,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Detail keys with pipeline-level meaning. Everything else in Detail is
// opaque upstream payload.
const (
	DetailOutcome        = "outcome"
	DetailError          = "error"
	DetailResultLocation = "result_location"
	DetailOutputLocation = "output_location"
)

// ClaimSummary is the read-side rollup: one claim reference with its latest
// status per event type.
type ClaimSummary struct {
	ClaimReference string           `json:"claim_reference"`
	Submission     ClaimEventStatus `json:"submission,omitempty"`
	Processing     ClaimEventStatus `json:"processing,omitempty"`
	Verification   ClaimEventStatus `json:"verification,omitempty"`
}
