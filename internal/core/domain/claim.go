package domain

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const claimReferenceLength = 6

const referenceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ResolveClaimReference derives the correlation key for a claim from the
// storage key of its submitted document. Keys shaped like
// "<claim_reference>/<filename>" yield the first segment; keys without a
// separator get a fresh random token. Every pipeline stage must derive the
// reference from the same key with this function, never invent its own.
func ResolveClaimReference(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return randomToken(claimReferenceLength)
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf)
}

// ObjectLocation addresses one object in external object storage.
type ObjectLocation struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func (l ObjectLocation) URI() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// ParseObjectURI splits an s3://bucket/key URI into its location parts.
func ParseObjectURI(uri string) (ObjectLocation, error) {
	trimmed, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return ObjectLocation{}, fmt.Errorf("not an object uri: %q", uri)
	}
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return ObjectLocation{}, fmt.Errorf("malformed object uri: %q", uri)
	}
	return ObjectLocation{Bucket: bucket, Key: key}, nil
}

type ClaimSubmission struct {
	ClaimReference   string         `json:"claim_reference"`
	DocumentLocation ObjectLocation `json:"document_location"`
	ReceivedAt       time.Time      `json:"received_at"`
}

type ExtractionJobStatus string

const (
	JobPending ExtractionJobStatus = "PENDING"
	JobSuccess ExtractionJobStatus = "SUCCESS"
	JobFailed  ExtractionJobStatus = "FAILED"
)

// ExtractionJob describes one asynchronous extraction run. Status changes
// arrive as bus notifications; the job is never polled here.
type ExtractionJob struct {
	ClaimReference string              `json:"claim_reference"`
	InputLocation  ObjectLocation      `json:"input_location"`
	OutputLocation ObjectLocation      `json:"output_location"`
	Status         ExtractionJobStatus `json:"status"`
	StartedAt      time.Time           `json:"started_at"`
}

// RoutingTargets name where the extraction service sends a document: a
// processing-profile id, a document-schema id, or both. At least one is
// mandatory before any job can be submitted.
type RoutingTargets struct {
	ProfileID string `json:"profile_id"`
	SchemaID  string `json:"schema_id"`
}

func (r RoutingTargets) Configured() bool {
	return r.ProfileID != "" || r.SchemaID != ""
}

// VerificationOutcome is what the verification stage hands back after the
// conversational session concludes, whether or not the agent was reachable.
type VerificationOutcome struct {
	ClaimReference string         `json:"claim_reference"`
	ResponseText   string         `json:"response_text"`
	OutputLocation ObjectLocation `json:"output_location"`
	AgentFailed    bool           `json:"agent_failed"`
}

type ClaimStatus string

const (
	ClaimStatusNew               ClaimStatus = "NEW"
	ClaimStatusInProgress        ClaimStatus = "IN_PROGRESS"
	ClaimStatusApproved          ClaimStatus = "APPROVED"
	ClaimStatusAdjudicatorReview ClaimStatus = "ADJUDICATOR_REVIEW"
)

// ClaimRecord is the relational business entity created once verification
// decides the claim is legitimate. Diagnoses holds one to four codes.
type ClaimRecord struct {
	ClaimID      int64       `json:"claim_id"`
	PatientID    int64       `json:"patient_id"`
	ClaimDate    time.Time   `json:"claim_date"`
	Diagnoses    []string    `json:"diagnoses"`
	TotalCharges float64     `json:"total_charges"`
	BalanceDue   float64     `json:"balance_due"`
	AmountPaid   float64     `json:"amount_paid"`
	Status       ClaimStatus `json:"status"`
}

func (c *ClaimRecord) Validate() error {
	if c.PatientID == 0 {
		return WrapError(ErrInvalidInput, "validate claim", fmt.Errorf("patient_id is required"))
	}
	if len(c.Diagnoses) == 0 || len(c.Diagnoses) > 4 {
		return WrapError(ErrInvalidInput, "validate claim", fmt.Errorf("expected 1..4 diagnoses, got %d", len(c.Diagnoses)))
	}
	return nil
}

type ServiceLine struct {
	ServiceID      int64     `json:"service_id"`
	ClaimID        int64     `json:"claim_id"`
	DateOfService  time.Time `json:"date_of_service"`
	PlaceOfService string    `json:"place_of_service"`
	TypeOfService  string    `json:"type_of_service"`
	ProcedureCode  string    `json:"procedure_code"`
	Amount         float64   `json:"amount"`
}

// InsuredMember is reference data, looked up by policy number during
// verification tool calls. Never created by this pipeline.
type InsuredMember struct {
	InsuredID    int64     `json:"insured_id"`
	Name         string    `json:"insured_name"`
	GroupNumber  string    `json:"insured_group_number"`
	PlanName     string    `json:"insured_plan_name"`
	BirthDate    time.Time `json:"insured_birth_date"`
	PolicyNumber string    `json:"insured_policy_number"`
	PhoneNumber  string    `json:"phone_number"`
	Address      string    `json:"address"`
}

type Patient struct {
	PatientID            int64     `json:"patient_id"`
	InsuredID            int64     `json:"insured_id"`
	FirstName            string    `json:"patient_firstname"`
	LastName             string    `json:"patient_lastname"`
	BirthDate            time.Time `json:"patient_birth_date"`
	RelationshipToInsured string   `json:"relationship_to_insured"`
	PhoneNumber          string    `json:"phone_number"`
	Sex                  string    `json:"sex"`
	Address              string    `json:"address"`
}
