package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Notification payloads arrive from independent sources (object storage,
// the extraction service) with shapes we only partially control. They are
// modeled as a tagged union of the known shapes plus an opaque fallback so
// that legitimate-but-unanticipated fields survive into the audit detail.

type NotificationKind string

const (
	NotificationObjectCreated NotificationKind = "object-created"
	NotificationJobCompleted  NotificationKind = "job-completed"
	NotificationOpaque        NotificationKind = "opaque"
)

type JobStatus string

const (
	JobStatusSuccess      JobStatus = "SUCCESS"
	JobStatusClientError  JobStatus = "CLIENT_ERROR"
	JobStatusServiceError JobStatus = "SERVICE_ERROR"
)

// ObjectCreatedNotification signals a document landing in submission
// storage. Key format: "<claim_reference>/<filename>".
type ObjectCreatedNotification struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func (n ObjectCreatedNotification) Location() ObjectLocation {
	return ObjectLocation{Bucket: n.Bucket, Key: n.Key}
}

// JobCompletedNotification signals the extraction service finishing a job.
// Correlation back to the claim runs through the input object key and the
// trailing asset segment of the output name, not a job id.
type JobCompletedNotification struct {
	JobStatus      JobStatus `json:"job_status"`
	InputObjectKey string    `json:"input_object_key"`
	OutputBucket   string    `json:"output_bucket"`
	OutputName     string    `json:"output_name"`
}

func (n JobCompletedNotification) ClaimReference() string {
	return ResolveClaimReference(n.InputObjectKey)
}

// OutputPrefix is the directory part of the output name; AssetID its
// trailing segment.
func (n JobCompletedNotification) OutputPrefix() string {
	if i := strings.LastIndexByte(n.OutputName, '/'); i >= 0 {
		return n.OutputName[:i]
	}
	return ""
}

func (n JobCompletedNotification) AssetID() string {
	if i := strings.LastIndexByte(n.OutputName, '/'); i >= 0 {
		return n.OutputName[i+1:]
	}
	return n.OutputName
}

// Notification is the decoded union. Exactly one of the typed fields is set
// for known kinds; Raw always preserves the wire payload verbatim.
type Notification struct {
	Kind          NotificationKind
	ObjectCreated *ObjectCreatedNotification
	JobCompleted  *JobCompletedNotification
	Raw           json.RawMessage
}

// RawDetail returns the verbatim payload as an audit detail blob.
func (n Notification) RawDetail() map[string]any {
	detail := map[string]any{}
	if len(n.Raw) > 0 {
		_ = json.Unmarshal(n.Raw, &detail)
	}
	return detail
}

type notificationEnvelope struct {
	Detail struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
		JobStatus     string `json:"job_status"`
		InputS3Object struct {
			Name string `json:"name"`
		} `json:"input_s3_object"`
		OutputS3Location struct {
			S3Bucket string `json:"s3_bucket"`
			Name     string `json:"name"`
		} `json:"output_s3_location"`
	} `json:"detail"`
}

// ParseNotification decodes a wire payload into the union. Unrecognized but
// well-formed JSON falls back to the opaque variant rather than an error;
// only malformed JSON is rejected.
func ParseNotification(data []byte) (Notification, error) {
	if !json.Valid(data) {
		return Notification{}, fmt.Errorf("malformed notification payload")
	}

	raw := json.RawMessage(append([]byte(nil), data...))

	var env notificationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Notification{Kind: NotificationOpaque, Raw: raw}, nil
	}

	switch {
	case env.Detail.JobStatus != "":
		return Notification{
			Kind: NotificationJobCompleted,
			JobCompleted: &JobCompletedNotification{
				JobStatus:      JobStatus(env.Detail.JobStatus),
				InputObjectKey: env.Detail.InputS3Object.Name,
				OutputBucket:   env.Detail.OutputS3Location.S3Bucket,
				OutputName:     env.Detail.OutputS3Location.Name,
			},
			Raw: raw,
		}, nil
	case env.Detail.Bucket.Name != "" && env.Detail.Object.Key != "":
		return Notification{
			Kind: NotificationObjectCreated,
			ObjectCreated: &ObjectCreatedNotification{
				Bucket: env.Detail.Bucket.Name,
				Key:    env.Detail.Object.Key,
			},
			Raw: raw,
		}, nil
	default:
		return Notification{Kind: NotificationOpaque, Raw: raw}, nil
	}
}
