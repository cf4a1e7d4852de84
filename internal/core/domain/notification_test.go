package domain

import (
	"encoding/json"
	"testing"
)

func TestParseNotificationObjectCreated(t *testing.T) {
	payload := []byte(`{
		"source": "storage",
		"detail-type": "Object Created",
		"detail": {
			"bucket": {"name": "claims-submission"},
			"object": {"key": "c123/form.pdf"}
		}
	}`)

	n, err := ParseNotification(payload)
	if err != nil {
		t.Fatalf("ParseNotification() error = %v", err)
	}
	if n.Kind != NotificationObjectCreated {
		t.Fatalf("expected object-created, got %s", n.Kind)
	}
	if n.ObjectCreated.Bucket != "claims-submission" || n.ObjectCreated.Key != "c123/form.pdf" {
		t.Fatalf("unexpected payload: %+v", n.ObjectCreated)
	}
}

func TestParseNotificationJobCompleted(t *testing.T) {
	payload := []byte(`{
		"detail": {
			"job_status": "SUCCESS",
			"input_s3_object": {"name": "c123/form.pdf"},
			"output_s3_location": {"s3_bucket": "claims-review", "name": "c123/out/asset-0"}
		}
	}`)

	n, err := ParseNotification(payload)
	if err != nil {
		t.Fatalf("ParseNotification() error = %v", err)
	}
	if n.Kind != NotificationJobCompleted {
		t.Fatalf("expected job-completed, got %s", n.Kind)
	}
	jc := n.JobCompleted
	if jc.JobStatus != JobStatusSuccess {
		t.Fatalf("unexpected status %q", jc.JobStatus)
	}
	if jc.ClaimReference() != "c123" {
		t.Fatalf("claim reference = %q, want c123", jc.ClaimReference())
	}
	if jc.OutputPrefix() != "c123/out" || jc.AssetID() != "asset-0" {
		t.Fatalf("prefix/asset = %q/%q", jc.OutputPrefix(), jc.AssetID())
	}
}

func TestParseNotificationOpaqueFallbackPreservesPayload(t *testing.T) {
	payload := []byte(`{"detail": {"something": "else", "nested": {"n": 1}}}`)

	n, err := ParseNotification(payload)
	if err != nil {
		t.Fatalf("ParseNotification() error = %v", err)
	}
	if n.Kind != NotificationOpaque {
		t.Fatalf("expected opaque, got %s", n.Kind)
	}
	if string(n.Raw) != string(payload) {
		t.Fatalf("raw payload not preserved verbatim")
	}

	detail := n.RawDetail()
	var want map[string]any
	if err := json.Unmarshal(payload, &want); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if len(detail) != len(want) {
		t.Fatalf("detail lost fields: %v", detail)
	}
}

func TestParseNotificationRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseNotification([]byte(`{"detail":`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestParseNotificationToleratesExtraFields(t *testing.T) {
	payload := []byte(`{
		"detail": {
			"job_status": "SERVICE_ERROR",
			"input_s3_object": {"name": "c9/scan.pdf", "etag": "abc"},
			"output_s3_location": {"s3_bucket": "claims-review", "name": "c9/out/a1"},
			"error_message": "internal failure"
		}
	}`)

	n, err := ParseNotification(payload)
	if err != nil {
		t.Fatalf("ParseNotification() error = %v", err)
	}
	if n.Kind != NotificationJobCompleted {
		t.Fatalf("expected job-completed, got %s", n.Kind)
	}
	if n.JobCompleted.JobStatus != JobStatusServiceError {
		t.Fatalf("unexpected status %q", n.JobCompleted.JobStatus)
	}
	if _, ok := n.RawDetail()["detail"]; !ok {
		t.Fatalf("verbatim detail should keep unanticipated fields")
	}
}
