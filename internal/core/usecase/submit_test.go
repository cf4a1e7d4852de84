package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

func TestSubmitStartsExtractionAndRecordsEvents(t *testing.T) {
	events := &eventStoreFake{}
	extraction := &extractionFake{}
	uc := NewSubmitExtractionUseCase(extraction, events,
		domain.RoutingTargets{ProfileID: "profile-1"}, "claims-review", testLogger())

	err := uc.Submit(context.Background(), objectCreated("claims-submission", "c123/form.pdf"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(extraction.jobs) != 1 {
		t.Fatalf("expected one job submission, got %d", len(extraction.jobs))
	}
	job := extraction.jobs[0]
	if job.ClaimReference != "c123" {
		t.Fatalf("claim reference = %q, want c123", job.ClaimReference)
	}
	if job.InputLocation.URI() != "s3://claims-submission/c123/form.pdf" {
		t.Fatalf("unexpected input location %q", job.InputLocation.URI())
	}
	if job.OutputLocation.URI() != "s3://claims-review/c123" {
		t.Fatalf("unexpected output location %q", job.OutputLocation.URI())
	}
	if extraction.routings[0].ProfileID != "profile-1" {
		t.Fatalf("routing target not forwarded: %+v", extraction.routings[0])
	}

	if len(events.appended) != 2 {
		t.Fatalf("expected two audit events, got %d", len(events.appended))
	}
	if events.appended[0].Type != domain.EventFormSubmission || events.appended[0].Status != domain.EventSuccess {
		t.Fatalf("first event should be submission success: %+v", events.appended[0])
	}
	if events.appended[1].Type != domain.EventDataProcessing || events.appended[1].Status != domain.EventInProgress {
		t.Fatalf("second event should be processing in-progress: %+v", events.appended[1])
	}
}

func TestSubmitFailsWithConfigurationErrorWhenNoRoutingTarget(t *testing.T) {
	events := &eventStoreFake{}
	extraction := &extractionFake{}
	uc := NewSubmitExtractionUseCase(extraction, events, domain.RoutingTargets{}, "claims-review", testLogger())

	err := uc.Submit(context.Background(), objectCreated("claims-submission", "c123/form.pdf"))
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if len(extraction.jobs) != 0 {
		t.Fatalf("no job may be submitted without a routing target")
	}

	last := events.lastEvent()
	if last.Type != domain.EventDataProcessing || last.Status != domain.EventFailed {
		t.Fatalf("configuration failure must be audited as processing failed: %+v", last)
	}
}

func TestSubmitAuditsExtractionServiceFailure(t *testing.T) {
	events := &eventStoreFake{}
	extraction := &extractionFake{submitErr: errors.New("service unavailable")}
	uc := NewSubmitExtractionUseCase(extraction, events,
		domain.RoutingTargets{SchemaID: "schema-7"}, "claims-review", testLogger())

	err := uc.Submit(context.Background(), objectCreated("claims-submission", "c123/form.pdf"))
	if err == nil {
		t.Fatalf("expected error")
	}

	last := events.lastEvent()
	if last.Type != domain.EventDataProcessing || last.Status != domain.EventFailed {
		t.Fatalf("submit failure must be audited: %+v", last)
	}
	if last.Detail[domain.DetailError] == "" {
		t.Fatalf("failure detail must carry the original error")
	}
}

func TestSubmitRejectsWrongNotificationKind(t *testing.T) {
	uc := NewSubmitExtractionUseCase(&extractionFake{}, &eventStoreFake{},
		domain.RoutingTargets{ProfileID: "p"}, "claims-review", testLogger())

	err := uc.Submit(context.Background(), domain.Notification{Kind: domain.NotificationOpaque})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubmitMintsReferenceForKeyWithoutSeparator(t *testing.T) {
	events := &eventStoreFake{}
	extraction := &extractionFake{}
	uc := NewSubmitExtractionUseCase(extraction, events,
		domain.RoutingTargets{ProfileID: "p"}, "claims-review", testLogger())

	if err := uc.Submit(context.Background(), objectCreated("claims-submission", "form.pdf")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	ref := extraction.jobs[0].ClaimReference
	if len(ref) != 6 {
		t.Fatalf("expected minted 6-char reference, got %q", ref)
	}
	if events.appended[0].ClaimReference != ref {
		t.Fatalf("audit rows must reuse the minted reference")
	}
}
