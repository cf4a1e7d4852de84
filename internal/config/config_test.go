package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIncludesRedeliveryDefaults(t *testing.T) {
	t.Setenv("NATS_MAX_DELIVER", "")
	t.Setenv("NATS_MAX_EVENT_AGE_MINUTES", "")
	t.Setenv("NATS_SUBMISSION_SUBJECT", "")
	t.Setenv("NATS_JOB_SUBJECT", "")

	cfg := Load()
	if cfg.NATSMaxDeliver != 2 {
		t.Fatalf("expected default max deliver 2, got %d", cfg.NATSMaxDeliver)
	}
	if cfg.NATSMaxEventAgeMinutes != 120 {
		t.Fatalf("expected default max event age 120 minutes, got %d", cfg.NATSMaxEventAgeMinutes)
	}
	if cfg.NATSSubmissionSubject != "claims.submission.created" {
		t.Fatalf("unexpected submission subject %q", cfg.NATSSubmissionSubject)
	}
	if cfg.NATSJobSubject != "claims.extraction.completed" {
		t.Fatalf("unexpected job subject %q", cfg.NATSJobSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("REVIEW_BUCKET", "review-eu")
	t.Setenv("STAGE_TIMEOUT_SECONDS", "120")
	t.Setenv("BREAKER_FAILURE_PERCENT", "not-a-number")

	cfg := Load()
	if cfg.ReviewBucket != "review-eu" {
		t.Fatalf("expected review bucket override, got %q", cfg.ReviewBucket)
	}
	if cfg.StageTimeoutSeconds != 120 {
		t.Fatalf("expected stage timeout 120, got %d", cfg.StageTimeoutSeconds)
	}
	if cfg.BreakerFailurePercent != 60 {
		t.Fatalf("expected fallback for unparsable int, got %d", cfg.BreakerFailurePercent)
	}
}

func TestLoadRoutingReadsTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	content := "extraction:\n  profile_id: claims-profile\n  schema_id: cms1500\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write routing file: %v", err)
	}

	routing, err := LoadRouting(path)
	if err != nil {
		t.Fatalf("LoadRouting() error = %v", err)
	}
	if routing.ProfileID != "claims-profile" || routing.SchemaID != "cms1500" {
		t.Fatalf("routing = %+v", routing)
	}
	if !routing.Configured() {
		t.Fatalf("expected routing to be configured")
	}
}

func TestLoadRoutingMissingFileIsUnconfigured(t *testing.T) {
	routing, err := LoadRouting(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRouting() error = %v", err)
	}
	if routing.Configured() {
		t.Fatalf("expected unconfigured routing, got %+v", routing)
	}
}

func TestLoadRoutingRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	if err := os.WriteFile(path, []byte("extraction: ["), 0o600); err != nil {
		t.Fatalf("write routing file: %v", err)
	}
	if _, err := LoadRouting(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
