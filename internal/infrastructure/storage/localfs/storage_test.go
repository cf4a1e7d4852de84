package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

func TestSaveAndOpenRoundtripNestedKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	loc := domain.ObjectLocation{Bucket: "claims-review", Key: "c123/out/job_metadata.json"}

	if err := storage.Save(context.Background(), loc, strings.NewReader(`{"output_metadata":[]}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	body, err := storage.Open(context.Background(), loc)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(raw) != `{"output_metadata":[]}` {
		t.Fatalf("unexpected body: %s", raw)
	}
}

func TestSaveOverwritesExistingObject(t *testing.T) {
	storage, _ := New(t.TempDir())
	loc := domain.ObjectLocation{Bucket: "claims-review", Key: "c123/form.pdf.json"}

	for _, content := range []string{"first", "second"} {
		if err := storage.Save(context.Background(), loc, strings.NewReader(content)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	body, err := storage.Open(context.Background(), loc)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer body.Close()
	raw, _ := io.ReadAll(body)
	if string(raw) != "second" {
		t.Fatalf("overwrite semantics broken, got %s", raw)
	}
}

func TestOpenMissingObjectFails(t *testing.T) {
	storage, _ := New(t.TempDir())
	_, err := storage.Open(context.Background(), domain.ObjectLocation{Bucket: "b", Key: "missing"})
	if err == nil {
		t.Fatalf("expected error for missing object")
	}
}

func TestKeyMayNotEscapeBucket(t *testing.T) {
	storage, _ := New(t.TempDir())
	loc := domain.ObjectLocation{Bucket: "b", Key: "../../etc/passwd"}
	if err := storage.Save(context.Background(), loc, strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for escaping key")
	}
}
