package openaiagent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/resilience"
	"github.com/rajavaid77/claims-review-pipeline/internal/observability/logging"
)

func streamServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func writeChunk(w http.ResponseWriter, content string) {
	fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

func TestInvokeAccumulatesStreamedText(t *testing.T) {
	var captured struct {
		User   string `json:"user"`
		Stream bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "Claim looks ")
		writeChunk(w, "consistent.")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	defer server.Close()

	client := New(server.URL, "test-key", "gpt-4o-mini", resilience.NewGuard(resilience.DefaultConfig()), logging.NewJSONLogger("test", "error"))
	text, err := client.Invoke(context.Background(), "c123", "Review the claim")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if text != "Claim looks consistent." {
		t.Fatalf("text = %q", text)
	}

	if !captured.Stream {
		t.Fatalf("expected streaming request")
	}
	if captured.User != "c123" {
		t.Fatalf("user = %q, want claim reference", captured.User)
	}
	if len(captured.Messages) != 2 || captured.Messages[1].Content != "Review the claim" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
}

func TestInvokeWrapsTransportErrors(t *testing.T) {
	server := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	})
	defer server.Close()

	client := New(server.URL, "test-key", "gpt-4o-mini", resilience.NewGuard(resilience.DefaultConfig()), logging.NewJSONLogger("test", "error"))
	_, err := client.Invoke(context.Background(), "c123", "Review the claim")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrVerificationTransport) {
		t.Fatalf("expected verification transport error, got %v", err)
	}
}
