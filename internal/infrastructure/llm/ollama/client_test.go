package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dkrasniqi/campus-assistant/internal/core/domain"
	"github.com/dkrasniqi/campus-assistant/internal/infrastructure/resilience"
)

func noRetryExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Policy{
		RetryMaxAttempts: 1,
		BreakerEnabled:   false,
	})
}

func TestGeneratorBuildsGroundedPrompt(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":" Winter break starts in December. "}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", noRetryExecutor())
	gen := NewGenerator(client)
	answer, err := gen.GenerateAnswer(context.Background(), "When is winter break?", "[1] Winter break runs from December 20 to January 6.")
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "Winter break starts in December." {
		t.Fatalf("answer must be trimmed, got %q", answer)
	}
	if !strings.Contains(capturedPrompt, "When is winter break?") {
		t.Fatalf("prompt missing question: %s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "[1] Winter break runs from December 20 to January 6.") {
		t.Fatalf("prompt missing context: %s", capturedPrompt)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", noRetryExecutor())
	embedder := NewEmbedder(client)
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("bad gateway must surface as temporary, got %v", err)
	}
}

func TestEmbedRejectsVectorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", noRetryExecutor())
	embedder := NewEmbedder(client)
	_, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "2 inputs") {
		t.Fatalf("expected vector count mismatch error, got %v", err)
	}
}

func TestEmbedRetriesTransientStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", resilience.NewExecutor(resilience.Policy{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 1,
		RetryMaxBackoff:     1,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}))
	embedder := NewEmbedder(client)
	vectors, err := embedder.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2-dim vector, got %v", vectors)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}
