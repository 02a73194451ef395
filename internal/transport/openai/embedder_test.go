package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *Embedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbedder(&EmbedderConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "text-embedding-3-small",
		Logger:  zap.NewNop(),
	})
}

func embeddingsJSON(vectors ...[]float64) string {
	type item struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	}
	items := make([]item, len(vectors))
	for i, v := range vectors {
		items[i] = item{Object: "embedding", Index: i, Embedding: v}
	}
	payload := map[string]any{"object": "list", "data": items, "model": "text-embedding-3-small"}
	out, _ := json.Marshal(payload)
	return string(out)
}

func TestEmbed_OneVectorPerInput(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(embeddingsJSON([]float64{0.1, 0.2}, []float64{0.3, 0.4})))
	})

	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if len(vecs[0]) != 2 || len(vecs[1]) != 2 {
		t.Errorf("unexpected vector shapes %v", vecs)
	}
}

func TestEmbed_CountMismatchIsMalformed(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(embeddingsJSON([]float64{0.1, 0.2})))
	})

	_, err := e.Embed(context.Background(), []string{"first", "second"})
	if !errors.Is(err, domain.ErrMalformedEmbedding) {
		t.Fatalf("expected ErrMalformedEmbedding, got %v", err)
	}
}

func TestEmbed_EmptyVectorIsMalformed(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(embeddingsJSON([]float64{})))
	})

	_, err := e.Embed(context.Background(), []string{"only"})
	if !errors.Is(err, domain.ErrMalformedEmbedding) {
		t.Fatalf("expected ErrMalformedEmbedding, got %v", err)
	}
}

func TestEmbed_BackendErrorIsProviderError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail": "upstream down"}`))
	})

	_, err := e.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("error should carry backend detail, got %v", err)
	}
}

func TestGenerate_Text(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1", "object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " Paris. "}, "finish_reason": "stop"}]
		}`))
	}))
	t.Cleanup(srv.Close)

	g := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
		Logger:  zap.NewNop(),
	})

	out := g.Generate(context.Background(), "Capital of France?", nil)
	if out != "Paris." {
		t.Errorf("unexpected output %q", out)
	}
}

func TestGenerate_FailureIsInBandMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	g := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
		Logger:  zap.NewNop(),
	})

	out := g.Generate(context.Background(), "question", nil)
	if !strings.HasPrefix(out, "[Model error:") {
		t.Fatalf("expected in-band error marker, got %q", out)
	}
}
