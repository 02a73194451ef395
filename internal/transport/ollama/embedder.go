// Package ollama talks to an Ollama instance over its native HTTP API:
// /api/embed for embeddings and /api/generate for text and vision completion.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/domain"
	"github.com/emmystark/Rag-chatbot/internal/metrics"
)

const providerName = "ollama"

// Embedder is an embedding provider backed by Ollama's native embed endpoint.
type Embedder struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// EmbedderConfig holds the embedding provider settings.
type EmbedderConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewEmbedder creates an Ollama embedding provider.
func NewEmbedder(cfg *EmbedderConfig) *Embedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Embedder{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// Rows stay raw so malformed nesting can be detected before use.
type embedResponse struct {
	Embeddings []json.RawMessage `json:"embeddings"`
}

// Embed returns one flat vector per input text, same order. A response whose
// row count differs from the input count, or whose rows cannot be normalized
// to flat numeric vectors, fails with domain.ErrMalformedEmbedding.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		return nil, fmt.Errorf("embed request failed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed API status %d: %s: %w",
			resp.StatusCode, string(msg), domain.ErrEmbeddingProviderError)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	vectors, err := normalizeVectors(parsed.Embeddings, len(texts))
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
		return nil, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(duration.Seconds())

	return vectors, nil
}

// HealthCheck verifies the Ollama instance answers on /api/tags.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create tags request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("tags request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

// normalizeVectors enforces the provider contract: exactly one flat numeric
// vector per input. A row wrapped one level too deep ([[...]]) with a single
// inner vector is unwrapped; anything else is ambiguous and rejected.
func normalizeVectors(rows []json.RawMessage, want int) ([][]float32, error) {
	if len(rows) != want {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs",
			domain.ErrMalformedEmbedding, len(rows), want)
	}

	vectors := make([][]float32, len(rows))
	for i, row := range rows {
		vec, err := normalizeVector(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func normalizeVector(row json.RawMessage) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(row, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("%w: empty vector", domain.ErrMalformedEmbedding)
		}
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(row, &nested); err == nil {
		if len(nested) == 1 && len(nested[0]) > 0 {
			return nested[0], nil
		}
		return nil, fmt.Errorf("%w: nested row with %d inner vectors",
			domain.ErrMalformedEmbedding, len(nested))
	}

	return nil, fmt.Errorf("%w: row is not a numeric vector", domain.ErrMalformedEmbedding)
}
