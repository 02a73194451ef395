package query

import (
	"context"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

// Embedder vectorizes texts, one flat vector per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever finds the chunks nearest to a query embedding.
type Retriever interface {
	Search(ctx context.Context, vec []float32, k int) ([]domain.ScoredChunk, error)
}

// Generator produces free text for a prompt, conditioned on an optional
// image. It never fails outward: backend errors come back as an in-band
// marker string.
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte) string
}
