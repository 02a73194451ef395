package ingest

import (
	"context"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

// Loader reads a source file into raw text segments.
type Loader interface {
	Load(path string) ([]domain.Segment, error)
}

// Chunker splits segments into indexable chunks.
type Chunker interface {
	Split(segments []domain.Segment) []domain.Chunk
}

// Embedder vectorizes texts, one flat vector per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the durable chunk store.
type Index interface {
	Add(ctx context.Context, chunk domain.Chunk, vec []float32) error
	Reset(ctx context.Context) error
}
