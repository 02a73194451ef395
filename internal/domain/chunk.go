package domain

import (
	"fmt"
	"strings"
)

// NoPage marks a segment or chunk that carries no page information
// (plain-text formats).
const NoPage = -1

// Segment is one logical unit of a loaded document: a page for paginated
// formats, the whole file otherwise. Page is zero-based as reported by the
// loader; NoPage when the format is not paginated.
type Segment struct {
	Text       string
	SourceName string
	SourcePath string
	Page       int
}

// Chunk is a bounded slice of a source document's text, the atomic unit of
// indexing and retrieval (immutable value object).
type Chunk struct {
	text       string
	sourceName string
	sourcePath string
	page       int
	index      int
}

// NewChunk validates and creates a Chunk. Text must be non-empty after
// trimming; page is zero-based or NoPage.
func NewChunk(text, sourceName, sourcePath string, page, index int) (Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return Chunk{}, fmt.Errorf("chunk text is empty")
	}
	if page < NoPage {
		return Chunk{}, fmt.Errorf("invalid page %d", page)
	}
	if index < 0 {
		return Chunk{}, fmt.Errorf("invalid chunk index %d", index)
	}
	return Chunk{text: text, sourceName: sourceName, sourcePath: sourcePath, page: page, index: index}, nil
}

// ReconstructChunk creates a Chunk without validation (storage hydration).
func ReconstructChunk(text, sourceName, sourcePath string, page, index int) Chunk {
	return Chunk{text: text, sourceName: sourceName, sourcePath: sourcePath, page: page, index: index}
}

// Text returns the chunk text.
func (c *Chunk) Text() string { return c.text }

// SourceName returns the base name of the originating file.
func (c *Chunk) SourceName() string { return c.sourceName }

// SourcePath returns the path the chunk was ingested from.
func (c *Chunk) SourcePath() string { return c.sourcePath }

// Page returns the zero-based page the chunk was cut from, or NoPage.
func (c *Chunk) Page() int { return c.page }

// Index returns the chunk position within its source file's ingestion.
func (c *Chunk) Index() int { return c.index }

// PageNumber returns the one-based page for attribution. Loaders report
// zero-based pages; non-paginated sources attribute to page 1.
func (c *Chunk) PageNumber() int {
	if c.page == NoPage {
		return 1
	}
	return c.page + 1
}

// ScoredChunk is a retrieval result: a chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}
