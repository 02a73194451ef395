// Package chunker splits raw document segments into overlapping fixed-size
// chunks. Splitting is deterministic and never crosses a segment boundary, so
// a chunk never mixes text from two pages or files.
package chunker

import (
	"github.com/emmystark/Rag-chatbot/internal/domain"
)

const (
	// DefaultSize is the maximum chunk length in characters.
	DefaultSize = 1000
	// DefaultOverlap is the character overlap between consecutive chunks.
	DefaultOverlap = 200
)

// Splitter cuts segments into chunks of at most Size characters with Overlap
// characters shared between consecutive chunks of the same segment.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. Non-positive size or overlap, or overlap >= size,
// fall back to the defaults (1000/200).
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split cuts every segment into chunks, preserving the segment's source
// metadata on each chunk. Whitespace-only chunks are dropped. Chunk indexes
// are assigned sequentially across the whole call, so they are unique within
// one file's ingestion.
func (s *Splitter) Split(segments []domain.Segment) []domain.Chunk {
	var chunks []domain.Chunk
	idx := 0

	for _, seg := range segments {
		for _, text := range s.splitText(seg.Text) {
			chunk, err := domain.NewChunk(text, seg.SourceName, seg.SourcePath, seg.Page, idx)
			if err != nil {
				continue
			}
			chunks = append(chunks, chunk)
			idx++
		}
	}
	return chunks
}

// splitText windows over the text, preferring to break at a paragraph,
// newline, or space boundary in the second half of each window.
func (s *Splitter) splitText(text string) []string {
	runes := []rune(text)
	var pieces []string

	start := 0
	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakPoint(runes, start, end)
		}

		pieces = append(pieces, trimmed(runes[start:end]))

		if end == len(runes) {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = start + 1 // always make progress
		}
		start = next
	}
	return pieces
}

// breakPoint finds the best cut position in (start, end]. It scans backwards
// from end for a paragraph break, then a newline, then a space, but never
// past the window midpoint so chunks stay reasonably full.
func breakPoint(runes []rune, start, end int) int {
	floor := start + (end-start)/2

	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return end
}

func trimmed(runes []rune) string {
	lo, hi := 0, len(runes)
	for lo < hi && isSpace(runes[lo]) {
		lo++
	}
	for hi > lo && isSpace(runes[hi-1]) {
		hi--
	}
	return string(runes[lo:hi])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
