// Package index provides the durable vector index: an append-only store of
// (chunk, embedding) pairs in a single SQLite file, with brute-force cosine
// retrieval. State survives process restart against the same storage path.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	text        TEXT    NOT NULL,
	source_name TEXT    NOT NULL,
	source_path TEXT    NOT NULL,
	page        INTEGER NOT NULL,
	chunk_index INTEGER NOT NULL,
	embedding   BLOB    NOT NULL
);
`

// SQLite is a persistent vector index backed by a single database file.
// Search and Count take a shared lock; Add and Reset take the writer lock, so
// a reset never runs concurrently with an in-flight add or query.
type SQLite struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open opens (or creates) the index at the given path and ensures the schema.
func Open(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Add appends one (chunk, embedding) pair. Each insert commits independently,
// so a failure never touches previously stored entries.
func (s *SQLite) Add(ctx context.Context, chunk domain.Chunk, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding for chunk %d of %s", chunk.Index(), chunk.SourceName())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrIndexClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (text, source_name, source_path, page, chunk_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?)`,
		chunk.Text(), chunk.SourceName(), chunk.SourcePath(), chunk.Page(), chunk.Index(),
		encodeVector(vec),
	)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// Search returns up to k chunks ranked by cosine similarity to the query
// vector, closest first. Ties break by insertion order. An empty index (or a
// dimension mismatch on every row) yields an empty result, not an error.
func (s *SQLite) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrIndexClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT text, source_name, source_path, page, chunk_index, embedding
		FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		var (
			text, sourceName, sourcePath string
			page, chunkIndex             int
			blob                         []byte
		)
		if err := rows.Scan(&text, &sourceName, &sourcePath, &page, &chunkIndex, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		if len(vec) != len(query) {
			continue
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk: domain.ReconstructChunk(text, sourceName, sourcePath, page, chunkIndex),
			Score: cosineSimilarity(query, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Reset discards all entries. Idempotent: resetting an empty index succeeds.
func (s *SQLite) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrIndexClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, domain.ErrIndexClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrIndexClosed
	}
	return s.db.PingContext(ctx)
}

// Close releases the database handle. Subsequent operations return
// ErrIndexClosed. Idempotent.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// cosineSimilarity computes the cosine of the angle between two vectors of
// equal length. Zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
