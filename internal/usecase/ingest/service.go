// Package ingest implements the document ingestion pipeline:
// loader -> chunker -> embedder -> vector index.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/metrics"
)

// Service runs document ingestion against the shared index.
type Service struct {
	loader    Loader
	chunker   Chunker
	embed     Embedder
	index     Index
	supported func(path string) bool
	logger    *zap.Logger
}

// New creates an ingestion service. supported reports whether a path's
// extension is on the ingestion allow-list (used by IngestDir to skip
// unrelated files without surfacing errors).
func New(loader Loader, chunker Chunker, embed Embedder, index Index, supported func(string) bool, logger *zap.Logger) *Service {
	return &Service{
		loader:    loader,
		chunker:   chunker,
		embed:     embed,
		index:     index,
		supported: supported,
		logger:    logger,
	}
}

// AddDocument loads, chunks, embeds, and indexes one file, returning the
// number of chunks actually stored. Structural failures (unsupported format,
// unreadable file) propagate to the caller before any chunk is written. A
// per-chunk embedding failure skips only that chunk: previously stored
// entries are never touched.
func (s *Service) AddDocument(ctx context.Context, path string) (int, error) {
	segments, err := s.loader.Load(path)
	if err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}

	chunks := s.chunker.Split(segments)

	added := 0
	for _, chunk := range chunks {
		vecs, err := s.embed.Embed(ctx, []string{chunk.Text()})
		if err != nil {
			metrics.ChunksSkippedTotal.Inc()
			s.logger.Warn("skipping chunk after embedding failure",
				zap.String("source", chunk.SourceName()),
				zap.Int("chunk_index", chunk.Index()),
				zap.Error(err),
			)
			continue
		}
		if err := s.index.Add(ctx, chunk, vecs[0]); err != nil {
			metrics.ChunksSkippedTotal.Inc()
			s.logger.Warn("skipping chunk after index failure",
				zap.String("source", chunk.SourceName()),
				zap.Int("chunk_index", chunk.Index()),
				zap.Error(err),
			)
			continue
		}
		metrics.ChunksIndexedTotal.Inc()
		added++
	}

	s.logger.Info("document ingested",
		zap.String("path", path),
		zap.Int("chunks", added),
		zap.Int("skipped", len(chunks)-added),
	)
	return added, nil
}

// DirReport summarizes a bulk folder ingestion.
type DirReport struct {
	Files  int
	Chunks int
	Failed int
}

// IngestDir walks a folder recursively and ingests every supported file,
// continuing past individual failures. Used for startup auto-loading.
func (s *Service) IngestDir(ctx context.Context, dir string) (DirReport, error) {
	var report DirReport

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !s.supported(path) {
			return nil
		}

		count, err := s.AddDocument(ctx, path)
		if err != nil {
			report.Failed++
			s.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}
		report.Files++
		report.Chunks += count
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk %s: %w", dir, err)
	}
	return report, nil
}

// Clear irreversibly discards every indexed entry. Idempotent.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	s.logger.Info("index cleared")
	return nil
}
