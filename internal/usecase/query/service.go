// Package query implements the retrieval-augmented answer pipeline: embed
// the question, retrieve the nearest chunks, build a grounded prompt, call
// the generator, and attribute sources. Queries never fail outward — every
// failure degrades to a lower-confidence answer.
package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

// Confidence constants. Retrieval non-emptiness maps monotonically onto
// confidence; vision answers sit above text answers because two independent
// signals were combined. Tunables, not learned values.
const (
	ConfidenceWithSources = 0.9
	ConfidenceNoSources   = 0.1
	ConfidenceVision      = 0.95
)

// fallbackAnswer replaces an empty generator output.
const fallbackAnswer = "I don't know."

// Service answers questions against the shared index.
type Service struct {
	embed  Embedder
	index  Retriever
	gen    Generator
	topK   int
	logger *zap.Logger
}

// New creates a query service. topK bounds retrieval breadth (default 5).
func New(embed Embedder, index Retriever, gen Generator, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{embed: embed, index: index, gen: gen, topK: topK, logger: logger}
}

// QueryText answers a question from the indexed documents. Embedding or
// retrieval failure degrades to an empty retrieval — the pipeline continues
// with an explicit no-context marker instead of aborting.
func (s *Service) QueryText(ctx context.Context, question string) domain.Answer {
	retrieved := s.retrieve(ctx, question)

	prompt := buildPrompt(retrieved, question)

	answer := s.gen.Generate(ctx, prompt, nil)
	if answer == "" {
		answer = fallbackAnswer
	}

	sources := make([]domain.SourceRef, 0, len(retrieved))
	for _, r := range retrieved {
		sources = append(sources, domain.SourceRefFromChunk(r.Chunk))
	}

	confidence := ConfidenceNoSources
	if len(sources) > 0 {
		confidence = ConfidenceWithSources
	}

	return domain.Answer{
		Text:       answer,
		Sources:    sources,
		Confidence: confidence,
		Kind:       domain.AnswerText,
	}
}

// QueryVision answers a question about an image. The image branch runs the
// generator on the raw question with the image (no retrieval); the text
// branch runs the full document pipeline on the same question. The two
// answers are composed as labeled sections; sources come from the text
// branch only, and confidence is a fixed constant. Joint conditioning of the
// image and the retrieved text in one call is a possible extension, not what
// this does.
func (s *Service) QueryVision(ctx context.Context, question string, image []byte) domain.Answer {
	imageAnswer := s.gen.Generate(ctx, question, image)
	if imageAnswer == "" {
		imageAnswer = fallbackAnswer
	}

	textAnswer := s.QueryText(ctx, question)

	return domain.Answer{
		Text:       composeVisionAnswer(imageAnswer, textAnswer.Text),
		Sources:    textAnswer.Sources,
		Confidence: ConfidenceVision,
		Kind:       domain.AnswerVisionText,
	}
}

// retrieve embeds the question and searches the index, degrading to no
// results on any failure.
func (s *Service) retrieve(ctx context.Context, question string) []domain.ScoredChunk {
	vecs, err := s.embed.Embed(ctx, []string{question})
	if err != nil {
		s.logger.Warn("query embedding failed, continuing without context", zap.Error(err))
		return nil
	}

	retrieved, err := s.index.Search(ctx, vecs[0], s.topK)
	if err != nil {
		s.logger.Warn("retrieval failed, continuing without context", zap.Error(err))
		return nil
	}
	return retrieved
}
