package query

import (
	"fmt"
	"strings"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

// noContextMarker stands in for retrieved text when retrieval came back
// empty or failed, so the generator is told explicitly that it has nothing
// to lean on.
const noContextMarker = "No relevant documents were found."

// buildPrompt assembles the grounded question prompt: retrieved context
// first, then the instruction to answer only from it, then the question.
func buildPrompt(retrieved []domain.ScoredChunk, question string) string {
	contextText := noContextMarker
	if len(retrieved) > 0 {
		texts := make([]string, len(retrieved))
		for i, r := range retrieved {
			texts[i] = r.Chunk.Text()
		}
		contextText = strings.Join(texts, "\n\n")
	}

	return fmt.Sprintf(`Use only the following context to answer the question. If the context does not contain the answer, say "I don't know".

Context:
%s

Question: %s
Answer clearly:`, contextText, question)
}

// composeVisionAnswer joins the image-grounded and document-grounded answers
// into clearly labeled sections.
func composeVisionAnswer(imageAnswer, textAnswer string) string {
	return fmt.Sprintf("Image analysis:\n%s\n\nDocument context:\n%s", imageAnswer, textAnswer)
}
