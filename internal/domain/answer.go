package domain

// AnswerKind discriminates how an answer was produced.
type AnswerKind string

const (
	// AnswerText is a pure document-grounded answer.
	AnswerText AnswerKind = "text"
	// AnswerVisionText combines an image-grounded answer with a
	// document-grounded one.
	AnswerVisionText AnswerKind = "vision_text"
)

// SourceRef attributes part of an answer back to an indexed chunk.
type SourceRef struct {
	Excerpt    string `json:"text"`
	SourceName string `json:"source"`
	PageNumber int    `json:"page"` // 1-based
}

// Answer is the engine's reply to a question. Always well-formed: failures
// along the query pipeline lower Confidence or surface as in-band markers in
// Text, never as a missing answer.
type Answer struct {
	Text       string      `json:"answer"`
	Sources    []SourceRef `json:"sources"`
	Confidence float64     `json:"confidence"`
	Kind       AnswerKind  `json:"kind"`
}

// SourceRefFromChunk builds the attribution record for a retrieved chunk.
func SourceRefFromChunk(c Chunk) SourceRef {
	return SourceRef{
		Excerpt:    c.Text(),
		SourceName: c.SourceName(),
		PageNumber: c.PageNumber(),
	}
}
