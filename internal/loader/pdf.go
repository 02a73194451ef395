package loader

import (
	"fmt"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

// loadPDF extracts plain text from a PDF, one segment per page with a
// zero-based page index. Pages that yield no text are skipped.
func loadPDF(path string) ([]domain.Segment, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	total := r.NumPage()
	segments := make([]domain.Segment, 0, total)

	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Text:       text,
			SourceName: name,
			SourcePath: path,
			Page:       i - 1,
		})
	}

	return segments, nil
}
