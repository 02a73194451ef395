// Package loader reads source documents into raw text segments with
// positional metadata. One segment per page for paginated formats, one per
// file otherwise.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

// supported maps allowed file extensions to their loaders.
var supported = map[string]func(path string) ([]domain.Segment, error){
	".pdf":  loadPDF,
	".txt":  loadText,
	".md":   loadText,
	".docx": loadDocx,
}

// Loader loads documents from the local filesystem.
type Loader struct{}

// New creates a filesystem loader.
func New() *Loader { return &Loader{} }

// Supported reports whether the file extension is on the ingestion allow-list.
func Supported(path string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads a file into one or more text segments. Unknown extensions fail
// with domain.ErrUnsupportedFormat before touching the file; unreadable or
// corrupt files fail with a domain.LoadError and never partially load.
func (l *Loader) Load(path string) ([]domain.Segment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loadFn, ok := supported[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, domain.NewLoadError(path, err)
	}

	segments, err := loadFn(path)
	if err != nil {
		return nil, domain.NewLoadError(path, err)
	}
	return segments, nil
}

// loadText reads a plain-text or markdown file as a single segment.
func loadText(path string) ([]domain.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("not valid UTF-8")
	}
	return []domain.Segment{{
		Text:       string(data),
		SourceName: filepath.Base(path),
		SourcePath: path,
		Page:       domain.NoPage,
	}}, nil
}
