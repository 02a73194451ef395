package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat signals a file extension outside the ingestion allow-list.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrLoadFailure signals an unreadable or corrupt source file.
	ErrLoadFailure = errors.New("document load failure")
	// ErrMalformedEmbedding signals an embedding backend response that violated
	// the one-flat-vector-per-input contract.
	ErrMalformedEmbedding = errors.New("malformed embedding response")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexClosed signals an operation against a closed index.
	ErrIndexClosed = errors.New("index closed")
)

// LoadError wraps ErrLoadFailure with the offending path and the underlying cause.
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrLoadFailure.Error(), e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error { return ErrLoadFailure }

// NewLoadError creates a load error for a path.
func NewLoadError(path string, cause error) error {
	return &LoadError{Path: path, Cause: cause}
}
