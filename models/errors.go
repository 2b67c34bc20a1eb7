package models

import "fmt"

// Pipeline error taxonomy. Every public operation maps one of these to
// a structured response; nothing else crosses the HTTP boundary.

// ConfigurationError is a missing or malformed connection string,
// credential or name, detected before any remote call. Never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// UnsupportedFormatError marks a file extension outside the supported
// set. Fails that file only.
type UnsupportedFormatError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q for %s", e.Extension, e.Filename)
}

// ExtractionFailure records an extractor failing on a supported format.
// It is recovered locally with a placeholder unit; callers see it only
// as a degraded flag on the file's stats.
type ExtractionFailure struct {
	Filename string
	Cause    error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Filename, e.Cause)
}

func (e *ExtractionFailure) Unwrap() error { return e.Cause }

// EmbeddingProviderError is a failed embedding call. Fatal for the
// current file or question; embeddings are never guessed.
type EmbeddingProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *EmbeddingProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("embedding provider %s failed (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("embedding provider %s failed: %s", e.Provider, e.Message)
}

// DimensionMismatchError means the collection's stored vector length
// disagrees with the active provider's output length. The caller must
// reconfigure the provider or reset the collection.
type DimensionMismatchError struct {
	Collection string
	Stored     int
	Provider   string
	Configured int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("collection %s stores %d-dimensional vectors but provider %s produces %d dimensions; reconfigure or reset the index",
		e.Collection, e.Stored, e.Provider, e.Configured)
}

// IndexPermissionError is surfaced distinctly from generic store errors
// so the caller can remediate privileges; ingestion may still proceed if
// an index exists out-of-band.
type IndexPermissionError struct {
	Index string
	Cause error
}

func (e *IndexPermissionError) Error() string {
	return fmt.Sprintf("insufficient privilege to create index %s: %v", e.Index, e.Cause)
}

func (e *IndexPermissionError) Unwrap() error { return e.Cause }

// CompletionProviderError is a failed completion call. No fallback
// answer is fabricated and it is not retried automatically.
type CompletionProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *CompletionProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("completion provider %s failed (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("completion provider %s failed: %s", e.Provider, e.Message)
}
