package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCollectionNotFound indicates the exemplar collection has not been
	// created. Run ingestion first; this is not retried.
	ErrCollectionNotFound = errors.New("exemplar collection not found")

	// ErrUnknownSection indicates a section key outside the fixed report sections
	// where only fixed sections are accepted, such as ingested records.
	ErrUnknownSection = errors.New("unknown section")

	// ErrEmptyGeneration indicates the text generation service returned no text.
	ErrEmptyGeneration = errors.New("generation returned empty text")

	// ErrLLMUnavailable indicates the text generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates a query vector does not match the stored vectors.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnsupportedFormat indicates an ingestion source that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
