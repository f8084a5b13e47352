package domain

import "errors"

var (
	// ErrValidation signals a malformed request (missing fields, unknown mode).
	ErrValidation = errors.New("validation failed")
	// ErrInvalidVector signals an empty or zero-magnitude vector.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrSourceUnavailable signals that the document store could not serve a query.
	ErrSourceUnavailable = errors.New("search source unavailable")
	// ErrEmbeddingUnavailable signals an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrSynthesisUnavailable signals a text generation failure.
	ErrSynthesisUnavailable = errors.New("answer synthesis unavailable")

	// ErrMovieNotFound signals a missing movie.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrIndexExists signals that the movie index is already created.
	ErrIndexExists = errors.New("index already exists")
)
