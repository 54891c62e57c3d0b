package core

import "errors"

// Error taxonomy shared across the retrieval core. Callers classify with
// errors.Is; lower layers add context with fmt.Errorf("...: %w", ...).
var (
	// ErrTranscriptUnavailable means every fetch strategy failed for a source.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// ErrEmbeddingUnavailable means the embedding provider failed after retries.
	// Any vectors computed within the same call must be discarded.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrDimensionMismatch means a vector or index does not match the
	// established embedding model/dimensions and cannot be compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidConfig means a caller-supplied parameter is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound covers missing documents, sessions and not-yet-built
	// indices. For retrieval it is non-fatal: the document is skipped.
	ErrNotFound = errors.New("not found")

	// ErrRetrievalTimeout means the query deadline elapsed before the full
	// scope was searched. Partial results are never returned.
	ErrRetrievalTimeout = errors.New("retrieval timed out")

	// ErrAnswerGenerationFailed means the generation call failed. It is
	// surfaced as-is; generation is never retried.
	ErrAnswerGenerationFailed = errors.New("answer generation failed")

	// ErrSessionClosed means the session no longer accepts questions.
	ErrSessionClosed = errors.New("session closed")

	// ErrForbidden means the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
)
