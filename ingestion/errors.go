package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyDocument is returned when a document has no content to embed.
	ErrEmptyDocument = errors.New("document has no content")

	// ErrInvalidMaxAttempts is returned when the retry attempt limit is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
)
