package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Responder generates a natural-language reply to a client question given
// assembled context. Implementations must be thread-safe for concurrent use.
type Responder interface {
	// GenerateResponse produces a reply for the query using the given
	// context block (conversation history plus retrieved documents).
	// Returns an error if generation fails or yields an empty response.
	GenerateResponse(ctx context.Context, query, contextBlock string) (string, error)
}

// Transcriber converts audio into text.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// TranscribeAudio downloads the audio at the given URL and returns its
	// transcription.
	TranscribeAudio(ctx context.Context, audioURL string) (string, error)
}

// VisionAnalyzer describes image content as text.
// Implementations must be thread-safe for concurrent use.
type VisionAnalyzer interface {
	// AnalyzeImage returns a textual description of the image at the given
	// URL, optionally incorporating the client's caption.
	AnalyzeImage(ctx context.Context, imageURL, caption string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages its service instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Responder returns the response generation service.
	Responder() Responder

	// Transcriber returns the audio transcription service.
	Transcriber() Transcriber

	// VisionAnalyzer returns the image analysis service.
	VisionAnalyzer() VisionAnalyzer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
