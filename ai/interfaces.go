package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// Embedding is a pure function of the input text and the configured
// model: identical text always yields an identical vector, and the
// embedding of item i in a batch equals the embedding of item i alone.
// Empty or whitespace-only text is rejected with ErrEmptyText rather
// than silently embedded as a zero vector.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings
	// in a batch. The returned slice contains embeddings in the same
	// order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ContextRecord is one retrieved record handed to the synthesizer as
// grounding context.
type ContextRecord struct {
	// ID is the record's source identifier, used for citations.
	ID string

	// Text is the record's full text.
	Text string
}

// Synthesizer produces a natural-language answer from a query and
// retrieved context records. Implementations must be thread-safe.
//
// The engine surfaces synthesis failures to the caller and never
// retries them.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, contextRecords []ContextRecord) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Synthesizer instances, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Synthesizer returns the answer synthesis service.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	Close() error
}
