package core

import "context"

// EmbeddingProvider turns texts into fixed-length vectors via an external model.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
	Dims() int
}

// LLMProvider generates an answer from a system prompt and a user prompt.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// TranscriptFetcher resolves a source reference to its raw transcript text.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, sourceRef string) (string, error)
}
