package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
)

// GeminiEmbedder produces embeddings through the Gemini batch embedding API.
type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	dims      int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dims int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return &GeminiEmbedder{client: cl, modelName: modelName, dims: dims}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// ModelID returns the embedding model name; indices record it so mixed-model
// merges can be rejected.
func (g *GeminiEmbedder) ModelID() string { return g.modelName }

// Dims returns the vector dimension this embedder produces.
func (g *GeminiEmbedder) Dims() int { return g.dims }

// EmbedTexts embeds all texts in one request via EmbeddingBatch.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.client.EmbeddingModel(g.modelName)

	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed: %w", err)
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
