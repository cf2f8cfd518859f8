package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/genai"

	"docqa/internal/config"
	"docqa/internal/llmservice"
	"docqa/internal/models"
)

// Gemini's batch embedding endpoint caps requests at 100 texts.
const geminiMaxBatch = 100

// GeminiEmbedder embeds through the Gemini embedContent API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	batchSize int
}

func newGeminiEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embeddings.Embedder, error) {
	if err := config.ValidateAPIKey("gemini", cfg.Key); err != nil {
		return nil, err
	}
	client, err := llmservice.NewGeminiClient(ctx, cfg.Key)
	if err != nil {
		return nil, err
	}
	return NewGeminiEmbedder(client, cfg.Model, cfg.BatchSize), nil
}

func NewGeminiEmbedder(client *genai.Client, model string, batchSize int) *GeminiEmbedder {
	if batchSize <= 0 || batchSize > geminiMaxBatch {
		batchSize = geminiMaxBatch
	}
	return &GeminiEmbedder{client: client, model: model, batchSize: batchSize}
}

func (g *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		batch := texts[start:min(start+g.batchSize, len(texts))]
		contents := make([]*genai.Content, len(batch))
		for i, text := range batch {
			contents[i] = genai.Text(text)[0]
		}

		resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
		if err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d texts", models.ErrUnavailable, len(resp.Embeddings), len(batch))
		}
		for _, e := range resp.Embeddings {
			vectors = append(vectors, e.Values)
		}
	}
	return vectors, nil
}

func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
