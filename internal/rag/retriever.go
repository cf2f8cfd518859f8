package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docqa/internal/index"
	"docqa/internal/models"
)

// Search embeds query with the index's embedding function and returns the
// topK nearest chunks, most similar first. topK is clamped to [1, idx.Len()].
func Search(ctx context.Context, idx *index.Index, embedder embeddings.Embedder, query string, topK int) ([]models.Chunk, error) {
	if idx == nil {
		return nil, models.ErrNoDocument
	}
	if idx.Len() == 0 {
		return nil, nil
	}

	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := idx.Nearest(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}
	log.Debug().Int("top_k", topK).Int("hits", len(chunks)).Msg("Retrieved chunks")
	return chunks, nil
}
