package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/embedding"
	"docqa/internal/index"
	"docqa/internal/models"
)

func TestSearchReturnsMinOfKAndN(t *testing.T) {
	emb := embedding.NewHashEmbedder(64)
	var chunks []models.Chunk
	for i := 0; i < 4; i++ {
		chunks = append(chunks, models.NewChunk(fmt.Sprintf("chunk number %d about rivers", i), 1, i))
	}
	store, err := MemoryStores()(context.Background(), "t")
	require.NoError(t, err)
	idx, err := index.Build(context.Background(), emb, chunks, store)
	require.NoError(t, err)
	defer idx.Close()

	for _, tt := range []struct{ k, want int }{{1, 1}, {3, 3}, {4, 4}, {10, 4}, {0, 1}} {
		got, err := Search(context.Background(), idx, emb, "rivers", tt.k)
		require.NoError(t, err)
		assert.Len(t, got, tt.want, "k=%d", tt.k)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	_, err := Search(context.Background(), nil, embedding.NewHashEmbedder(8), "q", 1)
	assert.ErrorIs(t, err, models.ErrNoDocument)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := buildIndex(t, &closeCounter{})
	got, err := Search(context.Background(), idx, embedding.NewHashEmbedder(8), "q", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}
