package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

func TestVectorDBManagerQueryReturnsAll(t *testing.T) {
	m, err := NewVectorDBManager()
	require.NoError(t, err)
	defer m.Close()

	chunks := []models.Chunk{
		models.NewChunk("north", 1, 0),
		models.NewChunk("east", 1, 1),
		models.NewChunk("south", 2, 0),
	}
	vectors := [][]float32{{1, 0}, {0, 1}, {-1, 0}}
	require.NoError(t, m.Add(context.Background(), chunks, vectors))

	matches, err := m.Query(context.Background(), []float32{1, 0.1}, 1)
	require.NoError(t, err)

	require.Len(t, matches, 3)
	byPos := map[int]float32{}
	for _, mt := range matches {
		byPos[mt.Position] = mt.Score
	}
	assert.Greater(t, byPos[0], byPos[1])
	assert.Greater(t, byPos[1], byPos[2])
}

func TestVectorDBManagerRejectsMismatch(t *testing.T) {
	m, err := NewVectorDBManager()
	require.NoError(t, err)

	err = m.Add(context.Background(), []models.Chunk{models.NewChunk("a", 1, 0)}, nil)
	assert.Error(t, err)
}

func TestVectorDBManagerEmpty(t *testing.T) {
	m, err := NewVectorDBManager()
	require.NoError(t, err)

	matches, err := m.Query(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NoError(t, m.Close())
}
