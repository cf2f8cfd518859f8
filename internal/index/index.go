package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docqa/internal/models"
)

// Match is a store hit addressed by the chunk's position in the index.
type Match struct {
	Position int
	Score    float32
}

// Store holds the vectors of one index. Query may return matches in any
// order and may return more than k; Index applies the final ordering.
type Store interface {
	Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	Close() error
}

var ErrClosed = errors.New("index closed")

// Index is an immutable set of chunks plus their embeddings. Close may run
// concurrently with Nearest; it waits for in-flight searches to finish.
type Index struct {
	chunks []models.Chunk

	mu    sync.RWMutex
	store Store
}

// Build embeds every chunk and loads the vectors into store. On any failure
// the store is closed and no index is returned.
func Build(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk, store Store) (idx *Index, err error) {
	defer func() {
		if err != nil {
			if cerr := store.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("Failed to release vector store after build error")
			}
		}
	}()

	if len(chunks) == 0 {
		return &Index{store: store}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if err := checkVectors(vectors, len(chunks)); err != nil {
		return nil, err
	}
	if err := store.Add(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	log.Debug().Int("chunks", len(chunks)).Int("dimension", len(vectors[0])).Msg("Built vector index")
	return &Index{chunks: append([]models.Chunk(nil), chunks...), store: store}, nil
}

func checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: embedding service returned %d vectors for %d chunks", models.ErrUnavailable, len(vectors), want)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", models.ErrUnavailable, i, len(v), dim)
		}
		if isZero(v) {
			return fmt.Errorf("%w: zero vector for chunk %d", models.ErrUnavailable, i)
		}
	}
	return nil
}

func (x *Index) Len() int { return len(x.chunks) }

// Chunks returns the indexed chunks in document order.
func (x *Index) Chunks() []models.Chunk {
	return append([]models.Chunk(nil), x.chunks...)
}

// Nearest returns up to k chunks by descending similarity. Equal scores keep
// document order. k is clamped to [1, Len()].
func (x *Index) Nearest(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	n := len(x.chunks)
	if n == 0 {
		return nil, nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.store == nil {
		return nil, ErrClosed
	}
	k = max(1, min(k, n))

	// Similarity to a zero vector is undefined; every chunk ties.
	if isZero(vector) {
		out := make([]models.ScoredChunk, k)
		for i := range out {
			out[i] = models.ScoredChunk{Chunk: x.chunks[i]}
		}
		return out, nil
	}

	matches, err := x.store.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Position < matches[j].Position
	})

	out := make([]models.ScoredChunk, 0, k)
	for _, m := range matches {
		if len(out) == k {
			break
		}
		if m.Position < 0 || m.Position >= n {
			return nil, fmt.Errorf("store returned unknown position %d", m.Position)
		}
		out = append(out, models.ScoredChunk{Chunk: x.chunks[m.Position], Score: m.Score})
	}
	return out, nil
}

// Close releases the backing store.
func (x *Index) Close() error {
	if x == nil {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.store == nil {
		return nil
	}
	err := x.store.Close()
	x.store = nil
	return err
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
