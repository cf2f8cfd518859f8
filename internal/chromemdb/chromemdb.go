package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docqa/internal/index"
	"docqa/internal/models"
)

const (
	collectionName = "chunks"
	positionKey    = "position"
)

// VectorDBManager keeps one index in its own in-memory chromem database.
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewVectorDBManager initializes an empty in-memory collection. Vectors are
// always supplied by the caller, so the collection has no embedding func.
func NewVectorDBManager() (*VectorDBManager, error) {
	db := chromem.NewDB()
	c, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}
	return &VectorDBManager{db: db, collection: c}, nil
}

// Add stores one chromem document per chunk, keyed by source id.
func (m *VectorDBManager) Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:      c.SourceID,
			Content: c.Content,
			Metadata: map[string]string{
				positionKey: strconv.Itoa(i),
				"page":      strconv.Itoa(c.PageNumber),
				"chunk":     strconv.Itoa(c.ChunkID),
			},
			Embedding: vectors[i],
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Query scores every document. Returning the full ranking lets the index
// break ties at the cut-off by document order.
func (m *VectorDBManager) Query(ctx context.Context, vector []float32, _ int) ([]index.Match, error) {
	n := m.collection.Count()
	if n == 0 {
		return nil, nil
	}
	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	matches := make([]index.Match, len(results))
	for i, r := range results {
		pos, err := strconv.Atoi(r.Metadata[positionKey])
		if err != nil {
			return nil, fmt.Errorf("document %s has bad position %q", r.ID, r.Metadata[positionKey])
		}
		matches[i] = index.Match{Position: pos, Score: r.Similarity}
	}
	return matches, nil
}

// Close drops the collection.
func (m *VectorDBManager) Close() error {
	if err := m.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	log.Debug().Msg("Dropped in-memory collection")
	return nil
}
