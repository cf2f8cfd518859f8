package rag

import (
	"context"

	"github.com/uptrace/bun"

	"docqa/internal/chromemdb"
	"docqa/internal/db"
	"docqa/internal/index"
)

// MemoryStores keeps every index in its own in-memory chromem database.
func MemoryStores() StoreFactory {
	return func(context.Context, string) (index.Store, error) {
		m, err := chromemdb.NewVectorDBManager()
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// PGVectorStores keeps every index in its own pgvector table.
func PGVectorStores(bunDB *bun.DB) StoreFactory {
	return func(_ context.Context, name string) (index.Store, error) {
		return db.NewChunkStore(bunDB, name), nil
	}
}
