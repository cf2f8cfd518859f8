package rag

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strconv"

	"github.com/rs/zerolog/log"

	"docqa/internal/index"
	"docqa/internal/models"
	"docqa/internal/parser"
)

// CacheKey is a content address for an index: equal keys mean equal
// normalized text, equal chunking and the same embedding function.
func CacheKey(doc models.DocumentText, opts parser.ChunkOptions, embedderID string) string {
	h := sha256.New()
	writeField(h, embedderID)
	writeField(h, strconv.Itoa(opts.ChunkSize))
	writeField(h, strconv.Itoa(opts.Overlap))
	writeField(h, strconv.Itoa(len(opts.Separators)))
	for _, sep := range opts.Separators {
		writeField(h, sep)
	}
	writeField(h, strconv.FormatBool(doc.PageStructured))
	writeField(h, strconv.Itoa(len(doc.Pages)))
	for _, page := range doc.Pages {
		writeField(h, page)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// length prefixes keep ("ab","c") and ("a","bc") apart
func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

type retrievalKey struct {
	query string
	topK  int
}

// IndexCache memoizes the one index a session may hold and the retrievals
// made against it. Storing a new index closes the old one.
type IndexCache struct {
	key        string
	idx        *index.Index
	retrievals map[retrievalKey][]models.Chunk
}

// Get returns the cached index when key matches.
func (c *IndexCache) Get(key string) (*index.Index, bool) {
	if c.idx == nil || c.key != key {
		return nil, false
	}
	return c.idx, true
}

func (c *IndexCache) Current() (*index.Index, string) {
	return c.idx, c.key
}

// Replace installs idx under key, closing whatever was cached before.
func (c *IndexCache) Replace(key string, idx *index.Index) {
	c.Invalidate()
	c.key = key
	c.idx = idx
	c.retrievals = map[retrievalKey][]models.Chunk{}
}

// Invalidate drops and closes the cached index.
func (c *IndexCache) Invalidate() {
	if c.idx != nil {
		if err := c.idx.Close(); err != nil {
			log.Warn().Err(err).Str("key", c.key).Msg("Failed to close replaced index")
		}
	}
	c.key = ""
	c.idx = nil
	c.retrievals = nil
}

func (c *IndexCache) Retrieval(query string, topK int) ([]models.Chunk, bool) {
	chunks, ok := c.retrievals[retrievalKey{query: query, topK: topK}]
	return chunks, ok
}

func (c *IndexCache) StoreRetrieval(key, query string, topK int, chunks []models.Chunk) {
	// a late result for an index that has since been replaced is discarded
	if c.retrievals == nil || c.key != key {
		return
	}
	c.retrievals[retrievalKey{query: query, topK: topK}] = chunks
}
