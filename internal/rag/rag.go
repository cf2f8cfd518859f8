package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docqa/internal/index"
	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/parser"
)

const defaultTopK = 5

var ErrSuperseded = errors.New("superseded by a newer upload")

// StoreFactory opens an empty vector store for one index. name is unique per
// session and document.
type StoreFactory func(ctx context.Context, name string) (index.Store, error)

type Options struct {
	Embedder   embeddings.Embedder
	EmbedderID string
	Generator  llmservice.Generator
	Stores     StoreFactory
	Chunking   parser.ChunkOptions
	TopK       int
	Params     llmservice.Params
}

// RAG runs the document QA pipeline. It holds no per-user state; all of that
// lives in the Session passed to each call.
type RAG struct {
	embedder   embeddings.Embedder
	embedderID string
	generator  llmservice.Generator
	stores     StoreFactory
	chunking   parser.ChunkOptions
	topK       int
	params     llmservice.Params
}

func NewRAG(opts Options) (*RAG, error) {
	if opts.Embedder == nil || opts.Generator == nil {
		return nil, fmt.Errorf("%w: embedder and generator are required", models.ErrInvalidInput)
	}
	if err := opts.Chunking.Validate(); err != nil {
		return nil, err
	}
	if opts.Stores == nil {
		opts.Stores = MemoryStores()
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	return &RAG{
		embedder:   opts.Embedder,
		embedderID: opts.EmbedderID,
		generator:  opts.Generator,
		stores:     opts.Stores,
		chunking:   opts.Chunking,
		topK:       opts.TopK,
		params:     opts.Params,
	}, nil
}

type UploadResult struct {
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
	CacheHit bool   `json:"cache_hit"`
	Key      string `json:"key"`
}

// Upload normalizes, chunks and indexes doc for sess, replacing whatever the
// session held. Re-uploading identical content with identical settings reuses
// the existing index.
func (r *RAG) Upload(ctx context.Context, sess *Session, doc models.DocumentText) (*UploadResult, error) {
	normalized := parser.NormalizeDocument(doc)
	chunks, err := parser.Chunk(normalized, r.chunking)
	if err != nil {
		return nil, err
	}
	key := CacheKey(normalized, r.chunking, r.embedderID)
	result := &UploadResult{Pages: len(normalized.Pages), Chunks: len(chunks), Key: key}

	sess.mu.Lock()
	if sess.cancel != nil {
		sess.cancel()
	}
	sess.uploadSeq++
	seq := sess.uploadSeq
	if _, ok := sess.cache.Get(key); ok {
		sess.document = &normalized
		sess.chunks = chunks
		sess.mu.Unlock()
		result.CacheHit = true
		log.Debug().Str("session", sess.ID).Str("key", key[:12]).Msg("Index cache hit")
		return result, nil
	}
	sess.cache.Invalidate()
	sess.document = nil
	sess.chunks = nil
	sess.mu.Unlock()

	store, err := r.stores(ctx, sess.ID+"_"+key[:12])
	if err != nil {
		return nil, err
	}
	idx, err := index.Build(ctx, r.embedder, chunks, store)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.uploadSeq != seq {
		if cerr := idx.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to close superseded index")
		}
		return nil, fmt.Errorf("%w: %w", context.Canceled, ErrSuperseded)
	}
	sess.cache.Replace(key, idx)
	sess.document = &normalized
	sess.chunks = chunks

	log.Info().Str("session", sess.ID).Int("pages", result.Pages).Int("chunks", result.Chunks).Msg("Document indexed")
	return result, nil
}

// Ask answers q against the session's current document. When sink is
// non-nil it sees the model's tokens as they arrive (if q.Streaming) and is
// closed exactly once, whatever the outcome. Starting a new Ask cancels any
// Ask still running on the same session.
func (r *RAG) Ask(ctx context.Context, sess *Session, q models.Query, sink llmservice.TokenSink) (resp *models.PromptResponse, err error) {
	sink = llmservice.Once(sink)
	if sink != nil {
		defer func() { sink.Close(err) }()
	}

	ctx, done := sess.beginQuery(ctx)
	defer done()

	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("%w: empty query", models.ErrInvalidInput)
	}
	idx, key, ok := sess.current()
	if !ok {
		return nil, models.ErrNoDocument
	}

	topK := q.TopK
	if topK <= 0 {
		topK = r.topK
	}
	chunks, err := r.retrieve(ctx, sess, idx, key, q.Text, topK)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(q.Text, chunks)
	params := r.params
	if q.Temperature != nil {
		params.Temperature = *q.Temperature
	}
	params.Streaming = q.Streaming

	raw, err := r.generator.Generate(ctx, prompt.Text, params, sink)
	if err != nil {
		return nil, err
	}

	return &models.PromptResponse{
		Query:   q.Text,
		Answer:  ParseResponse(raw, chunks, !q.SourcesOnly),
		Context: chunks,
		Raw:     raw,
	}, nil
}

func (r *RAG) retrieve(ctx context.Context, sess *Session, idx *index.Index, key, query string, topK int) ([]models.Chunk, error) {
	sess.mu.Lock()
	cached, ok := sess.cache.Retrieval(query, topK)
	sess.mu.Unlock()
	if ok {
		return cached, nil
	}

	chunks, err := Search(ctx, idx, r.embedder, query, topK)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.cache.StoreRetrieval(key, query, topK, chunks)
	sess.mu.Unlock()
	return chunks, nil
}
