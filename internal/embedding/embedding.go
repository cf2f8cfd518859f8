package embedding

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
	"docqa/internal/llmservice"
	"docqa/internal/models"
)

const embedTimeout = 60 * time.Second

// Factory builds an embedder from configuration.
type Factory func(ctx context.Context, cfg *config.EmbeddingConfig) (embeddings.Embedder, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"openai": newOpenAIEmbedder,
		"ollama": newOllamaEmbedder,
		"gemini": newGeminiEmbedder,
		"hash":   newHashEmbedder,
	}
)

// Register makes an embedding backend selectable by provider name.
func Register(provider string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[provider] = factory
}

// New builds the embedder described by cfg. Every failure it reports is
// classified as authentication, availability or invalid input.
func New(ctx context.Context, cfg *config.EmbeddingConfig) (embeddings.Embedder, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Provider]
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()
	if !ok {
		sort.Strings(names)
		return nil, fmt.Errorf("%w: embedding provider %q (have %s)", models.ErrInvalidInput, cfg.Provider, strings.Join(names, ", "))
	}

	log.Debug().Interface("config", map[string]any{
		"provider":   cfg.Provider,
		"base_url":   cfg.BaseURL,
		"model":      cfg.Model,
		"batch_size": cfg.BatchSize,
	}).Msg("Creating embedder")

	e, err := factory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Classified(e), nil
}

// Identity names the embedding function for cache keys: two configs with the
// same identity produce the same vectors.
func Identity(cfg *config.EmbeddingConfig) string {
	id := cfg.Provider + "/" + cfg.Model
	if cfg.Provider == "hash" {
		id += fmt.Sprintf("/%d", cfg.Dimensions)
	}
	return id
}

func newOpenAIEmbedder(_ context.Context, cfg *config.EmbeddingConfig) (embeddings.Embedder, error) {
	key := strings.TrimPrefix(cfg.Key, "Bearer ")
	if cfg.BaseURL == "" {
		if err := config.ValidateAPIKey("openai", key); err != nil {
			return nil, err
		}
	}
	opts := []openai.Option{
		openai.WithToken(key),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: embedTimeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, llmservice.Classify(err)
	}
	return embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
}

func newOllamaEmbedder(_ context.Context, cfg *config.EmbeddingConfig) (embeddings.Embedder, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, llmservice.Classify(err)
	}
	return embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
}

func newHashEmbedder(_ context.Context, cfg *config.EmbeddingConfig) (embeddings.Embedder, error) {
	return NewHashEmbedder(cfg.Dimensions), nil
}

type classified struct {
	inner embeddings.Embedder
}

// Classified wraps e so its errors carry the taxonomy sentinels.
func Classified(e embeddings.Embedder) embeddings.Embedder {
	if _, ok := e.(classified); ok {
		return e
	}
	return classified{inner: e}
}

func (c classified) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := c.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, llmservice.Classify(err)
	}
	return vectors, nil
}

func (c classified) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, llmservice.Classify(err)
	}
	return vector, nil
}
