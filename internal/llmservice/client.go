package llmservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
	"docqa/internal/models"
)

// Params are the per-call generation settings.
type Params struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
	Streaming   bool    `json:"streaming"`
}

// Generator turns a prompt into a completion. When sink is non-nil it
// receives every token in order if Streaming is set, and exactly one Close
// when the call returns.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params, sink TokenSink) (string, error)
}

// Factory builds a generator from configuration.
type Factory func(ctx context.Context, cfg *config.LLMConfig) (Generator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"openai": newOpenAIGenerator,
		"ollama": newOllamaGenerator,
		"gemini": newGeminiGenerator,
	}
)

// Register makes a generator backend selectable by provider name.
func Register(provider string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[provider] = factory
}

// Providers lists the registered provider names.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the generator described by cfg. Remote dispatch wraps nothing
// locally; the worker at RemoteURL owns the provider.
func New(ctx context.Context, cfg *config.LLMConfig) (Generator, error) {
	if cfg.Dispatch == "remote" {
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("%w: remote dispatch needs llm.remote_url", models.ErrInvalidInput)
		}
		return NewRemote(cfg.RemoteURL, &http.Client{Timeout: cfg.Timeout()}), nil
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm provider %q (have %s)", models.ErrInvalidInput, cfg.Provider, strings.Join(Providers(), ", "))
	}
	log.Debug().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("Creating generator")
	return factory(ctx, cfg)
}

func newOpenAIGenerator(_ context.Context, cfg *config.LLMConfig) (Generator, error) {
	key := strings.TrimPrefix(cfg.Key, "Bearer ")
	if cfg.BaseURL == "" {
		if err := config.ValidateAPIKey("openai", key); err != nil {
			return nil, err
		}
	}
	opts := []openai.Option{
		openai.WithToken(key),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, Classify(err)
	}
	return NewLangchainGenerator(llm), nil
}

func newOllamaGenerator(_ context.Context, cfg *config.LLMConfig) (Generator, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, Classify(err)
	}
	return NewLangchainGenerator(llm), nil
}

// LangchainGenerator adapts any langchaingo model.
type LangchainGenerator struct {
	llm llms.Model
}

func NewLangchainGenerator(llm llms.Model) *LangchainGenerator {
	return &LangchainGenerator{llm: llm}
}

func (g *LangchainGenerator) Generate(ctx context.Context, prompt string, params Params, sink TokenSink) (text string, err error) {
	sink = Once(sink)
	if sink != nil {
		defer func() { sink.Close(err) }()
	}

	opts := []llms.CallOption{llms.WithTemperature(params.Temperature)}
	if params.Model != "" {
		opts = append(opts, llms.WithModel(params.Model))
	}
	if params.Streaming && sink != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return sink.WriteToken(ctx, string(chunk))
		}))
	}

	msgContent := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	res, err := g.llm.GenerateContent(ctx, msgContent, opts...)
	if err != nil {
		return "", Classify(err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", models.ErrUnavailable, errors.New("model returned no choices"))
	}
	return res.Choices[0].Content, nil
}
