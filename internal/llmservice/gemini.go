package llmservice

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"docqa/internal/config"
)

// GeminiGenerator calls the Gemini API directly through genai.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func newGeminiGenerator(ctx context.Context, cfg *config.LLMConfig) (Generator, error) {
	if err := config.ValidateAPIKey("gemini", cfg.Key); err != nil {
		return nil, err
	}
	client, err := NewGeminiClient(ctx, cfg.Key)
	if err != nil {
		return nil, err
	}
	return NewGeminiGenerator(client, cfg.Model), nil
}

// NewGeminiClient opens a Gemini API client for key.
func NewGeminiClient(ctx context.Context, key string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, Classify(err)
	}
	return client, nil
}

func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, params Params, sink TokenSink) (text string, err error) {
	sink = Once(sink)
	if sink != nil {
		defer func() { sink.Close(err) }()
	}

	model := g.model
	if params.Model != "" {
		model = params.Model
	}
	temperature := float32(params.Temperature)
	genCfg := &genai.GenerateContentConfig{Temperature: &temperature}

	if !params.Streaming || sink == nil {
		resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
		if err != nil {
			return "", Classify(err)
		}
		return candidateText(resp), nil
	}

	var b strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, model, genai.Text(prompt), genCfg) {
		if err != nil {
			return b.String(), Classify(err)
		}
		token := candidateText(resp)
		if token == "" {
			continue
		}
		b.WriteString(token)
		if err := sink.WriteToken(ctx, token); err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
