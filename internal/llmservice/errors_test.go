package llmservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"docqa/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"openai 401", errors.New("API returned unexpected status code: 401: Incorrect API key provided"), models.ErrAuthentication},
		{"openai 429", errors.New("API returned unexpected status code: 429: Rate limit reached"), models.ErrUnavailable},
		{"openai 400", errors.New("API returned unexpected status code: 400: maximum context length"), models.ErrInvalidInput},
		{"server 503", errors.New("status code: 503"), models.ErrUnavailable},
		{"gemini auth", genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key.", Status: "INVALID_ARGUMENT"}, models.ErrAuthentication},
		{"gemini forbidden", &genai.APIError{Code: 403, Message: "denied"}, models.ErrAuthentication},
		{"gemini bad request", genai.APIError{Code: 400, Message: "content too long"}, models.ErrInvalidInput},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, models.ErrUnavailable},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), models.ErrUnavailable},
		{"key wording", errors.New("invalid api key"), models.ErrAuthentication},
		{"unknown", errors.New("something odd"), models.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}
}

func TestClassifyPassThrough(t *testing.T) {
	assert.NoError(t, Classify(nil))

	canceled := fmt.Errorf("request: %w", context.Canceled)
	assert.Same(t, canceled, Classify(canceled))

	already := fmt.Errorf("%w: boom", models.ErrAuthentication)
	assert.Same(t, already, Classify(already))
}
