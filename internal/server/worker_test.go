package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/llmservice"
	"docqa/internal/models"
)

// The worker endpoint must be drivable by llmservice.Remote.
func newWorker(t *testing.T, gen llmservice.Generator) *llmservice.Remote {
	t.Helper()
	srv := httptest.NewServer(NewRouter(nil, NewWorkerController(gen)))
	t.Cleanup(srv.Close)
	return llmservice.NewRemote(srv.URL, srv.Client())
}

func TestWorkerNonStreaming(t *testing.T) {
	remote := newWorker(t, &fakeGenerator{reply: "hello there"})
	text, err := remote.Generate(context.Background(), "prompt", llmservice.Params{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestWorkerStreaming(t *testing.T) {
	remote := newWorker(t, &fakeGenerator{reply: "one two three"})
	sink := &llmservice.BufferSink{}
	text, err := remote.Generate(context.Background(), "prompt", llmservice.Params{Streaming: true}, sink)
	require.NoError(t, err)
	assert.Equal(t, "one two three", text)
	assert.Equal(t, []string{"one ", "two ", "three"}, sink.Tokens)
	assert.Equal(t, 1, sink.Closed)
	assert.NoError(t, sink.Err)
}

func TestWorkerPropagatesErrorClass(t *testing.T) {
	remote := newWorker(t, &fakeGenerator{err: models.ErrAuthentication})

	_, err := remote.Generate(context.Background(), "prompt", llmservice.Params{}, nil)
	assert.ErrorIs(t, err, models.ErrAuthentication)

	sink := &llmservice.BufferSink{}
	_, err = remote.Generate(context.Background(), "prompt", llmservice.Params{Streaming: true}, sink)
	assert.ErrorIs(t, err, models.ErrAuthentication)
	assert.ErrorIs(t, sink.Err, models.ErrAuthentication)
}

func TestWorkerRejectsBadBody(t *testing.T) {
	router := NewRouter(nil, NewWorkerController(&fakeGenerator{}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, llmservice.WorkerPath, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
