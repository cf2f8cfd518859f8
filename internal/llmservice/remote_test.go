package llmservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

func newWorker(t *testing.T, handler func(w http.ResponseWriter, req GenerateRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, WorkerPath, r.URL.Path)
		var req GenerateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteNonStreaming(t *testing.T) {
	var got GenerateRequest
	srv := newWorker(t, func(w http.ResponseWriter, req GenerateRequest) {
		got = req
		_ = json.NewEncoder(w).Encode(GenerateResponse{Text: "remote answer"})
	})

	sink := &BufferSink{}
	text, err := NewRemote(srv.URL, srv.Client()).Generate(context.Background(), "prompt", Params{Temperature: 0.5}, sink)
	require.NoError(t, err)

	assert.Equal(t, "remote answer", text)
	assert.Equal(t, "prompt", got.Prompt)
	assert.False(t, got.Params.Streaming)
	assert.Equal(t, 1, sink.Closed)
}

func TestRemoteStreaming(t *testing.T) {
	srv := newWorker(t, func(w http.ResponseWriter, req GenerateRequest) {
		assert.True(t, req.Params.Streaming)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{"Hello", " world"} {
			fmt.Fprintf(w, "event:token\ndata:{\"token\":%q}\n\n", tok)
		}
		fmt.Fprint(w, "event: done\ndata: {\"text\":\"Hello world\"}\n\n")
	})

	sink := &BufferSink{}
	text, err := NewRemote(srv.URL, srv.Client()).Generate(context.Background(), "p", Params{Streaming: true}, sink)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", text)
	assert.Equal(t, []string{"Hello", " world"}, sink.Tokens)
	assert.Equal(t, 1, sink.Closed)
}

func TestRemoteStreamError(t *testing.T) {
	srv := newWorker(t, func(w http.ResponseWriter, req GenerateRequest) {
		fmt.Fprint(w, "event:token\ndata:{\"token\":\"partial\"}\n\n")
		fmt.Fprint(w, "event:error\ndata:{\"error\":\"bad key\",\"class\":\"authentication\"}\n\n")
	})

	sink := &BufferSink{}
	_, err := NewRemote(srv.URL, srv.Client()).Generate(context.Background(), "p", Params{Streaming: true}, sink)

	assert.ErrorIs(t, err, models.ErrAuthentication)
	assert.Equal(t, 1, sink.Closed)
	assert.ErrorIs(t, sink.Err, models.ErrAuthentication)
}

func TestRemoteTruncatedStream(t *testing.T) {
	srv := newWorker(t, func(w http.ResponseWriter, req GenerateRequest) {
		fmt.Fprint(w, "event:token\ndata:{\"token\":\"partial\"}\n\n")
	})

	_, err := NewRemote(srv.URL, srv.Client()).Generate(context.Background(), "p", Params{Streaming: true}, &BufferSink{})
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestRemoteErrorStatus(t *testing.T) {
	srv := newWorker(t, func(w http.ResponseWriter, req GenerateRequest) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(GenerateResponse{Error: "model down", Class: ClassUnavailable})
	})

	_, err := NewRemote(srv.URL, srv.Client()).Generate(context.Background(), "p", Params{}, nil)
	assert.ErrorIs(t, err, models.ErrUnavailable)
	assert.Contains(t, err.Error(), "model down")
}

func TestRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRemote(url, nil).Generate(context.Background(), "p", Params{}, nil)
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestErrorClassRoundTrip(t *testing.T) {
	for _, sentinel := range []error{models.ErrAuthentication, models.ErrInvalidInput, models.ErrUnavailable, context.Canceled} {
		wrapped := fmt.Errorf("%w: detail", sentinel)
		assert.ErrorIs(t, ErrorFromClass(ErrorClass(wrapped), "detail"), sentinel)
	}
}
