package llmservice

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"docqa/internal/models"
)

// WorkerPath is where a generation worker accepts prompts.
const WorkerPath = "/internal/v1/generate"

// Error classes carried over the worker protocol.
const (
	ClassAuthentication = "authentication"
	ClassUnavailable    = "unavailable"
	ClassInvalidInput   = "invalid_input"
	ClassCanceled       = "canceled"
)

type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Params Params `json:"params"`
}

type GenerateResponse struct {
	Text  string `json:"text,omitempty"`
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
	Class string `json:"class,omitempty"`
}

// ErrorClass names the taxonomy class of err for transport to a remote caller.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case errors.Is(err, models.ErrAuthentication):
		return ClassAuthentication
	case errors.Is(err, models.ErrInvalidInput):
		return ClassInvalidInput
	}
	return ClassUnavailable
}

// ErrorFromClass rebuilds a classified error on the calling side.
func ErrorFromClass(class, message string) error {
	cause := errors.New(message)
	switch class {
	case ClassCanceled:
		return fmt.Errorf("%w: %w", context.Canceled, cause)
	case ClassAuthentication:
		return fmt.Errorf("%w: %w", models.ErrAuthentication, cause)
	case ClassInvalidInput:
		return fmt.Errorf("%w: %w", models.ErrInvalidInput, cause)
	}
	return fmt.Errorf("%w: %w", models.ErrUnavailable, cause)
}

// Remote dispatches generation to a worker process over HTTP. Callers use it
// exactly like a local generator.
type Remote struct {
	endpoint string
	client   *http.Client
}

func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{
		endpoint: strings.TrimRight(baseURL, "/") + WorkerPath,
		client:   client,
	}
}

func (r *Remote) Generate(ctx context.Context, prompt string, params Params, sink TokenSink) (text string, err error) {
	sink = Once(sink)
	if sink != nil {
		defer func() { sink.Close(err) }()
	}
	params.Streaming = params.Streaming && sink != nil

	payload, err := json.Marshal(GenerateRequest{Prompt: prompt, Params: params})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if params.Streaming {
		req.Header.Set("Accept", "text/event-stream")
	}

	log.Debug().Str("endpoint", r.endpoint).Bool("streaming", params.Streaming).Msg("Dispatching generation")
	resp, err := r.client.Do(req)
	if err != nil {
		return "", Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body GenerateResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &body) != nil || body.Error == "" {
			return "", Classify(fmt.Errorf("worker returned status code: %d: %s", resp.StatusCode, string(raw)))
		}
		return "", ErrorFromClass(body.Class, body.Error)
	}

	if !params.Streaming {
		var body GenerateResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("%w: undecodable worker response: %w", models.ErrUnavailable, err)
		}
		return body.Text, nil
	}
	return readEventStream(ctx, resp.Body, sink)
}

// readEventStream consumes "token" events until a "done" or "error" event.
func readEventStream(ctx context.Context, body io.Reader, sink TokenSink) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		event string
		text  strings.Builder
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			event = ""
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			var msg GenerateResponse
			data := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if err := json.Unmarshal([]byte(data), &msg); err != nil {
				return text.String(), fmt.Errorf("%w: bad event %q: %w", models.ErrUnavailable, event, err)
			}
			switch event {
			case "token":
				text.WriteString(msg.Token)
				if err := sink.WriteToken(ctx, msg.Token); err != nil {
					return text.String(), err
				}
			case "done":
				return msg.Text, nil
			case "error":
				return text.String(), ErrorFromClass(msg.Class, msg.Error)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return text.String(), Classify(err)
	}
	return text.String(), fmt.Errorf("%w: worker stream ended without completion", models.ErrUnavailable)
}
