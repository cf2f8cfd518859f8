package llmservice

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// TokenSink receives streamed tokens in arrival order, then exactly one Close
// carrying the terminal error (nil on success).
type TokenSink interface {
	WriteToken(ctx context.Context, token string) error
	Close(err error)
}

type onceSink struct {
	TokenSink
	once sync.Once
}

func (s *onceSink) Close(err error) {
	s.once.Do(func() { s.TokenSink.Close(err) })
}

// Once wraps sink so repeated Close calls after the first are dropped.
func Once(sink TokenSink) TokenSink {
	if sink == nil {
		return nil
	}
	if _, ok := sink.(*onceSink); ok {
		return sink
	}
	return &onceSink{TokenSink: sink}
}

// WriterSink copies tokens to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) WriteToken(_ context.Context, token string) error {
	_, err := io.WriteString(s.W, token)
	return err
}

func (s WriterSink) Close(err error) {
	if err == nil {
		fmt.Fprintln(s.W)
	}
}

// ChanSink forwards tokens to a channel and closes it on completion. The
// terminal error is available from Err after the channel is closed.
type ChanSink struct {
	C   chan string
	mu  sync.Mutex
	err error
}

func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{C: make(chan string, buffer)}
}

func (s *ChanSink) WriteToken(ctx context.Context, token string) error {
	select {
	case s.C <- token:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ChanSink) Close(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.C)
}

func (s *ChanSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// BufferSink records everything it receives.
type BufferSink struct {
	mu     sync.Mutex
	Tokens []string
	Closed int
	Err    error
}

func (s *BufferSink) WriteToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tokens = append(s.Tokens, token)
	return nil
}

func (s *BufferSink) Close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	s.Err = err
}

func (s *BufferSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.Tokens, "")
}
