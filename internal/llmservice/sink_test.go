package llmservice

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnceSinkClosesOnce(t *testing.T) {
	inner := &BufferSink{}
	sink := Once(inner)

	require.NoError(t, sink.WriteToken(context.Background(), "a"))
	sink.Close(nil)
	sink.Close(errors.New("late"))

	assert.Equal(t, 1, inner.Closed)
	assert.NoError(t, inner.Err)
	assert.Same(t, sink, Once(sink))
	assert.Nil(t, Once(nil))
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := WriterSink{W: &buf}

	require.NoError(t, sink.WriteToken(context.Background(), "Hel"))
	require.NoError(t, sink.WriteToken(context.Background(), "lo"))
	sink.Close(nil)

	assert.Equal(t, "Hello\n", buf.String())
}

func TestChanSink(t *testing.T) {
	sink := NewChanSink(4)
	require.NoError(t, sink.WriteToken(context.Background(), "x"))
	sink.Close(errors.New("done badly"))

	var got []string
	for tok := range sink.C {
		got = append(got, tok)
	}
	assert.Equal(t, []string{"x"}, got)
	assert.EqualError(t, sink.Err(), "done badly")
}

func TestChanSinkHonoursCancel(t *testing.T) {
	sink := NewChanSink(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sink.WriteToken(ctx, "blocked"), context.Canceled)
}
