package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/rag"
)

type fakePipeline struct {
	tokens  []string
	resp    *models.PromptResponse
	err     error
	uploads int
}

func (p *fakePipeline) Upload(_ context.Context, _ *rag.Session, doc models.DocumentText) (*rag.UploadResult, error) {
	p.uploads++
	return &rag.UploadResult{Pages: len(doc.Pages), Chunks: 1}, nil
}

func (p *fakePipeline) Ask(ctx context.Context, _ *rag.Session, _ models.Query, sink llmservice.TokenSink) (resp *models.PromptResponse, err error) {
	defer func() { sink.Close(err) }()
	for _, tok := range p.tokens {
		if err := sink.WriteToken(ctx, tok); err != nil {
			return nil, err
		}
	}
	return p.resp, p.err
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

// drain runs cmd and feeds its messages back until the answer arrives.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 100; i++ {
		msg := cmd()
		next, nextCmd := m.Update(msg)
		m = next.(Model)
		if _, done := msg.(answerMsg); done {
			return m
		}
		cmd = nextCmd
	}
	t.Fatal("no answer")
	return m
}

func TestViewBeforeResize(t *testing.T) {
	m := New(context.Background(), &fakePipeline{}, rag.NewSession("s"), "doc.txt", 3)
	assert.Equal(t, "Loading...", m.View())
}

func TestAskStreamsIntoTranscript(t *testing.T) {
	chunk := models.NewChunk("Bicycles have two wheels.", 1, 0)
	p := &fakePipeline{
		tokens: []string{"Two ", "wheels. "},
		resp: &models.PromptResponse{
			Answer:  models.ParsedAnswer{AnswerText: "Two wheels. ", CitedChunks: []models.Chunk{chunk}},
			Context: []models.Chunk{chunk},
		},
	}
	m := sized(t, New(context.Background(), p, rag.NewSession("s"), "doc.txt", 3))
	m.input.SetValue("how many wheels?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.True(t, m.busy)
	require.NotNil(t, cmd)

	m = drain(t, m, cmd)
	assert.False(t, m.busy)
	require.Len(t, m.history, 1)
	assert.Equal(t, "Two wheels. ", m.history[0].answer)
	assert.Contains(t, m.renderTranscript(), "[1-0] page 1")
	assert.Contains(t, m.View(), "Answered from 1 excerpts")
}

func TestAskErrorShownInStatus(t *testing.T) {
	p := &fakePipeline{err: models.ErrNoDocument}
	m := sized(t, New(context.Background(), p, rag.NewSession("s"), "doc.txt", 3))
	m.input.SetValue("anything")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, next.(Model), cmd)
	require.Len(t, m.history, 1)
	assert.True(t, errors.Is(m.history[0].err, models.ErrNoDocument))
	assert.Contains(t, m.status, "Error:")
}

func TestEmptyInputIgnored(t *testing.T) {
	m := sized(t, New(context.Background(), &fakePipeline{}, rag.NewSession("s"), "doc.txt", 3))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).busy)
}

func TestFileChangedReuploads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("fresh text"), 0o644))

	p := &fakePipeline{}
	m := sized(t, New(context.Background(), p, rag.NewSession("s"), path, 3))
	next, cmd := m.Update(FileChangedMsg{Path: path})
	require.NotNil(t, cmd)
	next, _ = next.(Model).Update(cmd())

	assert.Equal(t, 1, p.uploads)
	assert.Contains(t, next.(Model).status, "Re-indexed 1 pages")
}

func TestWatchReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Watch(ctx, path, func() { changed <- struct{}{} })
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("v2"), 0o644)
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}
