package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/parser"
	"docqa/internal/rag"
)

// Pipeline is the TUI-facing subset of rag.RAG.
type Pipeline interface {
	Upload(ctx context.Context, sess *rag.Session, doc models.DocumentText) (*rag.UploadResult, error)
	Ask(ctx context.Context, sess *rag.Session, q models.Query, sink llmservice.TokenSink) (*models.PromptResponse, error)
}

// FileChangedMsg asks the model to re-read and re-index its document.
type FileChangedMsg struct {
	Path string
}

// WatchFailedMsg reports that the document can no longer be watched.
type WatchFailedMsg struct {
	Err error
}

type tokenMsg struct {
	token  string
	stream *stream
}

type answerMsg struct {
	resp *models.PromptResponse
	err  error
}

type uploadedMsg struct {
	result *rag.UploadResult
	err    error
}

// stream carries one in-flight Ask back into the update loop.
type stream struct {
	sink   *llmservice.ChanSink
	result chan answerMsg
}

type exchange struct {
	question string
	answer   string
	sources  []models.Chunk
	err      error
}

// Model is the Bubble Tea model for chatting with one document.
type Model struct {
	ctx      context.Context
	pipeline Pipeline
	session  *rag.Session
	path     string
	topK     int

	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	pending  *exchange
	status   string
	busy     bool
	ready    bool
}

// New creates a chat over the document at path, already uploaded into sess.
func New(ctx context.Context, pipeline Pipeline, sess *rag.Session, path string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		pipeline: pipeline,
		session:  sess,
		path:     path,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   "Loaded " + path + ". Ask away.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			m.pending = &exchange{question: q}
			m.status = "Thinking..."
			m.refresh()
			return m, m.ask(q)
		}
		switch msg.String() {
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tokenMsg:
		if m.pending != nil {
			m.pending.answer += msg.token
			m.refresh()
		}
		return m, waitForToken(msg.stream)

	case answerMsg:
		m.busy = false
		if m.pending == nil {
			return m, nil
		}
		ex := *m.pending
		m.pending = nil
		if msg.err != nil {
			ex.err = msg.err
			m.status = "Error: " + msg.err.Error()
		} else {
			ex.answer = msg.resp.Answer.AnswerText
			ex.sources = msg.resp.Answer.CitedChunks
			m.status = fmt.Sprintf("Answered from %d excerpts", len(msg.resp.Context))
		}
		m.history = append(m.history, ex)
		m.refresh()
		return m, nil

	case FileChangedMsg:
		m.status = "Re-indexing " + msg.Path + "..."
		return m, m.reload(msg.Path)

	case WatchFailedMsg:
		m.status = "Watch stopped: " + msg.Err.Error()
		return m, nil

	case uploadedMsg:
		switch {
		case msg.err != nil:
			m.status = "Re-index failed: " + msg.err.Error()
		case msg.result.CacheHit:
			m.status = "Document unchanged."
		default:
			m.status = fmt.Sprintf("Re-indexed %d pages into %d chunks.", msg.result.Pages, msg.result.Chunks)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docqa: " + m.path)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) ask(q string) tea.Cmd {
	s := &stream{sink: llmservice.NewChanSink(64), result: make(chan answerMsg, 1)}
	pipeline, sess, ctx := m.pipeline, m.session, m.ctx
	query := models.Query{Text: q, TopK: m.topK, Streaming: true}
	go func() {
		resp, err := pipeline.Ask(ctx, sess, query, s.sink)
		s.result <- answerMsg{resp: resp, err: err}
	}()
	return waitForToken(s)
}

// waitForToken delivers the next streamed token, or the final answer once the
// sink has been closed.
func waitForToken(s *stream) tea.Cmd {
	return func() tea.Msg {
		if tok, ok := <-s.sink.C; ok {
			return tokenMsg{token: tok, stream: s}
		}
		return <-s.result
	}
}

func (m Model) reload(path string) tea.Cmd {
	pipeline, sess, ctx := m.pipeline, m.session, m.ctx
	return func() tea.Msg {
		doc, err := parser.ParseFile(path)
		if err != nil {
			return uploadedMsg{err: err}
		}
		result, err := pipeline.Upload(ctx, sess, doc)
		return uploadedMsg{result: result, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 && m.pending == nil {
		return "No questions yet."
	}
	var b strings.Builder
	for _, ex := range m.history {
		writeExchange(&b, ex)
	}
	if m.pending != nil {
		writeExchange(&b, *m.pending)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeExchange(b *strings.Builder, ex exchange) {
	b.WriteString(questionStyle.Render("Q: " + ex.question))
	b.WriteString("\n")
	if ex.err != nil {
		b.WriteString(errorStyle.Render(ex.err.Error()))
		b.WriteString("\n\n")
		return
	}
	b.WriteString(ex.answer)
	b.WriteString("\n")
	for _, c := range ex.sources {
		b.WriteString(sourceStyle.Render(fmt.Sprintf("[%s] page %d: %s", c.SourceID, c.PageNumber, excerpt(c.Content, 80))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
