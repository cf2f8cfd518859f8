package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/parser"
	"docqa/internal/rag"
	"docqa/internal/render"
)

// Pipeline is the part of rag.RAG the HTTP layer drives.
type Pipeline interface {
	Upload(ctx context.Context, sess *rag.Session, doc models.DocumentText) (*rag.UploadResult, error)
	Ask(ctx context.Context, sess *rag.Session, q models.Query, sink llmservice.TokenSink) (*models.PromptResponse, error)
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	*rag.UploadResult
}

type documentResponse struct {
	Pages          []string `json:"pages"`
	PageStructured bool     `json:"page_structured"`
}

type QueryRequest struct {
	Query       string   `json:"query"`
	TopK        int      `json:"top_k,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
	SourcesOnly bool     `json:"sources_only,omitempty"`
}

type QueryResponse struct {
	*models.PromptResponse
	AnswerHTML string `json:"answer_html,omitempty"`
}

// RAGController serves the per-session document QA API.
type RAGController struct {
	pipeline  Pipeline
	sessions  *rag.SessionStore
	maxUpload int64
}

func NewRAGController(pipeline Pipeline, sessions *rag.SessionStore, maxUpload int64) *RAGController {
	return &RAGController{pipeline: pipeline, sessions: sessions, maxUpload: maxUpload}
}

func (rc *RAGController) CreateSession(c *gin.Context) {
	sess, err := rc.sessions.Create()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{SessionID: sess.ID})
}

func (rc *RAGController) DeleteSession(c *gin.Context) {
	if err := rc.sessions.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadDocument extracts the multipart "file" field and indexes it into the
// session, replacing any previous document.
func (rc *RAGController) UploadDocument(c *gin.Context) {
	sess, err := rc.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: multipart field \"file\": %w", models.ErrInvalidInput, err))
		return
	}
	if rc.maxUpload > 0 && fh.Size > rc.maxUpload {
		abortWithError(c, fmt.Errorf("%w: file is %d bytes, limit is %d", models.ErrInvalidInput, fh.Size, rc.maxUpload))
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", models.ErrInvalidInput, err))
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", models.ErrInvalidInput, err))
		return
	}

	fileType := parser.TypeFromFilename(fh.Filename)
	if fileType == "" {
		fileType = fh.Header.Get("Content-Type")
	}
	doc, err := parser.Extract(data, fileType)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := rc.pipeline.Upload(c.Request.Context(), sess, doc)
	if err != nil {
		abortWithError(c, err)
		return
	}
	log.Info().Str("session", sess.ID).Str("file", fh.Filename).Int("chunks", result.Chunks).Msg("Document uploaded")
	c.JSON(http.StatusOK, uploadResponse{SessionID: sess.ID, Filename: fh.Filename, UploadResult: result})
}

// GetDocument returns the normalized document as JSON pages, or as HTML with
// ?format=html.
func (rc *RAGController) GetDocument(c *gin.Context) {
	sess, err := rc.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	doc, ok := sess.Document()
	if !ok {
		abortWithError(c, models.ErrNoDocument)
		return
	}

	switch c.DefaultQuery("format", "text") {
	case "html":
		out, err := render.DocumentHTML(doc)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
	case "text":
		c.JSON(http.StatusOK, documentResponse{Pages: doc.Pages, PageStructured: doc.PageStructured})
	default:
		abortWithError(c, fmt.Errorf("%w: format must be html or text", models.ErrInvalidInput))
	}
}

// Query answers a question. With "stream" set the reply is an event stream of
// "token" events followed by one "answer" or "error" event.
func (rc *RAGController) Query(c *gin.Context) {
	sess, err := rc.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: invalid request body: %w", models.ErrInvalidInput, err))
		return
	}
	q := models.Query{
		Text:        req.Query,
		TopK:        req.TopK,
		Temperature: req.Temperature,
		Streaming:   req.Stream,
		SourcesOnly: req.SourcesOnly,
	}

	if !req.Stream {
		resp, err := rc.pipeline.Ask(c.Request.Context(), sess, q, nil)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, queryResponse(resp))
		return
	}

	// failures known before the stream opens still get their own status
	if strings.TrimSpace(q.Text) == "" {
		abortWithError(c, fmt.Errorf("%w: empty query", models.ErrInvalidInput))
		return
	}
	if _, ok := sess.Document(); !ok {
		abortWithError(c, models.ErrNoDocument)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	resp, err := rc.pipeline.Ask(c.Request.Context(), sess, q, &eventSink{c: c})
	if err != nil {
		return
	}
	c.SSEvent("answer", queryResponse(resp))
	c.Writer.Flush()
}

func queryResponse(resp *models.PromptResponse) QueryResponse {
	out := QueryResponse{PromptResponse: resp}
	if resp.Answer.AnswerText != "" {
		html, err := render.AnswerHTML(resp.Answer)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to render answer")
		} else {
			out.AnswerHTML = html
		}
	}
	return out
}

// eventSink relays tokens as server-sent events. A failed call ends the stream
// with an "error" event.
type eventSink struct {
	c *gin.Context
}

func (s *eventSink) WriteToken(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.c.SSEvent("token", llmservice.GenerateResponse{Token: token})
	s.c.Writer.Flush()
	return nil
}

func (s *eventSink) Close(err error) {
	if err == nil {
		return
	}
	log.Warn().Err(err).Msg("Streaming query failed")
	s.c.SSEvent("error", errorResponse{Error: err.Error(), Class: llmservice.ErrorClass(err)})
	s.c.Writer.Flush()
}
