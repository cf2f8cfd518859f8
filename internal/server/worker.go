package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/llmservice"
	"docqa/internal/models"
)

// WorkerController serves generation for remote callers using the protocol
// llmservice.Remote speaks.
type WorkerController struct {
	generator llmservice.Generator
}

func NewWorkerController(generator llmservice.Generator) *WorkerController {
	return &WorkerController{generator: generator}
}

func (wc *WorkerController) Generate(c *gin.Context) {
	var req llmservice.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: invalid request body: %w", models.ErrInvalidInput, err))
		return
	}

	if !req.Params.Streaming {
		text, err := wc.generator.Generate(c.Request.Context(), req.Prompt, req.Params, nil)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, llmservice.GenerateResponse{Text: text})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	text, err := wc.generator.Generate(c.Request.Context(), req.Prompt, req.Params, &workerSink{c: c})
	if err != nil {
		return
	}
	c.SSEvent("done", llmservice.GenerateResponse{Text: text})
	c.Writer.Flush()
}

type workerSink struct {
	c *gin.Context
}

func (s *workerSink) WriteToken(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.c.SSEvent("token", llmservice.GenerateResponse{Token: token})
	s.c.Writer.Flush()
	return nil
}

func (s *workerSink) Close(err error) {
	if err == nil {
		return
	}
	s.c.SSEvent("error", llmservice.GenerateResponse{Error: err.Error(), Class: llmservice.ErrorClass(err)})
	s.c.Writer.Flush()
}
