package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docqa/internal/llmservice"
)

const shutdownTimeout = 10 * time.Second

// NewRouter mounts the API for rc and the worker endpoint for wc. Either may
// be nil.
func NewRouter(rc *RAGController, wc *WorkerController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "docqa",
		})
	})

	if rc != nil {
		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/sessions", rc.CreateSession)
			apiV1.DELETE("/sessions/:id", rc.DeleteSession)
			apiV1.POST("/sessions/:id/document", rc.UploadDocument)
			apiV1.GET("/sessions/:id/document", rc.GetDocument)
			apiV1.POST("/sessions/:id/query", rc.Query)
		}
	}
	if wc != nil {
		router.POST(llmservice.WorkerPath, wc.Generate)
	}
	return router
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
