package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docqa/internal/llmservice"
	"docqa/internal/models"
)

// nginx's code for a client that went away mid-request
const statusClientClosed = 499

type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedInput):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNoDocument):
		return http.StatusConflict
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	case errors.Is(err, models.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	} else {
		log.Warn().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request rejected")
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Class: llmservice.ErrorClass(err)})
}
