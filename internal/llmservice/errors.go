package llmservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"docqa/internal/models"
)

var statusCodeRe = regexp.MustCompile(`(?i)status(?: code)?[:=]?\s*(\d{3})`)

// Classify maps a provider or transport failure onto the error taxonomy. The
// result wraps both the class sentinel and the original error. Cancellation
// passes through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	for _, known := range []error{models.ErrAuthentication, models.ErrUnavailable, models.ErrInvalidInput} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return wrapStatus(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return wrapStatus(apiErrPtr.Code, apiErrPtr.Message, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
	}

	msg := err.Error()
	if m := statusCodeRe.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		return wrapStatus(code, msg, err)
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "api_key"),
		strings.Contains(lower, "unauthorized"), strings.Contains(lower, "permission denied"):
		return fmt.Errorf("%w: %w", models.ErrAuthentication, err)
	}
	return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
}

func wrapStatus(code int, message string, err error) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", models.ErrAuthentication, err)
	case code == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key"):
		return fmt.Errorf("%w: %w", models.ErrAuthentication, err)
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
	case code >= 400:
		return fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
}
