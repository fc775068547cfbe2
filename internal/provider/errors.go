package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/revoshq/podengine/internal/models"
)

// APIError is a non-2xx provider response. The status code drives the
// retryable/terminal classification in the executor.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error %d", e.StatusCode)
}

// Retryable reports whether the failure may succeed on a later attempt.
// Auth failures, missing targets and other client errors never will.
func (e *APIError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// Retryable classifies any executor-facing error. Transport errors and
// timeouts are retryable; provider 4xx responses (except 408/429) are
// terminal.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// non-API errors are network-level: connection refused, DNS, timeout
	return true
}

// ErrorType maps an execution error onto the coarse dead-letter taxonomy.
func ErrorType(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorTypeTimeout
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return models.ErrorTypeAuth
		case http.StatusNotFound:
			return models.ErrorTypeNotFound
		case http.StatusTooManyRequests:
			return models.ErrorTypeRateLimit
		case http.StatusRequestTimeout:
			return models.ErrorTypeTimeout
		}
		if apiErr.StatusCode >= 500 {
			return models.ErrorTypeNetwork
		}
		return models.ErrorTypeUnknown
	}
	return models.ErrorTypeNetwork
}
