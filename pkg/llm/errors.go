package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
)

// AuthError indicates a missing credential or one rejected by the service.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: authentication failed (http %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: authentication failed: %s", e.Message)
}

// ServiceError indicates the remote call errored or timed out.
type ServiceError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: service error (http %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: service error: %s", e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

// IsServiceError reports whether err is (or wraps) a ServiceError.
func IsServiceError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e)
}

// classifyError maps transport and API failures onto the two error kinds the
// caller can act on. Unauthorized and forbidden responses become AuthError;
// everything else - other statuses, timeouts, dead sockets - is a ServiceError.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{
				StatusCode: apiErr.StatusCode,
				Message:    "credential rejected by service",
			}
		default:
			return &ServiceError{
				StatusCode: apiErr.StatusCode,
				Message:    "completion request failed",
				Cause:      err,
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Message: "completion request timed out", Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ServiceError{Message: "service unreachable", Cause: err}
	}

	return &ServiceError{Message: err.Error(), Cause: err}
}
