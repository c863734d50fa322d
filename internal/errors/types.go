package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransientError represents an error that can be retried
type TransientError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry (from Retry-After header)
	StatusCode int // HTTP status code if applicable
	Message    string
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents an error that should not be retried
type PermanentError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewTransientHTTPError wraps an HTTP failure that is worth retrying.
func NewTransientHTTPError(statusCode int, body string) *TransientError {
	return &TransientError{
		Err:        fmt.Errorf("HTTP %d: %s", statusCode, body),
		StatusCode: statusCode,
	}
}

// NewPermanentHTTPError wraps an HTTP failure that retrying cannot fix.
func NewPermanentHTTPError(statusCode int, body string) *PermanentError {
	return &PermanentError{
		Err:        fmt.Errorf("HTTP %d: %s", statusCode, body),
		StatusCode: statusCode,
	}
}

// IsTransient checks if an error is retry-able
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check if explicitly marked as transient
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}

	// Check if explicitly marked as permanent
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	// Network errors (connection refused, timeout, etc.)
	if isNetworkError(err) {
		return true
	}

	// Fall back to message sniffing for errors that cross process boundaries
	// as plain strings.
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"timeout",
		"temporarily unavailable",
		"connection reset",
		"rate limit",
		"too many requests",
		"service unavailable",
		"bad gateway",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// IsRetryableStatusCode reports whether an HTTP status code is worth retrying.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	return false
}
