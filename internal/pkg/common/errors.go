package common

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorResponse is the API error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// CustomError carries an error code and an HTTP status alongside the cause.
type CustomError struct {
	Code    string
	Message string
	Err     error
	Status  int
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError creates a new CustomError.
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Predefined error codes.
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"     // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"        // 401
	ErrCodeForbidden       = "FORBIDDEN"           // 403
	ErrCodeNotFound        = "NOT_FOUND"           // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"     // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"   // 429
	ErrCodeInternalError   = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavail  = "SERVICE_UNAVAILABLE" // 503
)

// Predefined errors.
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized", http.StatusUnauthorized, nil)
	ErrForbidden       = NewError(ErrCodeForbidden, "forbidden", http.StatusForbidden, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "request timeout", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)

	ErrInvalidFileType = NewError("INVALID_FILE_TYPE", "unsupported file type", http.StatusBadRequest, nil)
	ErrFileTooLarge    = NewError("FILE_TOO_LARGE", "file exceeds size limit", http.StatusBadRequest, nil)
	ErrCacheDisabled   = errors.New("cache disabled")
	ErrCacheMiss       = errors.New("cache miss")
)

// Extraction failure kinds. The scan handler maps these to specific,
// actionable messages: the caller needs to know whether to retry, wait,
// or fall back to manual entry.
var (
	// ErrNoAPIKey means the service has no inference credentials configured.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrModelNotFound means the requested model is unknown to the provider.
	// It is the only upstream error that allows fallback to the next model
	// in the chain.
	ErrModelNotFound = errors.New("model not found")

	// ErrNoInstructions means no usable instructions were extracted after
	// the full retry budget.
	ErrNoInstructions = errors.New("could not extract instructions after multiple attempts")

	// ErrMalformedResponse means the model payload stayed unparseable even
	// after truncation repair.
	ErrMalformedResponse = errors.New("malformed model response")
)

// RateLimitError is returned when the inference provider rejects a call
// with a quota/rate-limit status. RetryAfter is zero when the server gave
// no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by AI service, retry after %s", e.RetryAfter)
	}
	return "rate limited by AI service"
}

// IsRateLimit reports whether err is a provider rate-limit error.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
