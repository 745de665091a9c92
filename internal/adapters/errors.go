package adapters

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// SourceError scopes a failure to one source and carries the retry decision
// made by classification. A source failing never fails the whole search.
type SourceError struct {
	Source     string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrMalformed   = errors.New("malformed response")
)

// HTTPError carries a source API's status code through classification.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return "unexpected status: " + e.Status
}

var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Classify wraps err in a SourceError with the retry decision. Timeouts,
// connection resets and 408/429/5xx are retryable; everything else fails
// immediately.
func Classify(source string, err error) *SourceError {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return srcErr
	}

	se := &SourceError{Source: source, Err: err}

	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		se.StatusCode = httpErr.StatusCode
		se.Retryable = retryableStatuses[httpErr.StatusCode]
	case errors.Is(err, context.DeadlineExceeded):
		se.Retryable = true
	case errors.Is(err, syscall.ECONNRESET):
		se.Retryable = true
	case isNetTimeout(err):
		se.Retryable = true
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrMalformed):
		se.Retryable = false
	case strings.Contains(err.Error(), "connection reset"):
		se.Retryable = true
	}

	return se
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
