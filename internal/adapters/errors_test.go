package adapters

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_RetryableStatuses(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		se := Classify("meridian", &HTTPError{StatusCode: code, Status: http.StatusText(code)})
		assert.True(t, se.Retryable, "status %d should be retryable", code)
		assert.Equal(t, code, se.StatusCode)
	}
}

func TestClassify_NonRetryableStatuses(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 422} {
		se := Classify("meridian", &HTTPError{StatusCode: code, Status: http.StatusText(code)})
		assert.False(t, se.Retryable, "status %d should not be retryable", code)
	}
}

func TestClassify_Timeouts(t *testing.T) {
	se := Classify("meridian", context.DeadlineExceeded)
	assert.True(t, se.Retryable)

	se = Classify("meridian", syscall.ECONNRESET)
	assert.True(t, se.Retryable)
}

func TestClassify_RateLimitedIsNotRetryable(t *testing.T) {
	se := Classify("meridian", ErrRateLimited)
	assert.False(t, se.Retryable)
	assert.True(t, errors.Is(se, ErrRateLimited))
}

func TestClassify_UnknownErrorIsNotRetryable(t *testing.T) {
	se := Classify("meridian", errors.New("boom"))
	assert.False(t, se.Retryable)
}

func TestClassify_PreservesExistingSourceError(t *testing.T) {
	orig := &SourceError{Source: "meridian", Retryable: true, Err: errors.New("flaky")}
	se := Classify("meridian", orig)
	assert.Same(t, orig, se)
}

func TestSourceError_WrapsAndNames(t *testing.T) {
	inner := errors.New("boom")
	se := &SourceError{Source: "pacifica", Err: inner}

	require.Equal(t, "pacifica: boom", se.Error())
	assert.True(t, errors.Is(se, inner))
}
