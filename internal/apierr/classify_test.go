package apierr

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_NilOnSuccess(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Body: http.NoBody}
	assert.Nil(t, Classify(resp, nil))
}

func TestClassify_NetworkErrorWhenErrSet(t *testing.T) {
	err := Classify(nil, errors.New("connection refused"))
	require.Error(t, err)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Retryable())
}

func TestClassify_RateLimitWithRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Retry-After", "5")
	rec.WriteHeader(http.StatusTooManyRequests)
	resp := rec.Result()

	err := Classify(resp, nil)
	require.Error(t, err)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 5, rle.RetryAfterSec)
}

func TestClassify_APIErrorOnServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusInternalServerError)
	rec.Body.WriteString("boom")
	resp := rec.Result()

	err := Classify(resp, nil)
	require.Error(t, err)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.True(t, ae.Retryable())
	assert.Equal(t, "boom", ae.Body)
}

func TestAPIError_NotRetryableOnBadRequest(t *testing.T) {
	e := &APIError{Status: 400}
	assert.False(t, e.Retryable())
}
