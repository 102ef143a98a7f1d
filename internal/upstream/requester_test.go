package upstream

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predimarket/indexer/internal/apierr"
)

type market struct {
	ID     string `json:"id"`
	Closed bool   `json:"closed"`
}

func TestGet_DecodesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m1","closed":false}`))
	}))
	defer srv.Close()

	r := NewRequester(srv.Client(), srv.URL, nil, time.Second)
	var out market
	err := r.Get(t.Context(), "/markets/m1", nil, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "m1", out.ID)
}

func TestGet_SortsQueryParamsDeterministically(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := NewRequester(srv.Client(), srv.URL, nil, time.Second)
	var out map[string]interface{}
	err := r.Get(t.Context(), "/markets", map[string]string{"offset": "10", "closed": "true", "limit": "5"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "closed=true&limit=5&offset=10", gotQuery)
}

func TestGet_ValidationErrorOnMissingRequiredField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	}))
	defer srv.Close()

	r := NewRequester(srv.Client(), srv.URL, nil, time.Second)
	var out market
	err := r.Get(t.Context(), "/markets/m1", nil, RequiredFields{"id", "conditionId"}, &out)
	require.Error(t, err)
	var ve *apierr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Issues[0], "conditionId")
}

func TestGet_ClassifiesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer srv.Close()

	r := NewRequester(srv.Client(), srv.URL, nil, time.Second)
	var out market
	err := r.Get(t.Context(), "/markets/m1", nil, nil, &out)
	require.Error(t, err)
	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestGet_ClassifiesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewRequester(srv.Client(), srv.URL, nil, time.Second)
	var out market
	err := r.Get(t.Context(), "/markets/m1", nil, nil, &out)
	require.Error(t, err)
	var rle *apierr.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.True(t, rle.Retryable())
}
