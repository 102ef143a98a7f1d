package pricehistory

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predimarket/indexer/internal/upstream"
)

func TestHistory_DecodesPoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok1", r.URL.Query().Get("market"))
		assert.Equal(t, "max", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"history":[{"t":1700000000,"p":0.4},{"t":1700003600,"p":0.45}]}`))
	}))
	defer srv.Close()

	c := New(upstream.NewRequester(srv.Client(), srv.URL, nil, time.Second))
	points, err := c.History(t.Context(), "tok1", IntervalMax)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 0.45, points[1].P)
}
