package trades

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predimarket/indexer/internal/upstream"
)

func TestRecent_DecodesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`[{"asset":"tok1","side":"BUY","price":0.5,"size":10,"timestamp":1700000000,"transactionHash":"0xabc","proxyWallet":"0xdef"}]`))
	}))
	defer srv.Close()

	c := New(upstream.NewRequester(srv.Client(), srv.URL, nil, time.Second))
	out, err := c.Recent(t.Context(), 50, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "tok1", out[0].Asset)
}
