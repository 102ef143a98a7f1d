package clob

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predimarket/indexer/internal/upstream"
)

func newTestClient(t *testing.T, body string) *Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(upstream.NewRequester(srv.Client(), srv.URL, nil, time.Second))
}

func TestTradable_TrueWhenFullyOpen(t *testing.T) {
	c := newTestClient(t, `{"closed":false,"accepting_orders":true,"enable_order_book":true}`)
	ok, err := c.Tradable(t.Context(), "cond1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTradable_FalseWhenClosed(t *testing.T) {
	c := newTestClient(t, `{"closed":true,"accepting_orders":true,"enable_order_book":true}`)
	ok, err := c.Tradable(t.Context(), "cond1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTradable_FalseWhenNotAcceptingOrders(t *testing.T) {
	c := newTestClient(t, `{"closed":false,"accepting_orders":false,"enable_order_book":true}`)
	ok, err := c.Tradable(t.Context(), "cond1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTradable_FalseWhenOrderBookDisabled(t *testing.T) {
	c := newTestClient(t, `{"closed":false,"accepting_orders":true,"enable_order_book":false}`)
	ok, err := c.Tradable(t.Context(), "cond1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTradable_ErrorsRatherThanClosingOnMissingField(t *testing.T) {
	c := newTestClient(t, `{"closed":false,"accepting_orders":true}`)
	_, err := c.Tradable(t.Context(), "cond1")
	assert.Error(t, err)
}
