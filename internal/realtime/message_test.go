package realtime

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return &Manager{
		logger:        logrus.New(),
		tokenToMarket: map[string]string{"tok1": "market1", "tok2": "market2"},
		buffer:        make(map[string]bufferedPrice),
	}
}

func TestHandleMessage_BuffersKnownToken(t *testing.T) {
	m := testManager()
	m.handleMessage([]byte(`{"price_changes":[{"asset_id":"tok1","price":0.42}]}`))

	bp, ok := m.buffer["tok1"]
	require.True(t, ok)
	assert.Equal(t, "market1", bp.marketID)
	assert.Equal(t, 0.42, bp.price)
}

func TestHandleMessage_IgnoresUnknownToken(t *testing.T) {
	m := testManager()
	m.handleMessage([]byte(`{"price_changes":[{"asset_id":"unknown","price":0.1}]}`))
	assert.Empty(t, m.buffer)
}

func TestHandleMessage_IgnoresArrayFrames(t *testing.T) {
	m := testManager()
	m.handleMessage([]byte(`[{"not":"a price change envelope"}]`))
	assert.Empty(t, m.buffer)
}

func TestHandleMessage_IgnoresEmptyFrame(t *testing.T) {
	m := testManager()
	assert.NotPanics(t, func() { m.handleMessage([]byte("  ")) })
}

func TestHandleMessage_IgnoresMalformedJSON(t *testing.T) {
	m := testManager()
	m.handleMessage([]byte(`{not json`))
	assert.Empty(t, m.buffer)
}

func TestHandleMessage_LastPriceWinsForSameToken(t *testing.T) {
	m := testManager()
	m.handleMessage([]byte(`{"price_changes":[{"asset_id":"tok1","price":0.1},{"asset_id":"tok1","price":0.2}]}`))
	assert.Equal(t, 0.2, m.buffer["tok1"].price)
}
