package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/predimarket/indexer/internal/upstream/trades"
)

func sampleTrade() trades.Trade {
	return trades.Trade{
		Asset:           "123",
		Side:            "BUY",
		Price:           0.55,
		Size:            10,
		Timestamp:       1700000000,
		TransactionHash: "0xabc",
		ProxyWallet:     "0xdef",
	}
}

func TestTradeID_Deterministic(t *testing.T) {
	a := tradeID(sampleTrade())
	b := tradeID(sampleTrade())
	assert.Equal(t, a, b)
}

func TestTradeID_NoHexPrefix(t *testing.T) {
	id := tradeID(sampleTrade())
	assert.NotContains(t, id, "0x")
	assert.Len(t, id, 64)
}

func TestTradeID_ChangesWithTrade(t *testing.T) {
	a := sampleTrade()
	b := sampleTrade()
	b.Price = 0.56
	assert.NotEqual(t, tradeID(a), tradeID(b))
}

