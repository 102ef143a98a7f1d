package sync

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/predimarket/indexer/internal/store/model"
	"github.com/predimarket/indexer/internal/upstream/trades"
)

// SyncRecentTrades pulls one page of the global trades feed, keeps only
// fills on a currently-live token, and inserts them idempotently under a
// deterministic content-hash id (SPEC_FULL §4.1.7).
func (m *Manager) SyncRecentTrades(ctx context.Context) error {
	tokenToMarket, err := m.store.LiveTokenUniverseByVolume(ctx, m.cfg.TradesSyncMarketLimit)
	if err != nil {
		return fmt.Errorf("load live token universe: %w", err)
	}

	page, err := m.trades.Recent(ctx, m.cfg.TradesBatchSize, 0)
	if err != nil {
		return fmt.Errorf("fetch recent trades: %w", err)
	}

	rows := make([]*model.Trade, 0, len(page))
	for _, t := range page {
		marketID, ok := tokenToMarket[t.Asset]
		if !ok {
			continue
		}
		rows = append(rows, tradeToModel(t, marketID))
	}
	if len(rows) == 0 {
		return nil
	}

	return m.store.InsertTrades(ctx, rows)
}

func tradeToModel(t trades.Trade, marketID string) *model.Trade {
	executedAt := time.Unix(t.Timestamp, 0).UTC()
	id := tradeID(t)
	return &model.Trade{
		ID:              id,
		MarketID:        marketID,
		TokenID:         t.Asset,
		Side:            t.Side,
		Price:           t.Price,
		Size:            t.Size,
		TransactionHash: t.TransactionHash,
		ProxyWallet:     t.ProxyWallet,
		ExecutedAt:      executedAt,
	}
}

// tradeID is the lowercase hex Keccak-256 hash (no 0x prefix) of the
// pipe-joined trade tuple, giving every trade a stable id even when the
// upstream feed omits one of its own.
func tradeID(t trades.Trade) string {
	message := fmt.Sprintf("%s|%s|%g|%g|%d|%s|%s", t.Asset, t.Side, t.Price, t.Size, t.Timestamp, t.TransactionHash, t.ProxyWallet)
	hash := crypto.Keccak256Hash([]byte(message))
	return hex.EncodeToString(hash.Bytes())
}
