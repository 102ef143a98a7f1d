package realtime

import (
	"context"

	"github.com/predimarket/indexer/internal/store/model"
)

// flush drains the price buffer on a fixed timer. A concurrent flush is
// skipped (the flushing flag), not queued. On any write error the whole
// snapshot is preserved for the next tick rather than partially deleted;
// only a flush where every write succeeded removes its keys. Entries that
// changed mid-flush (a newer price for the same token arrived while this
// flush was running) are also left for the next tick, never silently
// dropped.
func (m *Manager) flush(ctx context.Context) {
	if !m.flushing.CompareAndSwap(false, true) {
		return
	}
	defer m.flushing.Store(false)

	m.bufMu.Lock()
	if len(m.buffer) == 0 {
		m.bufMu.Unlock()
		return
	}
	snapshot := make(map[string]bufferedPrice, len(m.buffer))
	for k, v := range m.buffer {
		snapshot[k] = v
	}
	m.bufMu.Unlock()

	byMarket := make(map[string]map[string]float64)
	samples := make([]*model.PriceSample, 0, len(snapshot))
	for tokenID, bp := range snapshot {
		if byMarket[bp.marketID] == nil {
			byMarket[bp.marketID] = make(map[string]float64)
		}
		byMarket[bp.marketID][tokenID] = bp.price
		samples = append(samples, &model.PriceSample{
			MarketID: bp.marketID,
			TokenID:  tokenID,
			Instant:  bp.instant,
			Price:    bp.price,
			Source:   "websocket",
		})
	}

	ok := true
	for marketID, tokenPrices := range byMarket {
		if err := m.store.ApplyWebSocketPriceUpdates(ctx, marketID, tokenPrices); err != nil {
			m.logger.WithError(err).Warnf("failed to apply price updates for market %s", marketID)
			ok = false
		}
	}
	if err := m.store.InsertPriceSamples(ctx, samples); err != nil {
		m.logger.WithError(err).Warn("failed to insert websocket price samples")
		ok = false
	}
	if !ok {
		return
	}

	m.bufMu.Lock()
	for tokenID, snapVal := range snapshot {
		if cur, ok := m.buffer[tokenID]; ok && cur == snapVal {
			delete(m.buffer, tokenID)
		}
	}
	m.bufMu.Unlock()
}
