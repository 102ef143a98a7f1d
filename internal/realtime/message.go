package realtime

import (
	"bytes"
	"encoding/json"
	"time"
)

type priceChange struct {
	AssetID string  `json:"asset_id"`
	Price   float64 `json:"price"`
}

type priceChangesEnvelope struct {
	PriceChanges []priceChange `json:"price_changes"`
}

// handleMessage parses one inbound frame. Per SPEC_FULL §4.2.4: plaintext
// status tokens and JSON arrays (orderbook snapshots) are ignored; only a
// JSON object carrying a price_changes array is buffered.
func (m *Manager) handleMessage(raw []byte) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return
	}
	if trimmed[0] == '[' {
		return
	}
	if trimmed[0] != '{' {
		return
	}

	var env priceChangesEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		m.logger.WithError(err).Debug("failed to parse realtime frame, ignoring")
		return
	}

	now := time.Now().UTC()
	for _, pc := range env.PriceChanges {
		marketID, ok := m.marketFor(pc.AssetID)
		if !ok {
			continue
		}
		m.bufferPrice(pc.AssetID, marketID, pc.Price, now)
	}
}

func (m *Manager) bufferPrice(tokenID, marketID string, price float64, instant time.Time) {
	m.bufMu.Lock()
	defer m.bufMu.Unlock()
	m.buffer[tokenID] = bufferedPrice{marketID: marketID, price: price, instant: instant}
}
