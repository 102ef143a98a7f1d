// Package backfill fills historical price samples for markets that have
// none yet, from the price-history API rather than the live feed.
package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/predimarket/indexer/internal/store"
	"github.com/predimarket/indexer/internal/store/model"
	"github.com/predimarket/indexer/internal/upstream/pricehistory"
)

const missingSamplesLimit = 100
const backfillPacing = 100 * time.Millisecond

type Manager struct {
	client *pricehistory.Client
	store  *store.Store
	logger *logrus.Logger
}

func New(client *pricehistory.Client, st *store.Store, logger *logrus.Logger) *Manager {
	return &Manager{client: client, store: st, logger: logger}
}

// BackfillMarket fetches the market's primary-token history and writes
// price samples for it. Binary markets (exactly two outcome tokens) also
// get the complementary (1-p) series for the second token, since the
// upstream only serves history for one token per binary pair. Markets
// with more than two tokens record only the primary token.
func (m *Manager) BackfillMarket(ctx context.Context, mkt model.Market, interval pricehistory.Interval) error {
	tokens, err := decodeTokenIDs(mkt.OutcomeTokenIDs)
	if err != nil || len(tokens) == 0 {
		return fmt.Errorf("market %s has no decodable outcome tokens: %w", mkt.ID, err)
	}

	points, err := m.client.History(ctx, tokens[0], interval)
	if err != nil {
		return fmt.Errorf("fetch history for market %s token %s: %w", mkt.ID, tokens[0], err)
	}

	samples := make([]*model.PriceSample, 0, len(points)*2)
	for _, p := range points {
		instant := time.Unix(p.T, 0).UTC()
		samples = append(samples, &model.PriceSample{
			MarketID: mkt.ID, TokenID: tokens[0], Instant: instant, Price: p.P, Source: "clob",
		})
	}

	switch {
	case len(tokens) == 2:
		for _, p := range points {
			instant := time.Unix(p.T, 0).UTC()
			samples = append(samples, &model.PriceSample{
				MarketID: mkt.ID, TokenID: tokens[1], Instant: instant, Price: 1 - p.P, Source: "clob",
			})
		}
	case len(tokens) > 2:
		m.logger.Warnf("market %s has %d outcome tokens, recording only the primary", mkt.ID, len(tokens))
	}

	return m.store.InsertPriceSamples(ctx, samples)
}

// BackfillMissing selects up to 100 active markets with zero price
// samples, ordered by descending 24h volume, and backfills each with a
// small pause between markets to avoid hammering the history API.
func (m *Manager) BackfillMissing(ctx context.Context, interval pricehistory.Interval) error {
	markets, err := m.store.MarketsMissingSamples(ctx, missingSamplesLimit)
	if err != nil {
		return fmt.Errorf("load markets missing samples: %w", err)
	}

	for i, mkt := range markets {
		if err := m.BackfillMarket(ctx, mkt, interval); err != nil {
			m.logger.WithError(err).Warnf("backfill failed for market %s", mkt.ID)
		}
		if i < len(markets)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backfillPacing):
			}
		}
	}
	return nil
}

func decodeTokenIDs(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
