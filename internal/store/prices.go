package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/predimarket/indexer/internal/store/model"
)

// InsertPriceSamples bulk-inserts with "do nothing on conflict" over the
// (market_id, token_id, instant, source) uniqueness constraint — both the
// realtime flush and the backfill manager share this, since both need the
// same idempotent-insert semantics.
func (s *Store) InsertPriceSamples(ctx context.Context, samples []*model.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&samples).Error
	if err != nil {
		return fmt.Errorf("insert price samples: %w", err)
	}
	return nil
}

// MarketsMissingSamples selects up to limit active markets that have no
// price sample at all, ordered by descending 24h volume — the Backfill
// Manager's BackfillMissing candidate set.
func (s *Store) MarketsMissingSamples(ctx context.Context, limit int) ([]model.Market, error) {
	var markets []model.Market
	err := s.db.WithContext(ctx).
		Where(`active AND NOT EXISTS (SELECT 1 FROM price_samples WHERE price_samples.market_id = markets.id)`).
		Order("volume_24h DESC").
		Limit(limit).
		Find(&markets).Error
	if err != nil {
		return nil, fmt.Errorf("select markets missing samples: %w", err)
	}
	return markets, nil
}
