package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/predimarket/indexer/internal/store/model"
)

// InsertTrades bulk-inserts with "do nothing on conflict" on the
// deterministic content-hash id, so re-ingesting identical content is a
// no-op (SPEC_FULL §4.1.7, §8 property 4).
func (s *Store) InsertTrades(ctx context.Context, trades []*model.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&trades).Error
	if err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}
	return nil
}
