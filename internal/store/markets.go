package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/predimarket/indexer/internal/store/model"
)

// UpsertMarkets applies one page of catalog markets as a single batched
// upsert, identical merge semantics to UpsertEvents. event_id is
// deliberately absent from both the insert columns and the DoUpdates list:
// the market-ingestion path never sets it (SPEC_FULL §3, §4.1.3).
func (s *Store) UpsertMarkets(ctx context.Context, markets []*model.Market) error {
	if len(markets) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("EventID").Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"condition_id", "question", "description", "slug",
				"outcomes", "outcome_token_ids", "outcome_prices",
				"best_bid", "best_ask", "spread", "volume", "volume_24h",
				"liquidity", "category", "end_date",
			}),
		}).Create(&markets).Error; err != nil {
			return fmt.Errorf("upsert markets: %w", err)
		}

		ids := make([]string, len(markets))
		for i, m := range markets {
			ids[i] = m.ID
		}
		if err := mergeMonotonicFlags(tx, "markets", ids, markets, func(m *model.Market) (closed, archived, active bool) {
			return m.Closed, m.Archived, m.Active
		}); err != nil {
			return err
		}

		return recomputeSearchVector(tx, "markets", ids, "question", "description")
	})
}

// LiveTokenUniverse returns every outcome token id belonging to a live
// market (active AND NOT closed AND NOT archived), mapped back to its
// market id. This is the set the Realtime Sync Manager subscribes to.
func (s *Store) LiveTokenUniverse(ctx context.Context) (map[string]string, error) {
	return s.liveTokenUniverse(ctx, 0)
}

// LiveTokenUniverseByVolume returns the same live token universe as
// LiveTokenUniverse, but restricted to the top limit markets ordered by
// descending 24h volume (limit <= 0 means unlimited). Used by the trades
// sync to cap the tracked set to its highest-volume markets (SPEC_FULL
// §4.1.7) rather than an arbitrary cardinality cut.
func (s *Store) LiveTokenUniverseByVolume(ctx context.Context, limit int) (map[string]string, error) {
	return s.liveTokenUniverse(ctx, limit)
}

func (s *Store) liveTokenUniverse(ctx context.Context, limit int) (map[string]string, error) {
	var rows []struct {
		ID              string
		OutcomeTokenIDs []byte
	}
	q := s.db.WithContext(ctx).
		Model(&model.Market{}).
		Select("id, outcome_token_ids").
		Where("active AND NOT closed AND NOT archived").
		Order("volume_24h DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load live token universe: %w", err)
	}

	tokenToMarket := make(map[string]string)
	for _, r := range rows {
		tokens, err := decodeStringArray(r.OutcomeTokenIDs)
		if err != nil {
			continue
		}
		for _, t := range tokens {
			tokenToMarket[t] = r.ID
		}
	}
	return tokenToMarket, nil
}

// CountClosedMarkets is used to decide whether the store is "fresh"
// (SPEC_FULL §4.1.1): a fresh store has never observed a closed market.
func (s *Store) CountClosedMarkets(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Market{}).Where("closed").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count closed markets: %w", err)
	}
	return count, nil
}

// ClobAuditCandidates selects up to limit markets that are active, open,
// and not archived, ordered by descending 24h volume — pass 1 of the CLOB
// tradability audit (SPEC_FULL §4.1.5).
func (s *Store) ClobAuditCandidates(ctx context.Context, limit int) ([]model.Market, error) {
	var markets []model.Market
	err := s.db.WithContext(ctx).
		Where("active AND NOT closed AND NOT archived").
		Order("volume_24h DESC").
		Limit(limit).
		Find(&markets).Error
	if err != nil {
		return nil, fmt.Errorf("select clob audit candidates: %w", err)
	}
	return markets, nil
}

// MixedEventOpenMarkets selects open markets belonging to events that have
// both open and closed markets locally — pass 1b, catching tail markets
// lingering as open.
func (s *Store) MixedEventOpenMarkets(ctx context.Context) ([]model.Market, error) {
	var markets []model.Market
	err := s.db.WithContext(ctx).
		Where(`active AND NOT closed AND NOT archived AND event_id IN (
			SELECT event_id FROM markets WHERE event_id IS NOT NULL
			GROUP BY event_id
			HAVING bool_or(closed) AND bool_or(NOT closed)
		)`).
		Find(&markets).Error
	if err != nil {
		return nil, fmt.Errorf("select mixed-event open markets: %w", err)
	}
	return markets, nil
}

// OpenMarketsForEvents returns every still-open market belonging to any of
// the given events — pass 2's propagation probe.
func (s *Store) OpenMarketsForEvents(ctx context.Context, eventIDs []string) ([]model.Market, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	var markets []model.Market
	err := s.db.WithContext(ctx).
		Where("active AND NOT closed AND NOT archived AND event_id IN ?", eventIDs).
		Find(&markets).Error
	if err != nil {
		return nil, fmt.Errorf("select open markets for events: %w", err)
	}
	return markets, nil
}

// CloseMarketsAndOrphanEvents is the single transaction that finalizes a
// CLOB audit pass: marks every market id in closedMarketIDs closed, then
// closes every event all of whose remaining linked markets are non-live.
func (s *Store) CloseMarketsAndOrphanEvents(ctx context.Context, closedMarketIDs []string) error {
	if len(closedMarketIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Model(&model.Market{}).
			Where("id IN ?", closedMarketIDs).
			Updates(map[string]interface{}{"closed": true, "active": false, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("close markets: %w", err)
		}

		if err := tx.Exec(`UPDATE events SET closed = true, active = false, updated_at = ?
			WHERE active AND NOT closed AND id IN (
				SELECT DISTINCT event_id FROM markets
				WHERE event_id IS NOT NULL AND event_id IN (
					SELECT event_id FROM markets WHERE id = ANY(?) AND event_id IS NOT NULL
				)
				GROUP BY event_id
				HAVING bool_and(closed OR archived OR NOT active)
			)`, now, closedMarketIDs).Error; err != nil {
			return fmt.Errorf("orphan events: %w", err)
		}
		return nil
	})
}

// ExpirationAudit runs the three pure-SQL deactivations of SPEC_FULL
// §4.1.6. Only open rows are touched; resolved/closed history is immutable.
func (s *Store) ExpirationAudit(ctx context.Context) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`UPDATE markets SET active = false, updated_at = ?
			WHERE active AND NOT closed AND end_date < ?`, now, now).Error; err != nil {
			return fmt.Errorf("expire markets: %w", err)
		}
		if err := tx.Exec(`UPDATE events SET active = false, updated_at = ?
			WHERE active AND NOT closed AND end_date < ?`, now, now).Error; err != nil {
			return fmt.Errorf("expire events: %w", err)
		}
		if err := tx.Exec(`UPDATE events SET active = false, updated_at = ?
			WHERE active AND NOT closed AND NOT EXISTS (
				SELECT 1 FROM markets
				WHERE markets.event_id = events.id
				AND markets.active AND NOT markets.closed AND NOT markets.archived
			)`, now).Error; err != nil {
			return fmt.Errorf("expire orphan events: %w", err)
		}
		return nil
	})
}

// ApplyWebSocketPriceUpdates merges a flush's per-market price updates into
// outcome_prices and bumps price_updated_at, without ever touching
// last_trade_price (SPEC_FULL §4.2.5).
func (s *Store) ApplyWebSocketPriceUpdates(ctx context.Context, marketID string, tokenPrices map[string]float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Market
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", marketID).Error; err != nil {
			return fmt.Errorf("load market %s: %w", marketID, err)
		}

		tokens, err := decodeStringArray(m.OutcomeTokenIDs)
		if err != nil {
			return fmt.Errorf("decode outcome_token_ids for %s: %w", marketID, err)
		}
		prices, err := decodeFloatArray(m.OutcomePrices)
		if err != nil {
			return fmt.Errorf("decode outcome_prices for %s: %w", marketID, err)
		}
		for len(prices) < len(tokens) {
			prices = append(prices, 0)
		}

		for tokenID, price := range tokenPrices {
			for i, t := range tokens {
				if t == tokenID {
					prices[i] = price
				}
			}
		}

		encoded, err := encodeFloatArray(prices)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Model(&model.Market{}).Where("id = ?", marketID).Updates(map[string]interface{}{
			"outcome_prices":   encoded,
			"price_updated_at": now,
		}).Error
	})
}
