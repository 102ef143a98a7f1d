package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/predimarket/indexer/internal/store/model"
	"github.com/predimarket/indexer/internal/upstream/catalog"
)

// InitialSync is the one-shot startup pass. A database is "fresh" when it
// has zero markets with closed=true: in that case both open and closed
// pages are pulled, since closed history has never been observed; a
// non-fresh database only needs closed=false pages, because closed rows
// are immutable once observed (SPEC_FULL §4.1.1).
func (m *Manager) InitialSync(ctx context.Context) error {
	count, err := m.store.CountClosedMarkets(ctx)
	if err != nil {
		return fmt.Errorf("check freshness: %w", err)
	}
	fresh := count == 0

	partitions := []bool{false}
	if fresh {
		partitions = append(partitions, true)
	}
	for _, closed := range partitions {
		if err := m.runMarketsSync(ctx, closed); err != nil {
			return fmt.Errorf("initial markets sync (closed=%v): %w", closed, err)
		}
	}
	for _, closed := range partitions {
		if err := m.runEventsSync(ctx, closed); err != nil {
			return fmt.Errorf("initial events sync (closed=%v): %w", closed, err)
		}
	}
	return nil
}

// runMarketsSync pages through the catalog's markets endpoint, upserting
// one page per transaction, then fires MarketsRefreshed once the whole
// sync (all pages) completes successfully.
func (m *Manager) runMarketsSync(ctx context.Context, includeClosed bool) error {
	_ = m.store.SetSyncState(ctx, "markets", "syncing", "", nil)

	offset := 0
	limit := m.cfg.MarketsBatchSize

	for {
		page, err := m.catalog.ListMarkets(ctx, includeClosed, limit, offset)
		if err != nil {
			_ = m.store.SetSyncState(ctx, "markets", "error", err.Error(), nil)
			return fmt.Errorf("list markets page at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		rows := make([]*model.Market, 0, len(page))
		for _, raw := range page {
			rows = append(rows, marketToModel(raw))
		}
		if err := m.store.UpsertMarkets(ctx, rows); err != nil {
			_ = m.store.SetSyncState(ctx, "markets", "error", err.Error(), nil)
			return fmt.Errorf("upsert markets page at offset %d: %w", offset, err)
		}

		if len(page) < limit {
			break
		}
		offset += limit
	}

	if err := m.cache.Invalidate(ctx, "*GET:/markets*"); err != nil {
		m.logger.WithError(err).Warn("cache invalidation failed after markets sync")
	}
	if err := m.cache.Invalidate(ctx, "*GET:/stats*"); err != nil {
		m.logger.WithError(err).Warn("cache invalidation failed after markets sync")
	}

	_ = m.store.SetSyncState(ctx, "markets", "idle", "", nil)
	m.signalMarketsRefreshed()
	return nil
}

func marketToModel(r catalog.RawMarket) *model.Market {
	outcomes, _ := json.Marshal(r.Outcomes())
	prices, _ := json.Marshal(r.OutcomePrices())
	tokens, _ := json.Marshal(r.ClobTokenIDs())

	return &model.Market{
		ID:              r.ID,
		ConditionID:     r.ConditionID,
		Question:        r.Question,
		Description:     r.Description,
		Slug:            r.Slug,
		Outcomes:        outcomes,
		OutcomeTokenIDs: tokens,
		OutcomePrices:   prices,
		BestBid:         r.BestBid,
		BestAsk:         r.BestAsk,
		Spread:          r.BestAsk - r.BestBid,
		Volume:          r.Volume,
		Volume24h:       r.Volume24h,
		Liquidity:       r.Liquidity,
		Category:        r.Category,
		EndDate:         parseTimePtr(r.EndDateISO),
		Active:          r.Active,
		Closed:          r.Closed,
		Archived:        r.Archived,
	}
}
