package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/predimarket/indexer/internal/store/model"
	"github.com/predimarket/indexer/internal/upstream/catalog"
)

// runEventsSync pages through the catalog's events endpoint, upserting one
// page at a time and collecting every nested child market's (market_id,
// event_id) pair. Linkage is applied once, after every page has committed,
// so a market observed on an earlier page still gets linked even if its
// event arrives on a later page.
func (m *Manager) runEventsSync(ctx context.Context, includeClosed bool) error {
	_ = m.store.SetSyncState(ctx, "events", "syncing", "", nil)

	pairs := make(map[string]string)
	missingChildren := 0
	offset := 0
	limit := m.cfg.MarketsBatchSize

	for {
		page, err := m.catalog.ListEvents(ctx, includeClosed, limit, offset)
		if err != nil {
			_ = m.store.SetSyncState(ctx, "events", "error", err.Error(), nil)
			return fmt.Errorf("list events page at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		rows := make([]*model.Event, 0, len(page))
		for _, e := range page {
			rows = append(rows, eventToModel(e))
			if len(e.Markets) == 0 {
				missingChildren++
				continue
			}
			for _, child := range e.Markets {
				pairs[child.ID] = e.ID
			}
		}

		if err := m.store.UpsertEvents(ctx, rows); err != nil {
			_ = m.store.SetSyncState(ctx, "events", "error", err.Error(), nil)
			return fmt.Errorf("upsert events page at offset %d: %w", offset, err)
		}

		if len(page) < limit {
			break
		}
		offset += limit
	}

	if missingChildren > 0 {
		m.logger.Warnf("%d events had no nested market children", missingChildren)
	}

	if err := m.store.LinkMarketsToEvents(ctx, pairs); err != nil {
		_ = m.store.SetSyncState(ctx, "events", "error", err.Error(), nil)
		return fmt.Errorf("link markets to events: %w", err)
	}

	if err := m.cache.Invalidate(ctx, "*GET:/events*"); err != nil {
		m.logger.WithError(err).Warn("cache invalidation failed after events sync")
	}
	if err := m.cache.Invalidate(ctx, "*GET:/stats*"); err != nil {
		m.logger.WithError(err).Warn("cache invalidation failed after events sync")
	}

	_ = m.store.SetSyncState(ctx, "events", "idle", "", nil)
	return nil
}

func eventToModel(e catalog.RawEvent) *model.Event {
	tags := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		tags = append(tags, t.Label)
	}
	tagsJSON, _ := json.Marshal(tags)
	images, _ := json.Marshal(map[string]string{"image": e.Image, "icon": e.Icon})

	return &model.Event{
		ID:          e.ID,
		Title:       e.Title,
		Slug:        e.Slug,
		Description: e.Description,
		Images:      images,
		StartDate:   parseTimePtr(e.StartDate),
		EndDate:     parseTimePtr(e.EndDate),
		Volume:      e.Volume,
		Volume24h:   e.Volume24h,
		Liquidity:   e.Liquidity,
		Active:      e.Active,
		Closed:      e.Closed,
		Archived:    e.Archived,
		Tags:        tagsJSON,
	}
}
