package sync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/predimarket/indexer/internal/store/model"
)

// AuditClobTradability reconciles the catalog's optimistic active/closed
// flags against what the CLOB actually serves (SPEC_FULL §4.1.5). Worker
// concurrency is bounded with errgroup.SetLimit, but per-market probe
// failures are swallowed rather than returned to the group: one bad probe
// must never abort the rest of the audit, so the group here is used purely
// for bounded concurrency + completion, not error aggregation.
func (m *Manager) AuditClobTradability(ctx context.Context) error {
	candidates, err := m.store.ClobAuditCandidates(ctx, m.cfg.ClobAuditBatchSize)
	if err != nil {
		return fmt.Errorf("load clob audit candidates: %w", err)
	}
	mixed, err := m.store.MixedEventOpenMarkets(ctx)
	if err != nil {
		return fmt.Errorf("load mixed-event open markets: %w", err)
	}

	pass1 := dedupeMarkets(candidates, mixed)
	closedIDs, touchedEvents := m.probeAll(ctx, pass1)

	if len(touchedEvents) > 0 {
		propagation, err := m.store.OpenMarketsForEvents(ctx, setToSlice(touchedEvents))
		if err != nil {
			return fmt.Errorf("load propagation candidates: %w", err)
		}
		moreClosedIDs, _ := m.probeAll(ctx, propagation)
		closedIDs = append(closedIDs, moreClosedIDs...)
	}

	if len(closedIDs) == 0 {
		return nil
	}

	if err := m.store.CloseMarketsAndOrphanEvents(ctx, closedIDs); err != nil {
		return fmt.Errorf("close markets and orphan events: %w", err)
	}

	for _, pattern := range []string{"*GET:/markets*", "*GET:/events*", "*GET:/stats*"} {
		if err := m.cache.Invalidate(ctx, pattern); err != nil {
			m.logger.WithError(err).Warn("cache invalidation failed after clob audit")
		}
	}
	return nil
}

// probeAll runs the CLOB tradability probe for every candidate with a
// bounded worker pool, returning the ids found closed and the set of event
// ids they belong to (for the pass-2 propagation probe).
func (m *Manager) probeAll(ctx context.Context, candidates []model.Market) ([]string, map[string]struct{}) {
	type result struct {
		marketID string
		eventID  string
		closed   bool
	}
	results := make(chan result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.ClobAuditConcurrency)

	for _, mkt := range candidates {
		mkt := mkt
		g.Go(func() error {
			tradable, err := m.clob.Tradable(gctx, mkt.ConditionID)
			if err != nil {
				m.logger.WithError(err).Warnf("clob probe failed for market %s", mkt.ID)
				return nil
			}
			eventID := ""
			if mkt.EventID != nil {
				eventID = *mkt.EventID
			}
			results <- result{marketID: mkt.ID, eventID: eventID, closed: !tradable}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	var closedIDs []string
	events := make(map[string]struct{})
	for r := range results {
		if !r.closed {
			continue
		}
		closedIDs = append(closedIDs, r.marketID)
		if r.eventID != "" {
			events[r.eventID] = struct{}{}
		}
	}
	return closedIDs, events
}

func dedupeMarkets(lists ...[]model.Market) []model.Market {
	seen := make(map[string]struct{})
	var out []model.Market
	for _, list := range lists {
		for _, mkt := range list {
			if _, ok := seen[mkt.ID]; ok {
				continue
			}
			seen[mkt.ID] = struct{}{}
			out = append(out, mkt)
		}
	}
	return out
}

func setToSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
