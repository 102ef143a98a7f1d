package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/predimarket/indexer/internal/store/model"
)

// UpsertEvents applies one page of catalog events as a single batched
// upsert. closed/archived are OR-merged with the existing row (monotonic);
// active is recomputed from the merged closed/archived; every other scalar
// field is overwritten with the incoming value. event_id on markets is
// never touched here — see LinkMarketsToEvents.
func (s *Store) UpsertEvents(ctx context.Context, events []*model.Event) error {
	if len(events) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "slug", "description", "images", "start_date", "end_date",
				"volume", "volume_24h", "liquidity", "tags",
			}),
		}).Create(&events).Error; err != nil {
			return fmt.Errorf("upsert events: %w", err)
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := mergeMonotonicFlags(tx, "events", ids, events, func(e *model.Event) (closed, archived, active bool) {
			return e.Closed, e.Archived, e.Active
		}); err != nil {
			return err
		}

		if err := recomputeSearchVector(tx, "events", ids, "title", "description"); err != nil {
			return err
		}
		return nil
	})
}

// LinkMarketsToEvents applies (market_id, event_id) pairs collected while
// walking a page of events' nested child-market arrays. Applied in chunks
// of <=5000 via UPDATE ... FROM (VALUES ...), after all event pages in the
// current sync have committed (SPEC_FULL §4.1.4, §5 ordering guarantee).
func (s *Store) LinkMarketsToEvents(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	const chunkSize = 5000

	keys := make([]string, 0, len(pairs))
	for marketID := range pairs {
		keys = append(keys, marketID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(keys); start += chunkSize {
			end := start + chunkSize
			if end > len(keys) {
				end = len(keys)
			}
			chunk := keys[start:end]

			values := make([]interface{}, 0, len(chunk)*2)
			placeholders := ""
			for i, marketID := range chunk {
				if i > 0 {
					placeholders += ","
				}
				placeholders += "(?,?)"
				values = append(values, marketID, pairs[marketID])
			}

			sql := fmt.Sprintf(`UPDATE markets SET event_id = v.event_id
				FROM (VALUES %s) AS v(market_id, event_id)
				WHERE markets.id = v.market_id`, placeholders)
			if err := tx.Exec(sql, values...).Error; err != nil {
				return fmt.Errorf("link markets to events: %w", err)
			}
		}
		return nil
	})
}

// mergeMonotonicFlags OR-merges closed/archived with the row's prior value
// and recomputes active, for either the events or markets table. GORM's
// OnConflict.DoUpdates only supports "take incoming value", so the OR-merge
// itself is a second statement run inside the same transaction as the
// overwrite upsert above — a single batched multi-row UPDATE ... FROM
// (VALUES ...), chunked the same way LinkMarketsToEvents is.
func mergeMonotonicFlags[T any](tx *gorm.DB, table string, ids []string, rows []T, extract func(T) (closed, archived, active bool)) error {
	const chunkSize = 5000
	now := time.Now().UTC()

	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}

		values := make([]interface{}, 0, (end-start)*4)
		placeholders := ""
		for i := start; i < end; i++ {
			closed, archived, active := extract(rows[i])
			if i > start {
				placeholders += ","
			}
			placeholders += "(?,?,?,?)"
			values = append(values, ids[i], closed, archived, active)
		}

		sql := fmt.Sprintf(`UPDATE %s SET
			closed = %s.closed OR v.closed,
			archived = %s.archived OR v.archived,
			active = CASE WHEN (%s.closed OR v.closed OR %s.archived OR v.archived) THEN false ELSE v.active END,
			updated_at = ?
			FROM (VALUES %s) AS v(id, closed, archived, active)
			WHERE %s.id = v.id`, table, table, table, table, table, placeholders, table)

		args := append([]interface{}{now}, values...)
		if err := tx.Exec(sql, args...).Error; err != nil {
			return fmt.Errorf("merge monotonic flags on %s: %w", table, err)
		}
	}
	return nil
}

// recomputeSearchVector maintains a plain-text search column (full-text
// search itself is an out-of-scope external collaborator; only the column
// is kept current so that collaborator has something to index).
func recomputeSearchVector(tx *gorm.DB, table string, ids []string, cols ...string) error {
	expr := "coalesce(" + cols[0] + ", '')"
	for _, c := range cols[1:] {
		expr += " || ' ' || coalesce(" + c + ", '')"
	}
	sql := fmt.Sprintf("UPDATE %s SET search_vector = to_tsvector('english', %s)::text WHERE id = ANY(?)", table, expr)
	return tx.Exec(sql, ids).Error
}
