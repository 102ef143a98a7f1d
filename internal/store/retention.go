package store

import (
	"context"
	"fmt"
	"time"

	"github.com/predimarket/indexer/internal/store/model"
)

const retentionChunkSize = 5000
const retentionChunkPause = 100 * time.Millisecond

// PrunePriceSamples deletes price samples older than the retention window
// in chunks, pausing between chunks to avoid holding locks for long.
func (s *Store) PrunePriceSamples(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.pruneChunked(ctx, model.PriceSample{}.TableName(), "instant", olderThan)
}

// PruneTrades deletes trades older than the retention window, same
// chunking policy as price samples. Only called when trade ingestion is
// enabled.
func (s *Store) PruneTrades(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.pruneChunked(ctx, model.Trade{}.TableName(), "executed_at", olderThan)
}

// pruneChunked deletes in batches of retentionChunkSize. Postgres doesn't
// support LIMIT on DELETE directly, so the chunk is selected by ctid first
// and the delete targets that set.
func (s *Store) pruneChunked(ctx context.Context, table, column string, olderThan time.Time) (int64, error) {
	query := fmt.Sprintf(
		`DELETE FROM %s WHERE ctid IN (SELECT ctid FROM %s WHERE %s < ? LIMIT ?)`,
		table, table, column,
	)

	var total int64
	for {
		res := s.db.WithContext(ctx).Exec(query, olderThan, retentionChunkSize)
		if res.Error != nil {
			return total, fmt.Errorf("prune chunk: %w", res.Error)
		}
		total += res.RowsAffected
		if res.RowsAffected < retentionChunkSize {
			return total, nil
		}
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(retentionChunkPause):
		}
	}
}
