package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/predimarket/indexer/internal/store/model"
)

// SetSyncState upserts the single aggregate row for a tracked entity
// ("events", "markets", "trades", "prices", "clob_audit"). Consumers of the
// out-of-scope query API read this to report staleness and health.
func (s *Store) SetSyncState(ctx context.Context, entity, status string, errMsg string, metadata datatypes.JSON) error {
	now := time.Now().UTC()
	row := &model.SyncState{
		Entity:     entity,
		Status:     status,
		LastSyncAt: &now,
		ErrorMsg:   errMsg,
		Metadata:   metadata,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_sync_at", "error_msg", "metadata", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("set sync state for %s: %w", entity, err)
	}
	return nil
}

// SetSyncStatusOnly updates just the status column, leaving last_sync_at
// untouched — used by the realtime manager's connected/disconnected
// aggregate, which is not a "sync completed" event.
func (s *Store) SetSyncStatusOnly(ctx context.Context, entity, status string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&model.SyncState{Entity: entity, Status: status}).Error
	if err != nil {
		return fmt.Errorf("set sync status for %s: %w", entity, err)
	}
	return nil
}

// SyncStates returns every tracked entity's current row, for
// Orchestrator.Status().
func (s *Store) SyncStates(ctx context.Context) ([]model.SyncState, error) {
	var states []model.SyncState
	if err := s.db.WithContext(ctx).Find(&states).Error; err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}
	return states, nil
}
