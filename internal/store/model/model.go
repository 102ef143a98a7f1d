// Package model holds the GORM row types the indexer mirrors the upstream
// catalog, CLOB, and price feed into. Rows are never deleted except by the
// retention sweep (price samples, trades); events and markets live forever
// once observed.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// Event is the aggregate container a Market optionally belongs to.
type Event struct {
	ID           string         `gorm:"primaryKey;column:id"`
	Title        string         `gorm:"column:title"`
	Slug         string         `gorm:"column:slug;index"`
	Description  string         `gorm:"column:description"`
	Images       datatypes.JSON `gorm:"column:images"`
	StartDate    *time.Time     `gorm:"column:start_date"`
	EndDate      *time.Time     `gorm:"column:end_date;index"`
	Volume       float64        `gorm:"column:volume"`
	Volume24h    float64        `gorm:"column:volume_24h;index"`
	Liquidity    float64        `gorm:"column:liquidity"`
	Active       bool           `gorm:"column:active;index:idx_event_lifecycle"`
	Closed       bool           `gorm:"column:closed;index:idx_event_lifecycle"`
	Archived     bool           `gorm:"column:archived;index:idx_event_lifecycle"`
	Tags         datatypes.JSON `gorm:"column:tags"`
	SearchVector string         `gorm:"column:search_vector"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Event) TableName() string { return "events" }

// Market is a binary or N-outcome market, optionally owned by an Event.
// Outcomes/OutcomeTokenIDs/OutcomePrices are parallel arrays of equal
// length, stored as JSON arrays rather than separate tables: the upstream
// catalog itself represents them this way and the indexer never queries
// across outcomes, only within one market at a time.
type Market struct {
	ID                 string         `gorm:"primaryKey;column:id"`
	EventID            *string        `gorm:"column:event_id;index"`
	ConditionID        string         `gorm:"column:condition_id;uniqueIndex"`
	Question           string         `gorm:"column:question"`
	Description        string         `gorm:"column:description"`
	Slug               string         `gorm:"column:slug"`
	Outcomes           datatypes.JSON `gorm:"column:outcomes"`
	OutcomeTokenIDs    datatypes.JSON `gorm:"column:outcome_token_ids"`
	OutcomePrices      datatypes.JSON `gorm:"column:outcome_prices"`
	BestBid            float64        `gorm:"column:best_bid"`
	BestAsk            float64        `gorm:"column:best_ask"`
	Spread             float64        `gorm:"column:spread"`
	LastTradePrice      *float64      `gorm:"column:last_trade_price"`
	Volume             float64        `gorm:"column:volume"`
	Volume24h          float64        `gorm:"column:volume_24h;index"`
	Liquidity          float64        `gorm:"column:liquidity"`
	Category           string         `gorm:"column:category"`
	EndDate            *time.Time     `gorm:"column:end_date;index"`
	Active             bool           `gorm:"column:active;index:idx_market_lifecycle"`
	Closed             bool           `gorm:"column:closed;index:idx_market_lifecycle"`
	Archived           bool           `gorm:"column:archived;index:idx_market_lifecycle"`
	Resolved           bool           `gorm:"column:resolved"`
	WinningOutcomeIndex *int          `gorm:"column:winning_outcome_index"`
	SearchVector       string         `gorm:"column:search_vector"`
	PriceUpdatedAt     *time.Time     `gorm:"column:price_updated_at"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Market) TableName() string { return "markets" }

// PriceSample is a single (market, token, instant) price point.
type PriceSample struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement;column:id"`
	MarketID string    `gorm:"column:market_id;uniqueIndex:idx_price_sample_identity;index:idx_price_sample_market_instant"`
	TokenID  string    `gorm:"column:token_id;uniqueIndex:idx_price_sample_identity"`
	Instant  time.Time `gorm:"column:instant;uniqueIndex:idx_price_sample_identity;index:idx_price_sample_market_instant"`
	Price    float64   `gorm:"column:price"`
	Source   string    `gorm:"column:source;uniqueIndex:idx_price_sample_identity"` // "clob" | "websocket"
}

func (PriceSample) TableName() string { return "price_samples" }

// Trade is an append-only execution row, keyed by a deterministic
// content hash (see internal/sync's trade ingestion).
type Trade struct {
	ID              string    `gorm:"primaryKey;column:id"`
	MarketID        string    `gorm:"column:market_id;index:idx_trade_market_time"`
	TokenID         string    `gorm:"column:token_id"`
	Side            string    `gorm:"column:side"`
	Price           float64   `gorm:"column:price"`
	Size            float64   `gorm:"column:size"`
	TransactionHash string    `gorm:"column:transaction_hash"`
	ProxyWallet     string    `gorm:"column:proxy_wallet"`
	ExecutedAt      time.Time `gorm:"column:executed_at;index:idx_trade_market_time"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Trade) TableName() string { return "trades" }

// SyncState is the one row per tracked entity ("events", "markets",
// "trades", "prices", "clob_audit") that the out-of-scope query API reads
// to report staleness and health.
type SyncState struct {
	Entity      string         `gorm:"primaryKey;column:entity"`
	Status      string         `gorm:"column:status"` // idle|syncing|error|connected|disconnected|disabled
	LastSyncAt  *time.Time     `gorm:"column:last_sync_at"`
	Metadata    datatypes.JSON `gorm:"column:metadata"`
	ErrorMsg    string         `gorm:"column:error_msg"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (SyncState) TableName() string { return "sync_states" }

// AllModels is passed to AutoMigrate by store.Open at startup; this is the schema-verification step SPEC_FULL §7 requires to
// be fatal on failure.
func AllModels() []interface{} {
	return []interface{}{
		&Event{},
		&Market{},
		&PriceSample{},
		&Trade{},
		&SyncState{},
	}
}
