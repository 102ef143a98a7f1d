// Package trades is the global trades-feed client used for recent trade
// ingestion. The feed is exchange-wide; filtering down to tracked tokens
// happens client-side in internal/sync.
package trades

import (
	"context"
	"fmt"

	"github.com/predimarket/indexer/internal/upstream"
)

type Client struct {
	req *upstream.Requester
}

func New(req *upstream.Requester) *Client {
	return &Client{req: req}
}

// Trade is one fill reported by the global feed. TransactionHash and
// ProxyWallet feed the deterministic trade-id hash alongside Asset/Side/
// Price/Size/Timestamp; the feed does not always supply a stable id of
// its own.
type Trade struct {
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	Price           float64 `json:"price"`
	Size            float64 `json:"size"`
	Timestamp       int64   `json:"timestamp"`
	TransactionHash string  `json:"transactionHash"`
	ProxyWallet     string  `json:"proxyWallet"`
}

// Recent fetches one page of the global trades feed, most recent first.
func (c *Client) Recent(ctx context.Context, limit, offset int) ([]Trade, error) {
	var out []Trade
	query := map[string]string{
		"limit":  fmt.Sprintf("%d", limit),
		"offset": fmt.Sprintf("%d", offset),
	}
	if err := c.req.Get(ctx, "/trades", query, nil, &out); err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}
	return out, nil
}
