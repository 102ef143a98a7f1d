// Package pricehistory fetches per-token historical price points used by
// the backfill manager. One token per call; binary-market doubling (the
// complementary 1-p series) is the backfill manager's concern, not this
// client's.
package pricehistory

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

// Interval is the history window the upstream API accepts.
type Interval string

const (
	IntervalMax Interval = "max"
	Interval1W  Interval = "1w"
	Interval1D  Interval = "1d"
	Interval6H  Interval = "6h"
	Interval1H  Interval = "1h"
)

// Point is a single history sample for one token.
type Point struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

type historyResponse struct {
	History []Point `json:"history"`
}

// History fetches the full series for tokenID over interval.
func (c *Client) History(ctx context.Context, tokenID string, interval Interval) ([]Point, error) {
	var resp historyResponse
	query := map[string]string{
		"market":   tokenID,
		"interval": string(interval),
	}
	if err := c.req.Get(ctx, "/prices-history", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("price history %s: %w", tokenID, err)
	}
	return resp.History, nil
}
