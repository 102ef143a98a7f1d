// Package clob probes the order-book service for live tradability. It
// never places or cancels orders; that surface is explicitly out of
// scope for an indexer.
package clob

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

type marketStatus struct {
	Closed          bool `json:"closed"`
	AcceptingOrders bool `json:"accepting_orders"`
	EnableOrderBook bool `json:"enable_order_book"`
}

var tradableRequiredFields = upstream.RequiredFields{"closed", "accepting_orders", "enable_order_book"}

// Tradable reports whether the CLOB still considers conditionID live. A
// market is considered closed if any of closed/accepting_orders=false/
// enable_order_book=false holds. The three fields are required: a 2xx body
// missing one of them fails validation instead of decoding to its zero
// value and being mistaken for a closed market.
func (c *Client) Tradable(ctx context.Context, conditionID string) (bool, error) {
	var status marketStatus
	err := c.req.Get(ctx, "/markets/"+conditionID, nil, tradableRequiredFields, &status)
	if err != nil {
		return false, fmt.Errorf("clob tradability probe %s: %w", conditionID, err)
	}
	if status.Closed || !status.AcceptingOrders || !status.EnableOrderBook {
		return false, nil
	}
	return true, nil
}
