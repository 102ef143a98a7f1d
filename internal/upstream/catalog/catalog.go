// Package catalog is the paginated Events/Markets client. It decodes the
// upstream's JSON-string-encoded array fields (outcomes, outcome_prices,
// clob_token_ids) tolerating malformed values with documented fallbacks,
// since the exchange occasionally ships empty or truncated strings here.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/predimarket/indexer/internal/upstream"
)

// Client fetches event and market pages from the catalog API.
type Client struct {
	req *upstream.Requester
}

func New(req *upstream.Requester) *Client {
	return &Client{req: req}
}

// RawMarket mirrors the catalog's market shape. Outcomes/OutcomePrices/
// ClobTokenIds arrive as JSON-encoded strings, not native arrays.
type RawMarket struct {
	ID               string  `json:"id"`
	ConditionID      string  `json:"conditionId"`
	Question         string  `json:"question"`
	Description      string  `json:"description"`
	Slug             string  `json:"slug"`
	OutcomesRaw      string  `json:"outcomes"`
	OutcomePricesRaw string  `json:"outcomePrices"`
	ClobTokenIds     string  `json:"clobTokenIds"`
	BestBid          float64 `json:"bestBid"`
	BestAsk          float64 `json:"bestAsk"`
	Volume           float64 `json:"volumeNum"`
	Volume24h        float64 `json:"volume24hr"`
	Liquidity        float64 `json:"liquidityNum"`
	Category         string  `json:"category"`
	EndDateISO       string  `json:"endDateIso"`
	Active           bool    `json:"active"`
	Closed           bool    `json:"closed"`
	Archived         bool    `json:"archived"`
	AcceptingOrders  bool    `json:"acceptingOrders"`
	EnableOrderBook  bool    `json:"enableOrderBook"`
}

// RawEvent mirrors the catalog's event shape, with an optional nested set
// of child markets used for the event->market linkage pass.
type RawEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Icon        string      `json:"icon"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Volume      float64     `json:"volume"`
	Volume24h   float64     `json:"volume24hr"`
	Liquidity   float64     `json:"liquidity"`
	Active      bool        `json:"active"`
	Closed      bool        `json:"closed"`
	Archived    bool        `json:"archived"`
	Tags        []Tag       `json:"tags"`
	Markets     []RawMarket `json:"markets"`
}

type Tag struct {
	Label string `json:"label"`
}

// ListEvents fetches one page of events. closed selects the closed=true /
// closed=false partition the batch sync manager pages through separately.
func (c *Client) ListEvents(ctx context.Context, closed bool, limit, offset int) ([]RawEvent, error) {
	var out []RawEvent
	query := map[string]string{
		"closed": boolStr(closed),
		"limit":  intStr(limit),
		"offset": intStr(offset),
	}
	if err := c.req.Get(ctx, "/events", query, nil, &out); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// ListMarkets fetches one page of markets.
func (c *Client) ListMarkets(ctx context.Context, closed bool, limit, offset int) ([]RawMarket, error) {
	var out []RawMarket
	query := map[string]string{
		"closed": boolStr(closed),
		"limit":  intStr(limit),
		"offset": intStr(offset),
	}
	if err := c.req.Get(ctx, "/markets", query, nil, &out); err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	return out, nil
}

// Outcomes decodes m.OutcomesRaw, falling back to a binary Yes/No market when
// the field is empty or unparsable.
func (m RawMarket) Outcomes() []string {
	if v, ok := decodeStringArray(m.OutcomesRaw); ok {
		return v
	}
	return []string{"Yes", "No"}
}

// OutcomePrices decodes m.OutcomePricesRaw as floats, falling back to an even
// split across Outcomes() when empty or unparsable.
func (m RawMarket) OutcomePrices() []float64 {
	if raw, ok := decodeStringArray(m.OutcomePricesRaw); ok {
		out := make([]float64, 0, len(raw))
		for _, s := range raw {
			out = append(out, parseFloatLenient(s))
		}
		return out
	}
	outcomes := m.Outcomes()
	even := 1.0 / float64(len(outcomes))
	out := make([]float64, len(outcomes))
	for i := range out {
		out[i] = even
	}
	return out
}

// ClobTokenIDs decodes m.ClobTokenIds, returning nil (not a placeholder)
// when unparsable — there is no sane fallback token id.
func (m RawMarket) ClobTokenIDs() []string {
	v, _ := decodeStringArray(m.ClobTokenIds)
	return v
}

func decodeStringArray(s string) ([]string, bool) {
	if s == "" || s == "null" {
		return nil, false
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}

func parseFloatLenient(s string) float64 {
	var f float64
	_, _ = fmt.Sscanf(s, "%g", &f)
	return f
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func intStr(n int) string { return fmt.Sprintf("%d", n) }
