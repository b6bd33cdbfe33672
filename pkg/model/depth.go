package model

import "github.com/shopspring/decimal"

// PriceLevelEntry is a (price, open quantity) pair.
type PriceLevelEntry [2]decimal.Decimal

// DepthResponse is a full projection of a market's book, bids best-first
// (descending price), asks best-first (ascending price).
type DepthResponse struct {
	Bids []PriceLevelEntry `json:"bids"`
	Asks []PriceLevelEntry `json:"asks"`
}

// DepthUpdate is the incremental delta published on depth@{market}: only the
// price levels whose open quantity changed, with their new totals (zero means
// the level is gone).
type DepthUpdate struct {
	Bids []PriceLevelEntry `json:"bids"`
	Asks []PriceLevelEntry `json:"asks"`
}

func (d *DepthUpdate) IsEmpty() bool {
	return len(d.Bids) == 0 && len(d.Asks) == 0
}
