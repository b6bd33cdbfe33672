package model

import "github.com/shopspring/decimal"

// Fill is one match between an incoming order and a resting maker order.
// MakerFilled is the maker's cumulative filled quantity after this fill.
type Fill struct {
	OrderID     string          `json:"order_id"`
	TradeID     uint32          `json:"trade_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	MakerFilled decimal.Decimal `json:"filled_quantity"`
	MakerID     string          `json:"maker_id"`
	Price       decimal.Decimal `json:"price"`
}

// TradeUpdate is the tick published on the trade@{market} topic.
type TradeUpdate struct {
	Event    string          `json:"e"`
	TradeID  uint32          `json:"t"`
	Price    decimal.Decimal `json:"p"`
	Quantity decimal.Decimal `json:"q"`
	Symbol   string          `json:"s"`
}
