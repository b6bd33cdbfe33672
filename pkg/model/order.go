package model

import (
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderType string

const (
	OrderTypeLimit  OrderType = "Limit"
	OrderTypeMarket OrderType = "Market"
)

// Fixed fractional scales applied to every incoming price and quantity
// before they touch matching or balance math.
const (
	PriceScale    int32 = 9
	QuantityScale int32 = 6
)

// Order is a resting or incoming order. Identity is ID alone; Quantity is
// immutable after creation and Filled only ever grows.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Side      Side            `json:"side"`
	Market    string          `json:"market"`
	OrderType OrderType       `json:"order_type"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Filled    decimal.Decimal `json:"filled"`
}

func NewOrder(payload CreateOrderPayload) Order {
	return Order{
		ID:        payload.ID,
		UserID:    payload.UserID,
		Side:      payload.Side,
		Market:    payload.Market,
		OrderType: payload.OrderType,
		Price:     payload.Price.Truncate(PriceScale),
		Quantity:  payload.Quantity.Truncate(QuantityScale),
		Filled:    decimal.Zero,
	}
}

func (o *Order) Unfilled() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

func (o *Order) IsFilled() bool {
	return o.Filled.GreaterThanOrEqual(o.Quantity)
}
