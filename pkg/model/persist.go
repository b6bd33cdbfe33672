package model

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "Open"
	OrderStatusFilled    OrderStatus = "Filled"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

type DBMessageKind string

const (
	DBAddTrade           DBMessageKind = "ADD_TRADE"
	DBAddAndUpdateOrders DBMessageKind = "ADD_AND_UPDATE_ORDERS"
	DBUpdateCancelOrders DBMessageKind = "UPDATE_CANCEL_ORDERS"
)

// TradeRow is one executed trade bound for the trades table.
type TradeRow struct {
	TradeID       uint32          `json:"id"`
	Market        string          `json:"market"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	QuoteQuantity decimal.Decimal `json:"quote_qty"`
	Timestamp     int64           `json:"timestamp"`
}

// OrderRow is a freshly placed order bound for the orders table.
type OrderRow struct {
	OrderID        string          `json:"order_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	Price          decimal.Decimal `json:"price"`
	Side           Side            `json:"side"`
	Status         OrderStatus     `json:"status"`
}

// OrderUpdate adjusts the fill progress of an already stored order.
type OrderUpdate struct {
	OrderID        string          `json:"order_id"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	Status         OrderStatus     `json:"status"`
}

// DBMessage is the tagged union pushed on the persistence queue.
type DBMessage struct {
	Kind           DBMessageKind `json:"kind"`
	Trades         []TradeRow    `json:"trades,omitempty"`
	AddOrder       *OrderRow     `json:"add_order,omitempty"`
	UpdateOrders   []OrderUpdate `json:"update_orders,omitempty"`
	CancelOrderIDs []string      `json:"cancel_order_ids,omitempty"`
}
