package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ErrorEnvelope carries a typed engine error back to the caller.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Reply is the envelope published on the correlation channel: exactly one of
// Data and Error is set.
type Reply struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorEnvelope `json:"error,omitempty"`
}

func OkReply(data any) Reply {
	return Reply{Data: data}
}

func ErrReply(code, message string) Reply {
	return Reply{Error: &ErrorEnvelope{Code: code, Message: message}}
}

// RawReply is the caller-side view of Reply, with the payload left undecoded.
type RawReply struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorEnvelope  `json:"error,omitempty"`
}

type OrderFill struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	TradeID  uint32          `json:"trade_id"`
}

type OrderPlacedResponse struct {
	OrderID          string          `json:"order_id"`
	ExecutedQuantity decimal.Decimal `json:"executed_quantity"`
	Fills            []OrderFill     `json:"fills"`
}

type OrderCancelledResponse struct {
	OrderID          string          `json:"order_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ExecutedQuantity decimal.Decimal `json:"executed_quantity"`
	Side             Side            `json:"side"`
}

type CancelledOrder struct {
	OrderID          string          `json:"order_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ExecutedQuantity decimal.Decimal `json:"executed_quantity"`
	Side             Side            `json:"side"`
	Price            decimal.Decimal `json:"price"`
}

type OrdersCancelledResponse = []CancelledOrder

type OpenOrder struct {
	OrderID          string          `json:"order_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ExecutedQuantity decimal.Decimal `json:"executed_quantity"`
	Side             Side            `json:"side"`
	Price            decimal.Decimal `json:"price"`
}

type AllOpenOrdersResponse = []OpenOrder

type AssetAndBalance struct {
	Asset   string `json:"asset"`
	Balance uint64 `json:"balance"`
}

type UserBalanceResponse struct {
	UserID   string            `json:"user_id"`
	Balances []AssetAndBalance `json:"balances"`
}
