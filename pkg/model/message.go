package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type MessageKind string

const (
	MessageCreateOrder      MessageKind = "CREATE_ORDER"
	MessageCancelOrder      MessageKind = "CANCEL_ORDER"
	MessageCancelAllOrders  MessageKind = "CANCEL_ALL_ORDERS"
	MessageGetAllOpenOrders MessageKind = "GET_ALL_OPEN_ORDERS"
	MessageGetDepth         MessageKind = "GET_DEPTH"
)

type CreateOrderPayload struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Side      Side            `json:"side"`
	Market    string          `json:"market"`
	OrderType OrderType       `json:"order_type"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type CancelOrderPayload struct {
	Market  string `json:"market"`
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

type CancelAllOrdersPayload struct {
	Market string `json:"market"`
	UserID string `json:"user_id"`
}

type OpenOrdersPayload struct {
	Market string `json:"market"`
	UserID string `json:"user_id"`
}

type GetDepthPayload struct {
	Market string `json:"market"`
}

// MessageFromAPI is the tagged request union pushed on the order queue.
// Exactly one payload field matching Kind is set.
type MessageFromAPI struct {
	Kind             MessageKind             `json:"kind"`
	CreateOrder      *CreateOrderPayload     `json:"create_order,omitempty"`
	CancelOrder      *CancelOrderPayload     `json:"cancel_order,omitempty"`
	CancelAllOrders  *CancelAllOrdersPayload `json:"cancel_all_orders,omitempty"`
	GetAllOpenOrders *OpenOrdersPayload      `json:"get_all_open_orders,omitempty"`
	GetDepth         *GetDepthPayload        `json:"get_depth,omitempty"`
}

// Market resolves the target market of the message.
func (m *MessageFromAPI) Market() (string, error) {
	switch m.Kind {
	case MessageCreateOrder:
		if m.CreateOrder == nil {
			return "", fmt.Errorf("missing create_order payload")
		}
		return m.CreateOrder.Market, nil
	case MessageCancelOrder:
		if m.CancelOrder == nil {
			return "", fmt.Errorf("missing cancel_order payload")
		}
		return m.CancelOrder.Market, nil
	case MessageCancelAllOrders:
		if m.CancelAllOrders == nil {
			return "", fmt.Errorf("missing cancel_all_orders payload")
		}
		return m.CancelAllOrders.Market, nil
	case MessageGetAllOpenOrders:
		if m.GetAllOpenOrders == nil {
			return "", fmt.Errorf("missing get_all_open_orders payload")
		}
		return m.GetAllOpenOrders.Market, nil
	case MessageGetDepth:
		if m.GetDepth == nil {
			return "", fmt.Errorf("missing get_depth payload")
		}
		return m.GetDepth.Market, nil
	}
	return "", fmt.Errorf("unknown message kind: %q", m.Kind)
}

// ReplyChannel is the pub/sub correlation key the caller subscribed on.
func (m *MessageFromAPI) ReplyChannel() string {
	switch m.Kind {
	case MessageCreateOrder:
		return m.CreateOrder.ID
	case MessageCancelOrder:
		return m.CancelOrder.OrderID
	case MessageCancelAllOrders:
		return m.CancelAllOrders.UserID
	case MessageGetAllOpenOrders:
		return m.GetAllOpenOrders.UserID
	case MessageGetDepth:
		return m.GetDepth.Market
	}
	return ""
}

type UserMessageKind string

const (
	UserMessageGetBalance UserMessageKind = "GET_BALANCE"
)

// UserMessageFromAPI is the union for user-scoped queries that bypass the
// per-market workers.
type UserMessageFromAPI struct {
	Kind   UserMessageKind `json:"kind"`
	UserID string          `json:"user_id"`
}

// ReplyChannel for user queries is derived from the user id.
func (m *UserMessageFromAPI) ReplyChannel() string {
	return m.UserID + "-balance"
}
