package model

import (
	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

// AskPriceLevel ascending
type AskPriceLevel struct {
	Price         decimal.Decimal
	Orders        []*model.Order
	TotalQuantity decimal.Decimal
}

func (pl *AskPriceLevel) Less(than btree.Item) bool {
	other := than.(*AskPriceLevel)
	return pl.Price.LessThan(other.Price)
}

// Append keeps arrival order (insertion order = time priority) and bumps the
// maintained aggregate by the order's unfilled quantity.
func (pl *AskPriceLevel) Append(order *model.Order) {
	pl.Orders = append(pl.Orders, order)
	pl.TotalQuantity = pl.TotalQuantity.Add(order.Unfilled())
}

// RemoveOrderByID removes the order and decrements the aggregate by its
// unfilled remainder.
func (pl *AskPriceLevel) RemoveOrderByID(orderID string) *model.Order {
	for i, order := range pl.Orders {
		if order.ID == orderID {
			pl.Orders = append(pl.Orders[:i], pl.Orders[i+1:]...)
			pl.TotalQuantity = pl.TotalQuantity.Sub(order.Unfilled())
			return order
		}
	}
	return nil
}

// BidPriceLevel descending
type BidPriceLevel struct {
	Price         decimal.Decimal
	Orders        []*model.Order
	TotalQuantity decimal.Decimal
}

func (pl *BidPriceLevel) Less(than btree.Item) bool {
	other := than.(*BidPriceLevel)
	return pl.Price.GreaterThan(other.Price) // Reverse
}

func (pl *BidPriceLevel) Append(order *model.Order) {
	pl.Orders = append(pl.Orders, order)
	pl.TotalQuantity = pl.TotalQuantity.Add(order.Unfilled())
}

func (pl *BidPriceLevel) RemoveOrderByID(orderID string) *model.Order {
	for i, order := range pl.Orders {
		if order.ID == orderID {
			pl.Orders = append(pl.Orders[:i], pl.Orders[i+1:]...)
			pl.TotalQuantity = pl.TotalQuantity.Sub(order.Unfilled())
			return order
		}
	}
	return nil
}
