package model

import (
	"testing"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exchange "github.com/Yusufzhafir/go-exchange/pkg/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func restingOrder(id, quantity string) *exchange.Order {
	return &exchange.Order{ID: id, Quantity: d(quantity)}
}

func TestAskLevelsAscendBestFirst(t *testing.T) {
	tree := btree.New(8)
	for _, price := range []string{"12", "10", "11"} {
		tree.ReplaceOrInsert(&AskPriceLevel{Price: d(price)})
	}

	var got []string
	tree.Ascend(func(item btree.Item) bool {
		got = append(got, item.(*AskPriceLevel).Price.String())
		return true
	})
	assert.Equal(t, []string{"10", "11", "12"}, got)
}

func TestBidLevelsAscendBestFirst(t *testing.T) {
	tree := btree.New(8)
	for _, price := range []string{"8", "10", "9"} {
		tree.ReplaceOrInsert(&BidPriceLevel{Price: d(price)})
	}

	var got []string
	tree.Ascend(func(item btree.Item) bool {
		got = append(got, item.(*BidPriceLevel).Price.String())
		return true
	})
	// reversed Less puts the highest bid first
	assert.Equal(t, []string{"10", "9", "8"}, got)
}

func TestAppendMaintainsAggregate(t *testing.T) {
	lvl := &AskPriceLevel{Price: d("10")}
	lvl.Append(restingOrder("a", "3"))
	lvl.Append(restingOrder("b", "4"))

	assert.True(t, lvl.TotalQuantity.Equal(d("7")))
	require.Len(t, lvl.Orders, 2)
	assert.Equal(t, "a", lvl.Orders[0].ID)
}

func TestRemoveOrderByIDDecrementsUnfilledOnly(t *testing.T) {
	lvl := &BidPriceLevel{Price: d("10")}
	partial := restingOrder("a", "10")
	partial.Filled = d("4")
	lvl.Append(partial)
	lvl.Append(restingOrder("b", "2"))

	removed := lvl.RemoveOrderByID("a")
	require.NotNil(t, removed)
	assert.Equal(t, "a", removed.ID)
	assert.True(t, lvl.TotalQuantity.Equal(d("2")))
	require.Len(t, lvl.Orders, 1)

	assert.Nil(t, lvl.RemoveOrderByID("missing"))
}
