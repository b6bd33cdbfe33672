package model_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

func TestMessageMarketAndReplyChannel(t *testing.T) {
	create := model.MessageFromAPI{
		Kind: model.MessageCreateOrder,
		CreateOrder: &model.CreateOrderPayload{
			ID: "abc", UserID: "7", Market: "SOL_USDC",
		},
	}
	market, err := create.Market()
	require.NoError(t, err)
	assert.Equal(t, "SOL_USDC", market)
	assert.Equal(t, "abc", create.ReplyChannel())

	cancelAll := model.MessageFromAPI{
		Kind:            model.MessageCancelAllOrders,
		CancelAllOrders: &model.CancelAllOrdersPayload{Market: "SOL_USDC", UserID: "7"},
	}
	assert.Equal(t, "7", cancelAll.ReplyChannel())

	depth := model.MessageFromAPI{
		Kind:     model.MessageGetDepth,
		GetDepth: &model.GetDepthPayload{Market: "SOL_USDC"},
	}
	assert.Equal(t, "SOL_USDC", depth.ReplyChannel())
}

func TestMessageMarketMissingPayload(t *testing.T) {
	msg := model.MessageFromAPI{Kind: model.MessageCreateOrder}
	_, err := msg.Market()
	assert.Error(t, err)
}

func TestUserMessageReplyChannel(t *testing.T) {
	msg := model.UserMessageFromAPI{Kind: model.UserMessageGetBalance, UserID: "42"}
	assert.Equal(t, "42-balance", msg.ReplyChannel())
}

func TestReplyEnvelopeShapes(t *testing.T) {
	ok, err := json.Marshal(model.OkReply(map[string]string{"x": "y"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"x":"y"}}`, string(ok))

	bad, err := json.Marshal(model.ErrReply("INVALID_MARKET", "market FOO does not exist"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"INVALID_MARKET","message":"market FOO does not exist"}}`, string(bad))
}

func TestNewOrderTruncatesScales(t *testing.T) {
	order := model.NewOrder(model.CreateOrderPayload{
		ID:       "o1",
		Price:    decimal.RequireFromString("1.1234567891"),
		Quantity: decimal.RequireFromString("2.34567891"),
	})
	assert.True(t, order.Price.Equal(decimal.RequireFromString("1.123456789")))
	assert.True(t, order.Quantity.Equal(decimal.RequireFromString("2.345678")))
	assert.True(t, order.Unfilled().Equal(order.Quantity))
	assert.False(t, order.IsFilled())
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, model.SideSell, model.SideBuy.Opposite())
	assert.Equal(t, model.SideBuy, model.SideSell.Opposite())
}
