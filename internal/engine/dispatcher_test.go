package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

type fakeSource struct {
	orders chan []byte
	users  chan []byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		orders: make(chan []byte, 64),
		users:  make(chan []byte, 64),
	}
}

func (s *fakeSource) PopOrder(ctx context.Context) ([]byte, error) {
	select {
	case raw := <-s.orders:
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSource) PopUser(ctx context.Context) ([]byte, error) {
	select {
	case raw := <-s.users:
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakePublisher struct {
	mu      sync.Mutex
	replies map[string][][]byte
	ws      map[string][][]byte
	db      [][]byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		replies: make(map[string][][]byte),
		ws:      make(map[string][][]byte),
	}
}

func (p *fakePublisher) PublishReply(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies[channel] = append(p.replies[channel], payload)
	return nil
}

func (p *fakePublisher) PublishWs(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ws[topic] = append(p.ws[topic], payload)
	return nil
}

func (p *fakePublisher) PushDB(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.db = append(p.db, payload)
	return nil
}

func (p *fakePublisher) repliesOn(channel string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.replies[channel]))
	copy(out, p.replies[channel])
	return out
}

func (p *fakePublisher) waitReply(t *testing.T, channel string) model.RawReply {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(p.repliesOn(channel)) > 0
	}, 2*time.Second, 10*time.Millisecond)

	var reply model.RawReply
	require.NoError(t, json.Unmarshal(p.repliesOn(channel)[0], &reply))
	return reply
}

func startDispatcher(t *testing.T) (*fakeSource, *fakePublisher) {
	t.Helper()
	eng := New(Config{
		Markets: []MarketConfig{testMarket},
		SeedBalances: map[string]map[string]uint64{
			"1": {"USDC": 1_000_000_000},
			"2": {"SOL": 10_000_000_000},
		},
	}, zap.NewNop())

	source := newFakeSource()
	pub := newFakePublisher()
	dispatcher := NewDispatcher(eng, source, pub, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = dispatcher.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return source, pub
}

func pushOrder(t *testing.T, source *fakeSource, msg model.MessageFromAPI) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	source.orders <- raw
}

func createOrderMsg(id, userID string, side model.Side, price, quantity string) model.MessageFromAPI {
	return model.MessageFromAPI{
		Kind: model.MessageCreateOrder,
		CreateOrder: &model.CreateOrderPayload{
			ID:        id,
			UserID:    userID,
			Side:      side,
			Market:    testMarket.Symbol(),
			OrderType: model.OrderTypeLimit,
			Price:     d(price),
			Quantity:  d(quantity),
		},
	}
}

func TestDispatcherRepliesToCreateOrder(t *testing.T) {
	source, pub := startDispatcher(t)

	pushOrder(t, source, createOrderMsg("o1", "1", model.SideBuy, "10", "1"))

	reply := pub.waitReply(t, "o1")
	assert.Nil(t, reply.Error)

	var resp model.OrderPlacedResponse
	require.NoError(t, json.Unmarshal(reply.Data, &resp))
	assert.Equal(t, "o1", resp.OrderID)
	assert.True(t, resp.ExecutedQuantity.IsZero())
}

func TestDispatcherSynthesizesInvalidMarket(t *testing.T) {
	source, pub := startDispatcher(t)

	msg := createOrderMsg("o1", "1", model.SideBuy, "10", "1")
	msg.CreateOrder.Market = "FOO_BAR"
	pushOrder(t, source, msg)

	reply := pub.waitReply(t, "o1")
	require.NotNil(t, reply.Error)
	assert.Equal(t, CodeInvalidMarket, reply.Error.Code)
}

func TestDispatcherDropsMalformedInput(t *testing.T) {
	source, pub := startDispatcher(t)

	source.orders <- []byte("{not json")
	source.orders <- []byte(`{"kind":"CREATE_ORDER"}`) // kind without payload

	// a valid message after the garbage still gets processed
	pushOrder(t, source, createOrderMsg("o1", "1", model.SideBuy, "10", "1"))
	reply := pub.waitReply(t, "o1")
	assert.Nil(t, reply.Error)

	// and the garbage produced no replies anywhere
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.replies, 1)
}

func TestDispatcherKeepsPerMarketOrdering(t *testing.T) {
	source, pub := startDispatcher(t)

	// the sell only fills if it is processed after the buy
	pushOrder(t, source, createOrderMsg("buy1", "1", model.SideBuy, "10", "1"))
	pushOrder(t, source, createOrderMsg("sell1", "2", model.SideSell, "10", "1"))

	reply := pub.waitReply(t, "sell1")
	require.Nil(t, reply.Error)

	var resp model.OrderPlacedResponse
	require.NoError(t, json.Unmarshal(reply.Data, &resp))
	assert.True(t, resp.ExecutedQuantity.Equal(d("1")))

	// the trade went out on the market data topic
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.ws[model.TradeTopic(testMarket.Symbol())]) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcherAnswersBalanceQuery(t *testing.T) {
	source, pub := startDispatcher(t)

	raw, err := json.Marshal(model.UserMessageFromAPI{
		Kind:   model.UserMessageGetBalance,
		UserID: "1",
	})
	require.NoError(t, err)
	source.users <- raw

	reply := pub.waitReply(t, "1-balance")
	require.Nil(t, reply.Error)

	var resp model.UserBalanceResponse
	require.NoError(t, json.Unmarshal(reply.Data, &resp))
	assert.Equal(t, "1", resp.UserID)
	require.Len(t, resp.Balances, 1)
	assert.Equal(t, "USDC", resp.Balances[0].Asset)
	assert.Equal(t, uint64(1_000_000_000), resp.Balances[0].Balance)
}

func TestDispatcherAnswersUnknownUserBalance(t *testing.T) {
	source, pub := startDispatcher(t)

	raw, err := json.Marshal(model.UserMessageFromAPI{
		Kind:   model.UserMessageGetBalance,
		UserID: "ghost",
	})
	require.NoError(t, err)
	source.users <- raw

	reply := pub.waitReply(t, "ghost-balance")
	require.NotNil(t, reply.Error)
	assert.Equal(t, CodeUserNotFound, reply.Error.Code)
}
