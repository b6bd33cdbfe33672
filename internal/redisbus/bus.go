// Package redisbus is the shared Redis transport: lists for the order, user
// and persistence queues, pub/sub for replies and market data topics.
package redisbus

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

const popTimeout = time.Second

type Bus struct {
	client *redis.Client
}

func New(addr string) *Bus {
	return &Bus{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (b *Bus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Bus) Close() error {
	return b.client.Close()
}

// brpop returns (nil, nil) on timeout so callers can poll in a loop and
// still observe context cancellation.
func (b *Bus) brpop(ctx context.Context, queue string) ([]byte, error) {
	res, err := b.client.BRPop(ctx, popTimeout, queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP yields [key, value]
	if len(res) != 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (b *Bus) PopOrder(ctx context.Context) ([]byte, error) {
	return b.brpop(ctx, model.OrderChannel)
}

func (b *Bus) PopUser(ctx context.Context) ([]byte, error) {
	return b.brpop(ctx, model.UserChannel)
}

func (b *Bus) PopDB(ctx context.Context) ([]byte, error) {
	return b.brpop(ctx, model.DBChannel)
}

func (b *Bus) PushOrder(ctx context.Context, payload []byte) error {
	return b.client.LPush(ctx, model.OrderChannel, payload).Err()
}

func (b *Bus) PushUser(ctx context.Context, payload []byte) error {
	return b.client.LPush(ctx, model.UserChannel, payload).Err()
}

func (b *Bus) PushDB(ctx context.Context, payload []byte) error {
	return b.client.LPush(ctx, model.DBChannel, payload).Err()
}

func (b *Bus) PublishReply(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *Bus) PublishWs(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, topic, payload).Err()
}

// Subscribe opens a dedicated subscription for one reply channel. The caller
// must Close it; the gateway subscribes before pushing the request so the
// reply cannot be missed.
func (b *Bus) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return b.client.Subscribe(ctx, channel)
}

// PSubscribe matches topic patterns such as trade@* and depth@*; the
// websocket bridge uses it to mirror every market without enumeration.
func (b *Bus) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return b.client.PSubscribe(ctx, patterns...)
}
