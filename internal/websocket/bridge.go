package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/internal/redisbus"
)

// Bridge mirrors the engine's Redis market data topics into the hub. One
// pattern subscription covers every market, present and future.
type Bridge struct {
	bus *redisbus.Bus
	hub *Hub
	log *zap.Logger
}

func NewBridge(bus *redisbus.Bus, hub *Hub, log *zap.Logger) *Bridge {
	return &Bridge{bus: bus, hub: hub, log: log.Named("ws-bridge")}
}

// Run consumes trade@* and depth@* until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.bus.PSubscribe(ctx, "trade@*", "depth@*")
	defer sub.Close()

	ch := sub.Channel()
	b.log.Info("bridge started")
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.hub.PublishRaw(msg.Channel, []byte(msg.Payload))
		case <-ctx.Done():
			b.log.Info("bridge stopped")
			return ctx.Err()
		}
	}
}
