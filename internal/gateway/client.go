// Package gateway is the HTTP edge: it authenticates requests, forwards them
// to the matching engine over Redis and waits for the correlated reply.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/internal/redisbus"
	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

// ErrEngineTimeout means the engine did not reply within the deadline. The
// request may still be processed; the caller only loses the reply.
var ErrEngineTimeout = errors.New("engine reply timed out")

const defaultReplyTimeout = 5 * time.Second

// EngineClient turns the queue-plus-pubsub pair into a request/reply call.
// It subscribes to the reply channel before pushing the request so the reply
// cannot slip past it.
type EngineClient struct {
	bus     *redisbus.Bus
	timeout time.Duration
	log     *zap.Logger
}

func NewEngineClient(bus *redisbus.Bus, log *zap.Logger) *EngineClient {
	return &EngineClient{
		bus:     bus,
		timeout: defaultReplyTimeout,
		log:     log.Named("engine-client"),
	}
}

func (c *EngineClient) SendOrder(ctx context.Context, msg model.MessageFromAPI) (*model.RawReply, error) {
	return c.request(ctx, msg.ReplyChannel(), msg, c.bus.PushOrder)
}

func (c *EngineClient) SendUser(ctx context.Context, msg model.UserMessageFromAPI) (*model.RawReply, error) {
	return c.request(ctx, msg.ReplyChannel(), msg, c.bus.PushUser)
}

func (c *EngineClient) request(
	ctx context.Context,
	replyChannel string,
	msg any,
	push func(context.Context, []byte) error,
) (*model.RawReply, error) {

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	sub := c.bus.Subscribe(ctx, replyChannel)
	defer sub.Close()
	// wait for the subscription ack before pushing
	if _, err := sub.Receive(ctx); err != nil {
		return nil, err
	}

	if err := push(ctx, payload); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	received, err := sub.ReceiveMessage(waitCtx)
	if err != nil {
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			c.log.Warn("engine reply timed out", zap.String("channel", replyChannel))
			return nil, ErrEngineTimeout
		}
		return nil, err
	}

	var reply model.RawReply
	if err := json.Unmarshal([]byte(received.Payload), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
