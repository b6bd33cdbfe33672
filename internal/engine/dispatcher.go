package engine

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

const marketQueueSize = 1024

// Source pops raw inbound messages. Pop calls block until a message arrives,
// the context ends, or the backend errors; a (nil, nil) return means "nothing
// yet, poll again".
type Source interface {
	PopOrder(ctx context.Context) ([]byte, error)
	PopUser(ctx context.Context) ([]byte, error)
}

// Publisher fans processed results out: the per-request reply channel, the
// websocket topics and the persistence queue.
type Publisher interface {
	PublishReply(ctx context.Context, channel string, payload []byte) error
	PublishWs(ctx context.Context, topic string, payload []byte) error
	PushDB(ctx context.Context, payload []byte) error
}

// Dispatcher routes inbound messages to one worker goroutine per market, so
// each book is only ever touched from a single goroutine and messages for the
// same market keep their arrival order.
type Dispatcher struct {
	engine *Engine
	source Source
	pub    Publisher
	log    *zap.Logger

	queues map[string]chan model.MessageFromAPI
	userCh chan model.UserMessageFromAPI
}

func NewDispatcher(engine *Engine, source Source, pub Publisher, log *zap.Logger) *Dispatcher {
	queues := make(map[string]chan model.MessageFromAPI, len(engine.books))
	for market := range engine.books {
		queues[market] = make(chan model.MessageFromAPI, marketQueueSize)
	}
	return &Dispatcher{
		engine: engine,
		source: source,
		pub:    pub,
		log:    log.Named("dispatcher"),
		queues: queues,
		userCh: make(chan model.UserMessageFromAPI, marketQueueSize),
	}
}

// Run blocks until ctx is cancelled. Workers drain their queues before Run
// returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	var workers sync.WaitGroup
	for market, queue := range d.queues {
		book := d.engine.books[market]
		workers.Add(1)
		go func(book *OrderBook, queue chan model.MessageFromAPI) {
			defer workers.Done()
			d.marketWorker(ctx, book, queue)
		}(book, queue)
	}
	workers.Add(1)
	go func() {
		defer workers.Done()
		d.userWorker(ctx)
	}()

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		d.orderPump(ctx)
	}()
	go func() {
		defer pumps.Done()
		d.userPump(ctx)
	}()

	<-ctx.Done()
	pumps.Wait()
	for _, queue := range d.queues {
		close(queue)
	}
	close(d.userCh)
	workers.Wait()
	d.log.Info("dispatcher stopped")
	return ctx.Err()
}

func (d *Dispatcher) orderPump(ctx context.Context) {
	for {
		raw, err := d.source.PopOrder(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.log.Error("pop order failed", zap.Error(err))
			continue
		}
		if raw == nil {
			continue
		}

		var msg model.MessageFromAPI
		if err := json.Unmarshal(raw, &msg); err != nil {
			// malformed input is dropped, never replied to
			d.log.Warn("dropping malformed order message", zap.Error(err))
			continue
		}
		market, err := msg.Market()
		if err != nil {
			d.log.Warn("dropping order message without payload", zap.Error(err))
			continue
		}

		queue, ok := d.queues[market]
		if !ok {
			d.replyError(ctx, msg.ReplyChannel(), CodeInvalidMarket, "market "+market+" does not exist")
			continue
		}
		select {
		case queue <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) userPump(ctx context.Context) {
	for {
		raw, err := d.source.PopUser(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			d.log.Error("pop user failed", zap.Error(err))
			continue
		}
		if raw == nil {
			continue
		}

		var msg model.UserMessageFromAPI
		if err := json.Unmarshal(raw, &msg); err != nil {
			d.log.Warn("dropping malformed user message", zap.Error(err))
			continue
		}
		if msg.UserID == "" {
			d.log.Warn("dropping user message without user id")
			continue
		}
		select {
		case d.userCh <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) marketWorker(ctx context.Context, book *OrderBook, queue <-chan model.MessageFromAPI) {
	for msg := range queue {
		d.handleMarket(ctx, book, msg)
	}
}

// handleMarket isolates panics per message: a poisoned request answers
// InternalError instead of taking the whole market down.
func (d *Dispatcher) handleMarket(ctx context.Context, book *OrderBook, msg model.MessageFromAPI) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("worker panic",
				zap.String("market", book.Market()),
				zap.Any("panic", r),
			)
			d.replyError(ctx, msg.ReplyChannel(), CodeInternalError, "internal error")
		}
	}()

	out := book.Process(msg, d.engine.balances)
	d.publishOutcome(ctx, book.Market(), out)
}

func (d *Dispatcher) userWorker(ctx context.Context) {
	for msg := range d.userCh {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("user worker panic", zap.Any("panic", r))
					d.replyError(ctx, msg.ReplyChannel(), CodeInternalError, "internal error")
				}
			}()
			out := d.engine.ProcessUser(msg)
			d.publishOutcome(ctx, "", out)
		}()
	}
}

func (d *Dispatcher) publishOutcome(ctx context.Context, market string, out Outcome) {
	payload, err := json.Marshal(out.Reply)
	if err != nil {
		d.log.Error("marshal reply failed", zap.Error(err))
		d.replyError(ctx, out.ReplyChannel, CodeInternalError, "internal error")
		return
	}
	if err := d.pub.PublishReply(ctx, out.ReplyChannel, payload); err != nil {
		d.log.Error("publish reply failed", zap.String("channel", out.ReplyChannel), zap.Error(err))
	}

	for _, trade := range out.Trades {
		raw, err := json.Marshal(trade)
		if err != nil {
			d.log.Error("marshal trade update failed", zap.Error(err))
			continue
		}
		if err := d.pub.PublishWs(ctx, model.TradeTopic(market), raw); err != nil {
			d.log.Error("publish trade update failed", zap.Error(err))
		}
	}

	if out.Depth != nil && !out.Depth.IsEmpty() {
		raw, err := json.Marshal(out.Depth)
		if err != nil {
			d.log.Error("marshal depth update failed", zap.Error(err))
		} else if err := d.pub.PublishWs(ctx, model.DepthTopic(market), raw); err != nil {
			d.log.Error("publish depth update failed", zap.Error(err))
		}
	}

	for _, dbMsg := range out.DB {
		raw, err := json.Marshal(dbMsg)
		if err != nil {
			d.log.Error("marshal db message failed", zap.Error(err))
			continue
		}
		if err := d.pub.PushDB(ctx, raw); err != nil {
			d.log.Error("push db message failed", zap.Error(err))
		}
	}
}

func (d *Dispatcher) replyError(ctx context.Context, channel, code, message string) {
	payload, err := json.Marshal(model.ErrReply(code, message))
	if err != nil {
		return
	}
	if err := d.pub.PublishReply(ctx, channel, payload); err != nil {
		d.log.Error("publish error reply failed", zap.String("channel", channel), zap.Error(err))
	}
}
