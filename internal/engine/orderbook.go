package engine

import (
	"sort"
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	orderbookModel "github.com/Yusufzhafir/go-exchange/internal/engine/model"
	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

const btreeDegree = 32

// OrderBook owns all state for a single market. It is only ever touched by
// that market's worker goroutine, so none of its fields need locking; the
// shared BalanceTable does its own.
type OrderBook struct {
	cfg       MarketConfig
	market    string
	tradeID   uint32
	lastPrice decimal.Decimal
	bids      *btree.BTree // *orderbookModel.BidPriceLevel, best (highest) first
	asks      *btree.BTree // *orderbookModel.AskPriceLevel, best (lowest) first
	log       *zap.Logger
}

func NewOrderBook(cfg MarketConfig, log *zap.Logger) *OrderBook {
	market := cfg.Symbol()
	return &OrderBook{
		cfg:    cfg,
		market: market,
		bids:   btree.New(btreeDegree),
		asks:   btree.New(btreeDegree),
		log:    log.Named("book").With(zap.String("market", market)),
	}
}

func (b *OrderBook) Market() string {
	return b.market
}

// LastPrice is the price of the most recent trade, zero before the first one.
func (b *OrderBook) LastPrice() decimal.Decimal {
	return b.lastPrice
}

func (b *OrderBook) getAskLevel(price decimal.Decimal) *orderbookModel.AskPriceLevel {
	if item := b.asks.Get(&orderbookModel.AskPriceLevel{Price: price}); item != nil {
		return item.(*orderbookModel.AskPriceLevel)
	}
	return nil
}

func (b *OrderBook) getBidLevel(price decimal.Decimal) *orderbookModel.BidPriceLevel {
	if item := b.bids.Get(&orderbookModel.BidPriceLevel{Price: price}); item != nil {
		return item.(*orderbookModel.BidPriceLevel)
	}
	return nil
}

// depthDelta accumulates every price level whose open quantity changed while
// processing one message, so the broadcast is incremental rather than a full
// snapshot.
type depthDelta struct {
	bids map[string]model.PriceLevelEntry
	asks map[string]model.PriceLevelEntry
}

func newDepthDelta() *depthDelta {
	return &depthDelta{
		bids: make(map[string]model.PriceLevelEntry),
		asks: make(map[string]model.PriceLevelEntry),
	}
}

func (d *depthDelta) touchBid(price, quantity decimal.Decimal) {
	d.bids[price.String()] = model.PriceLevelEntry{price, quantity}
}

func (d *depthDelta) touchAsk(price, quantity decimal.Decimal) {
	d.asks[price.String()] = model.PriceLevelEntry{price, quantity}
}

func (d *depthDelta) update() *model.DepthUpdate {
	out := &model.DepthUpdate{
		Bids: make([]model.PriceLevelEntry, 0, len(d.bids)),
		Asks: make([]model.PriceLevelEntry, 0, len(d.asks)),
	}
	for _, entry := range d.bids {
		out.Bids = append(out.Bids, entry)
	}
	for _, entry := range d.asks {
		out.Asks = append(out.Asks, entry)
	}
	// bids best-first (descending), asks best-first (ascending)
	sort.Slice(out.Bids, func(i, j int) bool { return out.Bids[i][0].GreaterThan(out.Bids[j][0]) })
	sort.Slice(out.Asks, func(i, j int) bool { return out.Asks[i][0].LessThan(out.Asks[j][0]) })
	return out
}

// PlacedOrder is everything a successful placement produced.
type PlacedOrder struct {
	Response     *model.OrderPlacedResponse
	Fills        []model.Fill
	MakerUpdates []model.OrderUpdate
	Depth        *model.DepthUpdate
}

// ProcessOrder runs the full placement path: truncate, feasibility-check
// market orders, lock the taker's balance, match against the opposing side in
// price-time priority, rest the remainder and settle every fill. On error no
// reply-visible state change has happened except where documented
// (InternalError during settlement).
func (b *OrderBook) ProcessOrder(order *model.Order, balances *BalanceTable) (*PlacedOrder, error) {
	order.Price = order.Price.Truncate(model.PriceScale)
	order.Quantity = order.Quantity.Truncate(model.QuantityScale)

	if order.OrderType == model.OrderTypeMarket {
		if err := b.canPlaceMarketOrder(order); err != nil {
			return nil, err
		}
	}

	lockAsset, lockAmount, err := lockForOrder(order, b.cfg)
	if err != nil {
		return nil, err
	}
	if err := balances.Lock(order.UserID, lockAsset, lockAmount); err != nil {
		return nil, err
	}

	delta := newDepthDelta()
	fills, makerUpdates := b.matchOpposing(order, delta)

	if order.Unfilled().IsPositive() {
		b.addResting(order, delta)
	}

	if err := b.settleFills(order, fills, balances); err != nil {
		return nil, err
	}

	resp := &model.OrderPlacedResponse{
		OrderID:          order.ID,
		ExecutedQuantity: order.Filled,
		Fills:            make([]model.OrderFill, 0, len(fills)),
	}
	for _, f := range fills {
		resp.Fills = append(resp.Fills, model.OrderFill{Price: f.Price, Quantity: f.Quantity, TradeID: f.TradeID})
	}

	b.log.Debug("order processed",
		zap.String("order_id", order.ID),
		zap.String("executed", order.Filled.String()),
		zap.Int("fills", len(fills)),
	)

	return &PlacedOrder{
		Response:     resp,
		Fills:        fills,
		MakerUpdates: makerUpdates,
		Depth:        delta.update(),
	}, nil
}

// canPlaceMarketOrder checks feasibility against the single opposing level at
// the order's exact price. The engine deliberately does not sweep levels for
// market orders; keep this behavior.
func (b *OrderBook) canPlaceMarketOrder(order *model.Order) error {
	var total decimal.Decimal
	var found bool
	switch order.Side {
	case model.SideBuy:
		if lvl := b.getAskLevel(order.Price); lvl != nil {
			total, found = lvl.TotalQuantity, true
		}
	case model.SideSell:
		if lvl := b.getBidLevel(order.Price); lvl != nil {
			total, found = lvl.TotalQuantity, true
		}
	}
	if !found || total.LessThan(order.Quantity) {
		return newError(CodePartialOrderFill,
			"market order %s cannot be fully filled at price %s", order.ID, order.Price)
	}
	return nil
}

// matchOpposing walks the opposing side best-price-first, consuming resting
// orders in arrival order. Mutates maker orders, level aggregates and the
// trade id counter; removes exhausted levels.
func (b *OrderBook) matchOpposing(order *model.Order, delta *depthDelta) ([]model.Fill, []model.OrderUpdate) {
	var fills []model.Fill
	var updates []model.OrderUpdate
	remaining := order.Unfilled()

	switch order.Side {
	case model.SideBuy:
		var levels []*orderbookModel.AskPriceLevel
		b.asks.Ascend(func(item btree.Item) bool {
			lvl := item.(*orderbookModel.AskPriceLevel)
			if lvl.Price.GreaterThan(order.Price) {
				return false
			}
			levels = append(levels, lvl)
			return true
		})
		for _, lvl := range levels {
			if !remaining.IsPositive() {
				break
			}
			var consumed decimal.Decimal
			remaining, lvl.Orders, consumed = b.fillAgainst(lvl.Orders, remaining, lvl.Price, &fills, &updates)
			lvl.TotalQuantity = lvl.TotalQuantity.Sub(consumed)
			delta.touchAsk(lvl.Price, lvl.TotalQuantity)
			if len(lvl.Orders) == 0 {
				b.asks.Delete(lvl)
			}
		}

	case model.SideSell:
		var levels []*orderbookModel.BidPriceLevel
		b.bids.Ascend(func(item btree.Item) bool {
			lvl := item.(*orderbookModel.BidPriceLevel)
			if lvl.Price.LessThan(order.Price) {
				return false
			}
			levels = append(levels, lvl)
			return true
		})
		for _, lvl := range levels {
			if !remaining.IsPositive() {
				break
			}
			var consumed decimal.Decimal
			remaining, lvl.Orders, consumed = b.fillAgainst(lvl.Orders, remaining, lvl.Price, &fills, &updates)
			lvl.TotalQuantity = lvl.TotalQuantity.Sub(consumed)
			delta.touchBid(lvl.Price, lvl.TotalQuantity)
			if len(lvl.Orders) == 0 {
				b.bids.Delete(lvl)
			}
		}
	}

	order.Filled = order.Quantity.Sub(remaining)
	return fills, updates
}

// fillAgainst consumes the FIFO order queue of one price level until the
// incoming quantity runs out. Fully filled makers are popped from the front.
func (b *OrderBook) fillAgainst(
	orders []*model.Order,
	remaining decimal.Decimal,
	price decimal.Decimal,
	fills *[]model.Fill,
	updates *[]model.OrderUpdate,
) (decimal.Decimal, []*model.Order, decimal.Decimal) {

	consumed := decimal.Zero
	for len(orders) > 0 && remaining.IsPositive() {
		maker := orders[0]
		filled := decimal.Min(maker.Unfilled(), remaining)
		maker.Filled = maker.Filled.Add(filled)
		remaining = remaining.Sub(filled)
		consumed = consumed.Add(filled)

		b.tradeID++
		b.lastPrice = price

		*fills = append(*fills, model.Fill{
			OrderID:     maker.ID,
			TradeID:     b.tradeID,
			Quantity:    filled,
			MakerFilled: maker.Filled,
			MakerID:     maker.UserID,
			Price:       price,
		})

		status := model.OrderStatusOpen
		if maker.IsFilled() {
			status = model.OrderStatusFilled
		}
		*updates = append(*updates, model.OrderUpdate{
			OrderID:        maker.ID,
			FilledQuantity: maker.Filled,
			Status:         status,
		})

		if !maker.IsFilled() {
			break
		}
		orders = orders[1:]
	}
	return remaining, orders, consumed
}

// addResting inserts the unfilled remainder at its own price, creating the
// level if absent.
func (b *OrderBook) addResting(order *model.Order, delta *depthDelta) {
	switch order.Side {
	case model.SideBuy:
		lvl := b.getBidLevel(order.Price)
		if lvl == nil {
			lvl = &orderbookModel.BidPriceLevel{Price: order.Price}
			b.bids.ReplaceOrInsert(lvl)
		}
		lvl.Append(order)
		delta.touchBid(lvl.Price, lvl.TotalQuantity)

	case model.SideSell:
		lvl := b.getAskLevel(order.Price)
		if lvl == nil {
			lvl = &orderbookModel.AskPriceLevel{Price: order.Price}
			b.asks.ReplaceOrInsert(lvl)
		}
		lvl.Append(order)
		delta.touchAsk(lvl.Price, lvl.TotalQuantity)
	}
}

// settleFills converts every fill to integer base units first and then moves
// the funds in one atomic pass: the maker-side debits sum exactly to the
// taker-side aggregate for each asset.
func (b *OrderBook) settleFills(taker *model.Order, fills []model.Fill, balances *BalanceTable) error {
	if len(fills) == 0 {
		return nil
	}

	entries := make([]Settlement, 0, len(fills)*2+2)
	var takerBase, takerQuote uint64

	for _, f := range fills {
		baseAmount, err := ToBaseUnits(f.Quantity, b.cfg.BaseDecimals)
		if err != nil {
			return err
		}
		quoteAmount, err := ToBaseUnits(f.Price.Mul(f.Quantity), b.cfg.QuoteDecimals)
		if err != nil {
			return err
		}
		if takerBase, err = addChecked(takerBase, baseAmount); err != nil {
			return err
		}
		if takerQuote, err = addChecked(takerQuote, quoteAmount); err != nil {
			return err
		}

		switch taker.Side {
		case model.SideBuy:
			// makers are resting sellers: locked base leaves, quote arrives
			entries = append(entries,
				Settlement{UserID: f.MakerID, Asset: b.cfg.Base, DebitLocked: baseAmount},
				Settlement{UserID: f.MakerID, Asset: b.cfg.Quote, CreditAvailable: quoteAmount},
			)
		case model.SideSell:
			entries = append(entries,
				Settlement{UserID: f.MakerID, Asset: b.cfg.Quote, DebitLocked: quoteAmount},
				Settlement{UserID: f.MakerID, Asset: b.cfg.Base, CreditAvailable: baseAmount},
			)
		}
	}

	switch taker.Side {
	case model.SideBuy:
		entries = append(entries,
			Settlement{UserID: taker.UserID, Asset: b.cfg.Quote, DebitLocked: takerQuote},
			Settlement{UserID: taker.UserID, Asset: b.cfg.Base, CreditAvailable: takerBase},
		)
	case model.SideSell:
		entries = append(entries,
			Settlement{UserID: taker.UserID, Asset: b.cfg.Base, DebitLocked: takerBase},
			Settlement{UserID: taker.UserID, Asset: b.cfg.Quote, CreditAvailable: takerQuote},
		)
	}

	return balances.Settle(entries)
}

func addChecked(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, newError(CodeInternalError, "base unit sum overflow")
	}
	return sum, nil
}

// CancelOrder removes a single resting order after an ownership check and
// unlocks the balance for the unfilled remainder only.
func (b *OrderBook) CancelOrder(orderID, userID string, balances *BalanceTable) (*model.OrderCancelledResponse, *model.DepthUpdate, error) {
	if lvl, order := b.findBid(orderID); order != nil {
		if order.UserID != userID {
			return nil, nil, newError(CodeMismatchUser, "order %s does not belong to user %s", orderID, userID)
		}
		unfilled := order.Unfilled()
		amount, err := ToBaseUnits(order.Price.Mul(unfilled), b.cfg.QuoteDecimals)
		if err != nil {
			return nil, nil, err
		}
		if err := balances.Unlock(order.UserID, b.cfg.Quote, amount); err != nil {
			return nil, nil, err
		}

		delta := newDepthDelta()
		lvl.RemoveOrderByID(orderID)
		delta.touchBid(lvl.Price, lvl.TotalQuantity)
		if len(lvl.Orders) == 0 {
			b.bids.Delete(lvl)
		}
		return b.cancelledResponse(order), delta.update(), nil
	}

	if lvl, order := b.findAsk(orderID); order != nil {
		if order.UserID != userID {
			return nil, nil, newError(CodeMismatchUser, "order %s does not belong to user %s", orderID, userID)
		}
		unfilled := order.Unfilled()
		amount, err := ToBaseUnits(unfilled, b.cfg.BaseDecimals)
		if err != nil {
			return nil, nil, err
		}
		if err := balances.Unlock(order.UserID, b.cfg.Base, amount); err != nil {
			return nil, nil, err
		}

		delta := newDepthDelta()
		lvl.RemoveOrderByID(orderID)
		delta.touchAsk(lvl.Price, lvl.TotalQuantity)
		if len(lvl.Orders) == 0 {
			b.asks.Delete(lvl)
		}
		return b.cancelledResponse(order), delta.update(), nil
	}

	return nil, nil, newError(CodeInvalidOrderID, "order %s not found in market %s", orderID, b.market)
}

func (b *OrderBook) cancelledResponse(order *model.Order) *model.OrderCancelledResponse {
	return &model.OrderCancelledResponse{
		OrderID:          order.ID,
		Quantity:         order.Quantity,
		ExecutedQuantity: order.Filled,
		Side:             order.Side,
	}
}

func (b *OrderBook) findBid(orderID string) (*orderbookModel.BidPriceLevel, *model.Order) {
	var foundLvl *orderbookModel.BidPriceLevel
	var foundOrder *model.Order
	b.bids.Ascend(func(item btree.Item) bool {
		lvl := item.(*orderbookModel.BidPriceLevel)
		for _, order := range lvl.Orders {
			if order.ID == orderID {
				foundLvl, foundOrder = lvl, order
				return false
			}
		}
		return true
	})
	return foundLvl, foundOrder
}

func (b *OrderBook) findAsk(orderID string) (*orderbookModel.AskPriceLevel, *model.Order) {
	var foundLvl *orderbookModel.AskPriceLevel
	var foundOrder *model.Order
	b.asks.Ascend(func(item btree.Item) bool {
		lvl := item.(*orderbookModel.AskPriceLevel)
		for _, order := range lvl.Orders {
			if order.ID == orderID {
				foundLvl, foundOrder = lvl, order
				return false
			}
		}
		return true
	})
	return foundLvl, foundOrder
}

// CancelAllOrders removes every resting order of one user from both sides and
// unlocks the aggregate per asset in a single settlement pass per asset.
func (b *OrderBook) CancelAllOrders(userID string, balances *BalanceTable) (model.OrdersCancelledResponse, *model.DepthUpdate, error) {
	type target struct {
		bidLvl *orderbookModel.BidPriceLevel
		askLvl *orderbookModel.AskPriceLevel
		order  *model.Order
		unlock uint64
	}

	var targets []target
	var quoteUnlock, baseUnlock uint64
	var convErr error

	b.bids.Ascend(func(item btree.Item) bool {
		lvl := item.(*orderbookModel.BidPriceLevel)
		for _, order := range lvl.Orders {
			if order.UserID != userID {
				continue
			}
			amount, err := ToBaseUnits(order.Price.Mul(order.Unfilled()), b.cfg.QuoteDecimals)
			if err != nil {
				convErr = err
				return false
			}
			quoteUnlock += amount
			targets = append(targets, target{bidLvl: lvl, order: order, unlock: amount})
		}
		return true
	})
	if convErr != nil {
		return nil, nil, convErr
	}

	b.asks.Ascend(func(item btree.Item) bool {
		lvl := item.(*orderbookModel.AskPriceLevel)
		for _, order := range lvl.Orders {
			if order.UserID != userID {
				continue
			}
			amount, err := ToBaseUnits(order.Unfilled(), b.cfg.BaseDecimals)
			if err != nil {
				convErr = err
				return false
			}
			baseUnlock += amount
			targets = append(targets, target{askLvl: lvl, order: order, unlock: amount})
		}
		return true
	})
	if convErr != nil {
		return nil, nil, convErr
	}

	cancelled := model.OrdersCancelledResponse{}
	if len(targets) == 0 {
		return cancelled, &model.DepthUpdate{
			Bids: []model.PriceLevelEntry{},
			Asks: []model.PriceLevelEntry{},
		}, nil
	}

	if quoteUnlock > 0 {
		if err := balances.Unlock(userID, b.cfg.Quote, quoteUnlock); err != nil {
			return nil, nil, err
		}
	}
	if baseUnlock > 0 {
		if err := balances.Unlock(userID, b.cfg.Base, baseUnlock); err != nil {
			return nil, nil, err
		}
	}

	delta := newDepthDelta()
	var emptyBids []*orderbookModel.BidPriceLevel
	var emptyAsks []*orderbookModel.AskPriceLevel

	for _, t := range targets {
		order := t.order
		cancelled = append(cancelled, model.CancelledOrder{
			OrderID:          order.ID,
			Quantity:         order.Quantity,
			ExecutedQuantity: order.Filled,
			Side:             order.Side,
			Price:            order.Price,
		})
		if t.bidLvl != nil {
			t.bidLvl.RemoveOrderByID(order.ID)
			delta.touchBid(t.bidLvl.Price, t.bidLvl.TotalQuantity)
			if len(t.bidLvl.Orders) == 0 {
				emptyBids = append(emptyBids, t.bidLvl)
			}
		} else {
			t.askLvl.RemoveOrderByID(order.ID)
			delta.touchAsk(t.askLvl.Price, t.askLvl.TotalQuantity)
			if len(t.askLvl.Orders) == 0 {
				emptyAsks = append(emptyAsks, t.askLvl)
			}
		}
	}
	for _, lvl := range emptyBids {
		b.bids.Delete(lvl)
	}
	for _, lvl := range emptyAsks {
		b.asks.Delete(lvl)
	}

	b.log.Info("cancelled all orders",
		zap.String("user_id", userID),
		zap.Int("count", len(cancelled)),
	)

	return cancelled, delta.update(), nil
}

// Depth projects each side's maintained aggregates; no per-order scan.
func (b *OrderBook) Depth() *model.DepthResponse {
	resp := &model.DepthResponse{
		Bids: []model.PriceLevelEntry{},
		Asks: []model.PriceLevelEntry{},
	}
	b.bids.Ascend(func(item btree.Item) bool {
		lvl := item.(*orderbookModel.BidPriceLevel)
		resp.Bids = append(resp.Bids, model.PriceLevelEntry{lvl.Price, lvl.TotalQuantity})
		return true
	})
	b.asks.Ascend(func(item btree.Item) bool {
		lvl := item.(*orderbookModel.AskPriceLevel)
		resp.Asks = append(resp.Asks, model.PriceLevelEntry{lvl.Price, lvl.TotalQuantity})
		return true
	})
	return resp
}

// OpenOrders collects the user's resting orders from both sides; an empty
// list is not an error.
func (b *OrderBook) OpenOrders(userID string) model.AllOpenOrdersResponse {
	open := model.AllOpenOrdersResponse{}
	collect := func(order *model.Order) {
		open = append(open, model.OpenOrder{
			OrderID:          order.ID,
			Quantity:         order.Quantity,
			ExecutedQuantity: order.Filled,
			Side:             order.Side,
			Price:            order.Price,
		})
	}
	b.bids.Ascend(func(item btree.Item) bool {
		for _, order := range item.(*orderbookModel.BidPriceLevel).Orders {
			if order.UserID == userID {
				collect(order)
			}
		}
		return true
	})
	b.asks.Ascend(func(item btree.Item) bool {
		for _, order := range item.(*orderbookModel.AskPriceLevel).Orders {
			if order.UserID == userID {
				collect(order)
			}
		}
		return true
	})
	return open
}

// Outcome is everything one processed message produces: exactly one reply
// plus any downstream publishes. The worker performs the I/O; the book never
// does, and never while the balance mutex is held.
type Outcome struct {
	ReplyChannel string
	Reply        model.Reply
	Trades       []model.TradeUpdate
	Depth        *model.DepthUpdate
	DB           []model.DBMessage
}

// Process dispatches one inbound message against this book. The switch is
// exhaustive: every kind yields exactly one reply.
func (b *OrderBook) Process(msg model.MessageFromAPI, balances *BalanceTable) Outcome {
	out := Outcome{ReplyChannel: msg.ReplyChannel()}

	switch msg.Kind {
	case model.MessageCreateOrder:
		order := model.NewOrder(*msg.CreateOrder)
		placed, err := b.ProcessOrder(&order, balances)
		if err != nil {
			engineErr := toEngineError(err)
			b.log.Warn("order rejected",
				zap.String("order_id", order.ID),
				zap.String("code", engineErr.Code),
			)
			out.Reply = model.ErrReply(engineErr.Code, engineErr.Message)
			return out
		}
		out.Reply = model.OkReply(placed.Response)
		out.Depth = placed.Depth
		out.Trades = b.tradeUpdates(placed.Fills)
		out.DB = b.persistPlacement(&order, placed)

	case model.MessageCancelOrder:
		payload := msg.CancelOrder
		resp, depth, err := b.CancelOrder(payload.OrderID, payload.UserID, balances)
		if err != nil {
			engineErr := toEngineError(err)
			out.Reply = model.ErrReply(engineErr.Code, engineErr.Message)
			return out
		}
		out.Reply = model.OkReply(resp)
		out.Depth = depth
		out.DB = []model.DBMessage{{
			Kind:           model.DBUpdateCancelOrders,
			CancelOrderIDs: []string{payload.OrderID},
		}}

	case model.MessageCancelAllOrders:
		payload := msg.CancelAllOrders
		cancelled, depth, err := b.CancelAllOrders(payload.UserID, balances)
		if err != nil {
			engineErr := toEngineError(err)
			out.Reply = model.ErrReply(engineErr.Code, engineErr.Message)
			return out
		}
		out.Reply = model.OkReply(cancelled)
		out.Depth = depth
		if len(cancelled) > 0 {
			ids := make([]string, 0, len(cancelled))
			for _, c := range cancelled {
				ids = append(ids, c.OrderID)
			}
			out.DB = []model.DBMessage{{Kind: model.DBUpdateCancelOrders, CancelOrderIDs: ids}}
		}

	case model.MessageGetAllOpenOrders:
		out.Reply = model.OkReply(b.OpenOrders(msg.GetAllOpenOrders.UserID))

	case model.MessageGetDepth:
		out.Reply = model.OkReply(b.Depth())

	default:
		out.Reply = model.ErrReply(CodeInternalError, "unhandled message kind: "+string(msg.Kind))
	}

	return out
}

func (b *OrderBook) tradeUpdates(fills []model.Fill) []model.TradeUpdate {
	if len(fills) == 0 {
		return nil
	}
	updates := make([]model.TradeUpdate, 0, len(fills))
	for _, f := range fills {
		updates = append(updates, model.TradeUpdate{
			Event:    "trade",
			TradeID:  f.TradeID,
			Price:    f.Price,
			Quantity: f.Quantity,
			Symbol:   b.market,
		})
	}
	return updates
}

func (b *OrderBook) persistPlacement(order *model.Order, placed *PlacedOrder) []model.DBMessage {
	status := model.OrderStatusOpen
	if order.IsFilled() {
		status = model.OrderStatusFilled
	}

	messages := []model.DBMessage{{
		Kind: model.DBAddAndUpdateOrders,
		AddOrder: &model.OrderRow{
			OrderID:        order.ID,
			Quantity:       order.Quantity,
			FilledQuantity: order.Filled,
			Price:          order.Price,
			Side:           order.Side,
			Status:         status,
		},
		UpdateOrders: placed.MakerUpdates,
	}}

	if len(placed.Fills) > 0 {
		now := time.Now().Unix()
		trades := make([]model.TradeRow, 0, len(placed.Fills))
		for _, f := range placed.Fills {
			trades = append(trades, model.TradeRow{
				TradeID:       f.TradeID,
				Market:        b.market,
				Price:         f.Price,
				Quantity:      f.Quantity,
				QuoteQuantity: f.Price.Mul(f.Quantity),
				Timestamp:     now,
			})
		}
		messages = append(messages, model.DBMessage{Kind: model.DBAddTrade, Trades: trades})
	}

	return messages
}
