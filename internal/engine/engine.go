package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/pkg/model"
)

// MarketConfig describes one tradable pair. Decimals are the base-unit scale
// used by the balance ledger for each asset.
type MarketConfig struct {
	Base          string
	Quote         string
	BaseDecimals  int32
	QuoteDecimals int32
}

// Symbol is the wire name of the market, e.g. "SOL_USDC".
func (c MarketConfig) Symbol() string {
	return c.Base + "_" + c.Quote
}

// Config is everything the engine needs at startup. SeedBalances funds dev
// accounts; there is no deposit path at runtime.
type Config struct {
	Markets      []MarketConfig
	SeedBalances map[string]map[string]uint64
}

// Engine holds every market's book plus the single shared balance table.
// Books are handed out to per-market workers; the map itself is immutable
// after New.
type Engine struct {
	books    map[string]*OrderBook
	balances *BalanceTable
	log      *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Engine {
	books := make(map[string]*OrderBook, len(cfg.Markets))
	for _, market := range cfg.Markets {
		books[market.Symbol()] = NewOrderBook(market, log)
	}

	balances := NewBalanceTable()
	for userID, assets := range cfg.SeedBalances {
		for asset, amount := range assets {
			balances.Seed(userID, asset, amount)
		}
	}

	return &Engine{
		books:    books,
		balances: balances,
		log:      log.Named("engine"),
	}
}

// Book returns the order book for a market, or nil when the market is not
// configured.
func (e *Engine) Book(market string) *OrderBook {
	return e.books[market]
}

func (e *Engine) Markets() []string {
	markets := make([]string, 0, len(e.books))
	for market := range e.books {
		markets = append(markets, market)
	}
	return markets
}

func (e *Engine) Balances() *BalanceTable {
	return e.balances
}

// ProcessUser answers messages from the user queue. Only balance queries
// exist today.
func (e *Engine) ProcessUser(msg model.UserMessageFromAPI) Outcome {
	out := Outcome{ReplyChannel: msg.ReplyChannel()}

	switch msg.Kind {
	case model.UserMessageGetBalance:
		snapshot, ok := e.balances.Snapshot(msg.UserID)
		if !ok {
			out.Reply = model.ErrReply(CodeUserNotFound, "user "+msg.UserID+" not found")
			return out
		}
		resp := model.UserBalanceResponse{
			UserID:   msg.UserID,
			Balances: make([]model.AssetAndBalance, 0, len(snapshot)),
		}
		for asset, bal := range snapshot {
			resp.Balances = append(resp.Balances, model.AssetAndBalance{
				Asset:   asset,
				Balance: bal.AvailableAmount,
			})
		}
		sort.Slice(resp.Balances, func(i, j int) bool {
			return resp.Balances[i].Asset < resp.Balances[j].Asset
		})
		out.Reply = model.OkReply(resp)

	default:
		out.Reply = model.ErrReply(CodeInternalError, "unhandled user message kind: "+string(msg.Kind))
	}

	return out
}
