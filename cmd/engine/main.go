package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/internal/engine"
	"github.com/Yusufzhafir/go-exchange/internal/redisbus"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseMarkets reads MARKETS as a comma list of BASE_QUOTE:baseDecimals:quoteDecimals,
// e.g. "SOL_USDC:9:6,BTC_USDC:8:6".
func parseMarkets(raw string, logger *zap.Logger) []engine.MarketConfig {
	var markets []engine.MarketConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			logger.Fatal("invalid market entry", zap.String("entry", entry))
		}
		pair := strings.SplitN(parts[0], "_", 2)
		if len(pair) != 2 {
			logger.Fatal("invalid market symbol", zap.String("symbol", parts[0]))
		}
		baseDec, err := strconv.ParseInt(parts[1], 10, 32)
		if err != nil {
			logger.Fatal("invalid base decimals", zap.String("entry", entry), zap.Error(err))
		}
		quoteDec, err := strconv.ParseInt(parts[2], 10, 32)
		if err != nil {
			logger.Fatal("invalid quote decimals", zap.String("entry", entry), zap.Error(err))
		}
		markets = append(markets, engine.MarketConfig{
			Base:          pair[0],
			Quote:         pair[1],
			BaseDecimals:  int32(baseDec),
			QuoteDecimals: int32(quoteDec),
		})
	}
	if len(markets) == 0 {
		logger.Fatal("no markets configured")
	}
	return markets
}

// seedBalances funds SEED_USERS with every configured asset so dev accounts
// can trade right away. There is no runtime deposit path.
func seedBalances(users string, amount uint64, markets []engine.MarketConfig) map[string]map[string]uint64 {
	assets := map[string]struct{}{}
	for _, m := range markets {
		assets[m.Base] = struct{}{}
		assets[m.Quote] = struct{}{}
	}

	seeds := map[string]map[string]uint64{}
	for _, user := range strings.Split(users, ",") {
		user = strings.TrimSpace(user)
		if user == "" {
			continue
		}
		funds := map[string]uint64{}
		for asset := range assets {
			funds[asset] = amount
		}
		seeds[user] = funds
	}
	return seeds
}

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file loaded", zap.Error(err))
	}

	markets := parseMarkets(getenv("MARKETS", "SOL_USDC:9:6"), logger)
	seedAmount, err := strconv.ParseUint(getenv("SEED_AMOUNT", "1000000000000"), 10, 64)
	if err != nil {
		logger.Fatal("invalid SEED_AMOUNT", zap.Error(err))
	}

	bus := redisbus.New(getenv("REDIS_ADDR", "localhost:6379"))
	defer bus.Close()
	if err := bus.Ping(rootCtx); err != nil {
		logger.Fatal("redis ping failed", zap.Error(err))
	}

	eng := engine.New(engine.Config{
		Markets:      markets,
		SeedBalances: seedBalances(getenv("SEED_USERS", "1,2,3,4,5"), seedAmount, markets),
	}, logger)

	logger.Info("engine starting", zap.Strings("markets", eng.Markets()))

	dispatcher := engine.NewDispatcher(eng, bus, bus, logger)
	if err := dispatcher.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("dispatcher exited", zap.Error(err))
	}
	logger.Info("engine stopped")
}
