package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/internal/dbfiller"
	"github.com/Yusufzhafir/go-exchange/internal/redisbus"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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

	// construct DSN
	pgInfo := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		getenv("DB_USER", "postgres"),
		getenv("DB_PASSWORD", "postgres"),
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_NAME", "exchange"),
	)
	db, err := sqlx.Connect("postgres", pgInfo)
	if err != nil {
		logger.Fatal("error connecting postgres", zap.Error(err))
	}
	defer db.Close()

	bus := redisbus.New(getenv("REDIS_ADDR", "localhost:6379"))
	defer bus.Close()
	if err := bus.Ping(rootCtx); err != nil {
		logger.Fatal("redis ping failed", zap.Error(err))
	}

	worker := dbfiller.NewWorker(bus, db, dbfiller.NewRepository(), logger)
	if err := worker.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker exited", zap.Error(err))
	}
}
