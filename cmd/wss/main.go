package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Yusufzhafir/go-exchange/internal/redisbus"
	"github.com/Yusufzhafir/go-exchange/internal/websocket"
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

	bus := redisbus.New(getenv("REDIS_ADDR", "localhost:6379"))
	defer bus.Close()
	if err := bus.Ping(rootCtx); err != nil {
		logger.Fatal("redis ping failed", zap.Error(err))
	}

	hub := websocket.NewHub(logger)
	go hub.Run(rootCtx)

	bridge := websocket.NewBridge(bus, hub, logger)
	go func() {
		if err := bridge.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("bridge exited", zap.Error(err))
		}
	}()

	serveMux := http.NewServeMux()
	serveMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWS(hub, w, r)
	})

	server := http.Server{
		Addr:    getenv("WSS_ADDR", ":8081"),
		Handler: serveMux,
	}

	go func() {
		logger.Info("websocket server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed; forcing close", zap.Error(err))
		_ = server.Close()
	}

	logger.Info("server stopped")
}
