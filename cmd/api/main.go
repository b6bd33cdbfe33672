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

	"github.com/Yusufzhafir/go-exchange/internal/gateway"
	"github.com/Yusufzhafir/go-exchange/internal/gateway/middleware"
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

	bus := redisbus.New(getenv("REDIS_ADDR", "localhost:6379"))
	defer bus.Close()
	if err := bus.Ping(rootCtx); err != nil {
		logger.Fatal("redis ping failed", zap.Error(err))
	}

	client := gateway.NewEngineClient(bus, logger)
	tokenMaker := middleware.NewJWTMaker(getenv("JWT_SECRET", "dev-secret"))

	serveMux := http.NewServeMux()
	gateway.BindRouter(gateway.BindRouterOpts{
		ServerRouter: serveMux,
		Client:       client,
		TokenMaker:   tokenMaker,
		Log:          logger,
	})
	logger.Info("finished binding router")

	server := http.Server{
		Addr:    getenv("API_ADDR", ":8080"),
		Handler: gateway.Cors(serveMux),
	}

	// Start server in background.
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	// Block until we get a signal (or parent context canceled).
	<-rootCtx.Done()
	logger.Info("shutdown signal received")

	// Give in-flight requests up to 10s to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		// If graceful shutdown times out, force close.
		logger.Warn("graceful shutdown failed; forcing close", zap.Error(err))
		_ = server.Close()
	}

	logger.Info("server stopped")
}
