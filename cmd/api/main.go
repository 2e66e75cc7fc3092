package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cardpulse/marketscan/pkg/config"
	"github.com/cardpulse/marketscan/pkg/logger"
	"github.com/cardpulse/marketscan/pkg/marketplace"
	"github.com/cardpulse/marketscan/pkg/marketplace/cardshq"
	"github.com/cardpulse/marketscan/pkg/marketplace/ebay"
	"github.com/cardpulse/marketscan/pkg/marketplace/myslabs"
	"github.com/cardpulse/marketscan/pkg/redisclient"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	log.Info("starting marketscan API server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	// Token caching is an opt-in enhancement: without Redis every eBay
	// search re-authenticates, which is the accepted baseline.
	var tokenCache ebay.TokenCache = ebay.NopTokenCache{}
	if cfg.RedisURL != "" {
		redisClient, err := redisclient.New(cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, token caching degraded", zap.Error(err))
		}
		cancel()

		tokenCache = ebay.NewRedisTokenCache(redisClient)
		log.Info("ebay token cache enabled")
	}

	registry := marketplace.NewRegistry()
	registry.Register("ebay", ebay.New(cfg.Ebay, tokenCache))
	registry.Register("cardshq", cardshq.New(cfg.CardsHQBaseURL))
	registry.Register("myslabs", myslabs.New(cfg.MySlabsBaseURL, cfg.MySlabsPageDelay))

	aggregator := marketplace.NewAggregator(registry, cfg.FetchTimeout)
	srv := NewServer(aggregator)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     srv.Routes(),
		ReadTimeout: 30 * time.Second,
		// A search holds its response open while the slowest
		// marketplace paginates, so the write timeout must outlast the
		// per-fetch timeout.
		WriteTimeout: cfg.FetchTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
