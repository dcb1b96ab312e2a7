// Package main is the entry point for the ledger server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orusledger/internal/config"
	"orusledger/internal/handlers"
	"orusledger/internal/metrics"
	"orusledger/internal/repositories"
	"orusledger/internal/repositories/cache"
	"orusledger/internal/routes"
	"orusledger/internal/services/referral"
	"orusledger/internal/services/wallet"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

// main initializes and starts the HTTP server.
// It performs the following setup:
// - Loads configuration
// - Opens the ledger store and applies migrations
// - Connects the optional Redis balance cache
// - Wires services and routes
// - Serves until SIGINT/SIGTERM
func main() {
	// Load environment variables
	config.LoadEnv()
	cfg := config.Load()

	level := slog.LevelInfo
	if !cfg.IsProduction() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repositories.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open ledger store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("⚠️ Failed to close ledger store: %v", err)
		}
	}()

	checks := map[string]handlers.Pinger{
		"database": store.Ping,
		"redis":    nil,
	}

	var balanceCache wallet.BalanceCache = cache.NoopCache{}
	if cfg.RedisHost != "" {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cacheService := cache.NewCacheService(client, cfg.CacheTTL)
		if err := cacheService.HealthCheck(context.Background()); err != nil {
			log.Printf("⚠️ Redis unavailable, balances will not be cached until it recovers: %v", err)
		} else {
			log.Println("✅ Redis connected")
		}
		balanceCache = cacheService
		checks["redis"] = cacheService.HealthCheck
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewPrometheusCollector(registry)

	walletService := wallet.NewService(
		store.Ledger,
		balanceCache,
		wallet.WalletConfig{Logger: logger},
		collector,
	)
	referralService := referral.NewService(
		store.Ledger,
		walletService,
		referral.Config{BonusCoins: cfg.ReferralBonusCoins, Logger: logger},
		collector,
	)

	// Create Fiber app
	app := routes.NewApp(cfg)
	routes.SetupRoutes(app, routes.Dependencies{
		Config:   cfg,
		Wallet:   walletService,
		Referral: referralService,
		Health:   handlers.NewHealthHandler(version, checks),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Ledger listening on :%s (store=%s, transactions=%t)", cfg.Port, store.Driver, cfg.UseTransactions)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
