package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/cache"
	"github.com/jerilmartin/infini8graph/internal/db"
	"github.com/jerilmartin/infini8graph/internal/refresh"
	"github.com/jerilmartin/infini8graph/pkg/config"
	"github.com/jerilmartin/infini8graph/pkg/logging"
	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting infini8graph Cache Refresher")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Connect to Redis (optional, coordinates refresh cooldowns)
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	refresher := refresh.NewRefresher(cfg, database, redisCache)

	// Run until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down refresher...")
		cancel()
	}()

	if err := refresher.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("Refresher stopped", zap.Error(err))
	}

	logger.Info("Refresher exited")
}
