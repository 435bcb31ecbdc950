// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/orderkaro/orderkaro-backend/api"    // Import router setup
	"github.com/orderkaro/orderkaro-backend/config" // Import config loading
	"github.com/orderkaro/orderkaro-backend/internal/cache"
	"github.com/orderkaro/orderkaro-backend/internal/logger"
	"github.com/orderkaro/orderkaro-backend/internal/monitor"
	"github.com/orderkaro/orderkaro-backend/internal/notify"
	"github.com/orderkaro/orderkaro-backend/internal/retry"
	"github.com/orderkaro/orderkaro-backend/internal/storage" // Import DB connection func
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting OrderKaro backend server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// 2. Initialize Store Database Connection, retrying transient failures
	var db *sql.DB
	err = retry.Do(context.Background(), retry.DefaultPolicy, func(ctx context.Context) error {
		var openErr error
		db, openErr = storage.ConnectStoreDB(cfg)
		return openErr
	})
	if err != nil {
		customLog.Fatalf("Failed to initialize store database: %v", err)
		os.Exit(1)
	}
	defer func() {
		customLog.Println("Closing store database connection...")
		if err := db.Close(); err != nil {
			customLog.Printf("Error closing store database: %v", err)
		}
	}()

	// 3. Query cache: Redis when configured, in-process memory otherwise
	var store cache.Store
	if cfg.RedisAddr != "" {
		var redisStore *cache.RedisStore
		err = retry.Do(context.Background(), retry.DefaultPolicy, func(ctx context.Context) error {
			var connErr error
			redisStore, connErr = cache.NewRedisStore(ctx, cfg.RedisAddr)
			return connErr
		})
		if err != nil {
			customLog.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
			os.Exit(1)
		}
		customLog.Printf("Query cache backed by redis at %s", cfg.RedisAddr)
		store = redisStore
	} else {
		customLog.Println("Query cache backed by in-process memory store")
		store = cache.NewMemoryStore()
	}
	queryCache := cache.New(store, cfg.CacheTTL)
	defer queryCache.Close()

	// 4. Operational notifications and connection monitoring
	notifier := notify.NewNotifier(notify.NewLogSink())
	mon := monitor.New(db.PingContext, notifier, monitor.Options{
		Environment:               cfg.Environment,
		PingInterval:              cfg.PingInterval,
		ErrorNotificationInterval: cfg.ErrorNotificationInterval,
	})

	monCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	go mon.Start(monCtx)

	// 5. Setup Router (passing dependencies)
	router := api.SetupRouter(db, cfg, queryCache, mon, notifier)

	// 6. Start Server
	customLog.Printf("Server listening on port %s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}
