package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/config"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/logger"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/persistence"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/seed"
	"go.uber.org/zap"
)

func main() {
	defaults := seed.DefaultConfig(time.Now())
	cfg := defaults

	var (
		logLevel  string
		batchSize int
	)
	flag.Uint64Var(&cfg.Seed, "seed", defaults.Seed, "Random seed (0 for non-deterministic output)")
	flag.IntVar(&cfg.Products, "products", defaults.Products, "Number of catalog products")
	flag.IntVar(&cfg.Customers, "customers", defaults.Customers, "Size of the customer pool")
	flag.IntVar(&cfg.Orders, "orders", defaults.Orders, "Number of orders to generate")
	flag.IntVar(&cfg.Days, "days", defaults.Days, "Days of history ending today")
	flag.IntVar(&cfg.MaxLineItems, "max-items", defaults.MaxLineItems, "Maximum line items per order")
	flag.IntVar(&batchSize, "batch", 500, "Orders written per batch")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	appCfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if appCfg.Analytics.StoreBackend != "gorm" {
		log.Fatal("Seeding writes to the SQL record store; set BI_ANALYTICS_STORE_BACKEND=gorm",
			zap.String("store_backend", appCfg.Analytics.StoreBackend))
	}

	gen, err := seed.NewGenerator(cfg)
	if err != nil {
		log.Fatal("Invalid seed settings", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&appCfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	store := persistence.NewGormRecordStore(db.DB)
	if appCfg.Database.Driver == "sqlite" {
		if err := store.Migrate(); err != nil {
			log.Fatal("Failed to migrate sqlite store", zap.Error(err))
		}
	}

	started := time.Now()
	dataset := gen.Generate()
	if err := seed.Load(context.Background(), store, dataset, batchSize); err != nil {
		log.Fatal("Failed to write dataset", zap.Error(err))
	}

	log.Info("Seed data written",
		zap.Int("products", len(dataset.Products)),
		zap.Int("orders", len(dataset.Orders)),
		zap.Uint64("seed", cfg.Seed),
		zap.Time("window_end", cfg.End),
		zap.Duration("elapsed", time.Since(started)),
	)
}
