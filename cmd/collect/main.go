// Command collect runs collections synchronously, without the queue.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"prestaboost/internal/collector"
	"prestaboost/internal/config"
	"prestaboost/internal/database"
	"prestaboost/internal/logger"
	"prestaboost/internal/models"
	"prestaboost/internal/repository"

	"go.uber.org/zap"
)

type flags struct {
	boutique   string
	all        bool
	stocks     bool
	orders     bool
	days       int
	chunkStart int
	chunkEnd   int
	branding   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var f flags
	flag.StringVar(&f.boutique, "boutique", "", "boutique id")
	flag.BoolVar(&f.all, "all", false, "run for every boutique")
	flag.BoolVar(&f.stocks, "stocks", false, "collect a stock snapshot")
	flag.BoolVar(&f.orders, "orders", false, "collect recent orders")
	flag.IntVar(&f.days, "days", 7, "order window in days, 0 for all history")
	flag.IntVar(&f.chunkStart, "chunk-start", 0, "first order id of a backfill chunk")
	flag.IntVar(&f.chunkEnd, "chunk-end", 0, "last order id of a backfill chunk")
	flag.BoolVar(&f.branding, "branding", false, "refresh logo, favicon and theme color")
	flag.Parse()

	if (f.boutique == "") == !f.all {
		fmt.Fprintln(os.Stderr, "exactly one of -boutique or -all is required")
		flag.Usage()
		return 2
	}
	chunk := f.chunkStart > 0 || f.chunkEnd > 0
	if !f.stocks && !f.orders && !f.branding && !chunk {
		f.stocks, f.orders = true, true
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	logger := logger.ForEnvironment(cfg.IsProduction(), cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	boutiques := repository.NewBoutiqueRepository(db.DB)
	c := collector.New(
		collector.NewClientFactory(logger, collector.TimeoutsFromConfig(cfg.Collector)),
		repository.NewStockRepository(db.DB),
		repository.NewOrderRepository(db.DB),
		boutiques,
		logger,
		collector.WithOptions(collector.OptionsFromConfig(cfg.Collector)),
	)

	targets, err := loadTargets(ctx, boutiques, f)
	if err != nil {
		logger.Fatal("Failed to load boutiques", zap.Error(err))
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	failed := false
	for i := range targets {
		b := &targets[i]
		report := map[string]interface{}{"boutique_id": b.ID, "name": b.Name}
		if f.stocks {
			res := c.CollectStockData(ctx, b)
			failed = failed || !res.Success
			report["stocks"] = res
		}
		if f.orders {
			res := c.CollectOrdersData(ctx, b, f.days)
			failed = failed || !res.Success
			report["orders"] = res
		}
		if chunk {
			res := c.CollectOrdersChunk(ctx, b, f.chunkStart, f.chunkEnd)
			failed = failed || !res.Success
			report["chunk"] = res
		}
		if f.branding {
			res := c.CollectBrandingData(ctx, b)
			failed = failed || !res.Success
			report["branding"] = res
		}
		if err := out.Encode(report); err != nil {
			logger.Error("failed to write report", zap.Error(err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	if failed {
		return 1
	}
	return 0
}

func loadTargets(ctx context.Context, boutiques *repository.BoutiqueRepository, f flags) ([]models.Boutique, error) {
	if f.all {
		return boutiques.List(ctx)
	}
	b, err := boutiques.Find(ctx, f.boutique)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("boutique %s not found", f.boutique)
	}
	return []models.Boutique{*b}, nil
}
