package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prestaboost/internal/api"
	"prestaboost/internal/clock"
	"prestaboost/internal/collector"
	"prestaboost/internal/config"
	"prestaboost/internal/database"
	"prestaboost/internal/logger"
	"prestaboost/internal/metrics"
	"prestaboost/internal/queue"
	"prestaboost/internal/repository"
	"prestaboost/internal/tracker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logger.ForEnvironment(cfg.IsProduction(), cfg.LogLevel)
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer publisher.Close()

	boutiques := repository.NewBoutiqueRepository(db.DB)
	planner := collector.New(
		collector.NewClientFactory(logger, collector.TimeoutsFromConfig(cfg.Collector)),
		repository.NewStockRepository(db.DB),
		repository.NewOrderRepository(db.DB),
		boutiques,
		logger,
		collector.WithOptions(collector.OptionsFromConfig(cfg.Collector)),
		collector.WithMetrics(m),
	)

	server := api.New(cfg, logger, db, api.Deps{
		Publisher: publisher,
		Planner:   planner,
		Tracker:   tracker.New(repository.NewSyncJobRepository(db.DB), logger, clock.System),
		Gatherer:  reg,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
