package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"prestaboost/internal/clock"
	"prestaboost/internal/collector"
	"prestaboost/internal/config"
	"prestaboost/internal/database"
	"prestaboost/internal/lock"
	"prestaboost/internal/logger"
	"prestaboost/internal/metrics"
	"prestaboost/internal/queue"
	"prestaboost/internal/repository"
	"prestaboost/internal/scheduler"
	"prestaboost/internal/tracker"
	"prestaboost/internal/worker"
	"prestaboost/internal/worker/processors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var locker lock.Locker = lock.Noop{}
	if cfg.RedisURL != "" {
		redisLocker, rdb, err := lock.NewRedisLockerFromURL(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = redisLocker
		logger.Info("per-boutique locking enabled")
	}

	tasks := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer tasks.Close()
	deadLetters := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaDLQTopic, logger)
	defer deadLetters.Close()

	boutiques := repository.NewBoutiqueRepository(db.DB)
	orders := repository.NewOrderRepository(db.DB)
	jobs := tracker.New(repository.NewSyncJobRepository(db.DB), logger, clock.System)

	c := collector.New(
		collector.NewClientFactory(logger, collector.TimeoutsFromConfig(cfg.Collector)),
		repository.NewStockRepository(db.DB),
		orders,
		boutiques,
		logger,
		collector.WithOptions(collector.OptionsFromConfig(cfg.Collector)),
		collector.WithMetrics(m),
	)

	ep := processors.NewEventProcessor(logger)
	processors.NewCollectionHandlers(c, boutiques, orders, jobs, locker, processors.HandlerConfig{
		LockTTL:       cfg.Worker.LockTTL,
		StaleJobAfter: cfg.Scheduler.StaleJobAfter,
	}, logger).Register(ep)

	w := worker.New(cfg, logger, worker.NewKafkaReader(cfg), ep, tasks, deadLetters, m)

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.Start(ctx)
		return nil
	})
	if cfg.Scheduler.Enabled {
		s := scheduler.New(cfg.Scheduler, tasks, logger)
		g.Go(func() error {
			s.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker exited with error", zap.Error(err))
	}

	logger.Info("Shutting down worker...")
	if err := w.Stop(); err != nil {
		logger.Warn("failed to close task reader", zap.Error(err))
	}
}
