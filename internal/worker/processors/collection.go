package processors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prestaboost/internal/collector"
	"prestaboost/internal/lock"
	"prestaboost/internal/logger"
	"prestaboost/internal/models"
	"prestaboost/internal/queue"
	"prestaboost/internal/worker/processors/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Collector is the part of collector.Collector the handlers drive.
type Collector interface {
	CollectStockData(ctx context.Context, b *models.Boutique) collector.StockResult
	CollectOrdersData(ctx context.Context, b *models.Boutique, days int, opts ...collector.RunOption) collector.OrdersResult
	CollectOrdersChunk(ctx context.Context, b *models.Boutique, startID, endID int, opts ...collector.RunOption) collector.ChunkResult
}

type Boutiques interface {
	Find(ctx context.Context, id string) (*models.Boutique, error)
	List(ctx context.Context) ([]models.Boutique, error)
}

// OrderStats feeds the before/after summary of order syncs.
type OrderStats interface {
	CountAll(ctx context.Context, boutiqueID string) (int64, error)
	Revenue(ctx context.Context, boutiqueID string, from, to time.Time) (decimal.Decimal, error)
}

type JobTracker interface {
	Running(ctx context.Context, jobID string) error
	Progress(ctx context.Context, jobID string, processed, total int) error
	Complete(ctx context.Context, jobID string) error
	Fail(ctx context.Context, jobID, message string) error
	ChunkDone(ctx context.Context, jobID, chunkErr string) (*models.SyncJob, error)
	FailStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type HandlerConfig struct {
	LockTTL       time.Duration
	StaleJobAfter time.Duration
}

// CollectionHandlers runs collection tasks pulled from the queue.
type CollectionHandlers struct {
	collector Collector
	boutiques Boutiques
	orders    OrderStats
	jobs      JobTracker
	locker    lock.Locker
	validator *validation.Validator
	cfg       HandlerConfig
	logger    *logger.Logger
}

func NewCollectionHandlers(c Collector, boutiques Boutiques, orders OrderStats, jobs JobTracker, locker lock.Locker, cfg HandlerConfig, log *logger.Logger) *CollectionHandlers {
	if locker == nil {
		locker = lock.Noop{}
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	return &CollectionHandlers{
		collector: c,
		boutiques: boutiques,
		orders:    orders,
		jobs:      jobs,
		locker:    locker,
		validator: validation.New(log),
		cfg:       cfg,
		logger:    log.Named("handlers"),
	}
}

// Register wires every collection message type into ep.
func (h *CollectionHandlers) Register(ep *EventProcessor) {
	ep.Register(queue.TypeCollectBoutiqueData, func(ctx context.Context, m queue.Message) error {
		return h.CollectBoutiqueData(ctx, m.(queue.CollectBoutiqueDataMessage))
	})
	ep.Register(queue.TypeCollectOrdersChunk, func(ctx context.Context, m queue.Message) error {
		return h.CollectOrdersChunk(ctx, m.(queue.CollectOrdersChunkMessage))
	})
	ep.Register(queue.TypeSyncOrders, func(ctx context.Context, m queue.Message) error {
		return h.SyncOrders(ctx, m.(queue.SyncOrdersMessage))
	})
	ep.Register(queue.TypeSyncStocks, func(ctx context.Context, m queue.Message) error {
		return h.SyncStocks(ctx, m.(queue.SyncStocksMessage))
	})
}

// CollectBoutiqueData collects stocks and/or orders of one boutique. A failed
// collection is returned so the queue retries it; the attached job is only
// failed once no retry is left.
func (h *CollectionHandlers) CollectBoutiqueData(ctx context.Context, msg queue.CollectBoutiqueDataMessage) error {
	log := h.logger.With(zap.String("boutique_id", msg.BoutiqueID), zap.String("sync_job_id", msg.SyncJobID))

	b, err := h.loadBoutique(ctx, msg.BoutiqueID, msg.SyncJobID)
	if err != nil || b == nil {
		return err
	}
	if msg.SyncJobID != "" {
		if err := h.jobs.Running(ctx, msg.SyncJobID); err != nil {
			log.Warn("failed to mark sync job running", zap.Error(err))
		}
	}

	var failures []error
	if msg.CollectStocks {
		err := h.withLock(ctx, lock.Key(b.ID, "stocks"), func() error {
			if res := h.collector.CollectStockData(ctx, b); !res.Success {
				return fmt.Errorf("stock collection failed: %s", res.Error)
			}
			return nil
		})
		if err != nil {
			failures = append(failures, err)
		}
	}

	if msg.CollectOrders {
		var opts []collector.RunOption
		if msg.SyncJobID != "" {
			opts = append(opts, collector.WithProgress(h.progress(ctx, msg.SyncJobID)))
		}
		err := h.withLock(ctx, lock.Key(b.ID, "orders"), func() error {
			if res := h.collector.CollectOrdersData(ctx, b, msg.OrdersDays, opts...); !res.Success {
				return fmt.Errorf("order collection failed: %s", res.Error)
			}
			return nil
		})
		if err != nil {
			failures = append(failures, err)
		}
	}

	if err := errors.Join(failures...); err != nil {
		if msg.SyncJobID != "" && queue.DeliveryFrom(ctx).Final() {
			h.failJob(ctx, msg.SyncJobID, err.Error())
		}
		return fmt.Errorf("boutique %s: %w", b.ID, err)
	}

	if msg.SyncJobID != "" {
		if err := h.jobs.Complete(ctx, msg.SyncJobID); err != nil {
			log.Warn("failed to complete sync job", zap.Error(err))
		}
	}
	log.Info("boutique data collected",
		zap.Bool("stocks", msg.CollectStocks),
		zap.Bool("orders", msg.CollectOrders),
		zap.Int("days", msg.OrdersDays),
	)
	return nil
}

// CollectOrdersChunk backfills one id range. Each chunk is counted on the
// backfill job once: on success, or on its last failed attempt.
func (h *CollectionHandlers) CollectOrdersChunk(ctx context.Context, msg queue.CollectOrdersChunkMessage) error {
	b, err := h.loadBoutique(ctx, msg.BoutiqueID, msg.SyncJobID)
	if err != nil || b == nil {
		return err
	}

	key := lock.Key(b.ID, fmt.Sprintf("chunk:%d-%d", msg.StartID, msg.EndID))
	err = h.withLock(ctx, key, func() error {
		if res := h.collector.CollectOrdersChunk(ctx, b, msg.StartID, msg.EndID); !res.Success {
			return fmt.Errorf("chunk [%d, %d]: %s", msg.StartID, msg.EndID, res.Error)
		}
		return nil
	})

	if err != nil && !queue.DeliveryFrom(ctx).Final() {
		return err
	}
	if msg.SyncJobID != "" {
		chunkErr := ""
		if err != nil {
			chunkErr = err.Error()
		}
		if _, jerr := h.jobs.ChunkDone(ctx, msg.SyncJobID, chunkErr); jerr != nil {
			h.logger.Warn("failed to record chunk", zap.String("sync_job_id", msg.SyncJobID), zap.Error(jerr))
		}
	}
	return err
}

// SyncOrders syncs one boutique, or all of them when no id is given. In the
// all-boutiques form failures are logged and left to the next tick.
func (h *CollectionHandlers) SyncOrders(ctx context.Context, msg queue.SyncOrdersMessage) error {
	if msg.BoutiqueID != "" {
		b, err := h.loadBoutique(ctx, msg.BoutiqueID, "")
		if err != nil || b == nil {
			return err
		}
		return h.syncOrders(ctx, b, msg.Days)
	}

	boutiques, err := h.boutiques.List(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for i := range boutiques {
		b := &boutiques[i]
		if err := h.validator.ValidateBoutique(b); err != nil {
			h.logger.Warn("skipping boutique", zap.String("boutique_id", b.ID), zap.Error(err))
			continue
		}
		if err := h.syncOrders(ctx, b, msg.Days); err != nil {
			failed++
			h.logger.Warn("order sync failed", zap.String("boutique_id", b.ID), zap.Error(err))
		}
	}
	h.logger.Info("order sync finished", zap.Int("boutiques", len(boutiques)), zap.Int("failed", failed), zap.Int("days", msg.Days))
	return nil
}

func (h *CollectionHandlers) syncOrders(ctx context.Context, b *models.Boutique, days int) error {
	log := h.logger.With(zap.String("boutique_id", b.ID), zap.Int("days", days))
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	if days == 0 {
		from = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	before, revenueBefore := h.orderSummary(ctx, b.ID, from, to)
	log.Info("order sync starting", zap.Int64("orders", before), zap.String("revenue", revenueBefore.StringFixed(2)))

	return h.withLock(ctx, lock.Key(b.ID, "orders"), func() error {
		res := h.collector.CollectOrdersData(ctx, b, days)
		if !res.Success {
			return fmt.Errorf("order collection failed: %s", res.Error)
		}
		after, revenueAfter := h.orderSummary(ctx, b.ID, from, time.Now().UTC())
		log.Info("order sync done",
			zap.String("strategy", res.Strategy),
			zap.Int("saved", res.SavedCount),
			zap.Int64("orders", after),
			zap.Int64("new_orders", after-before),
			zap.String("revenue", revenueAfter.StringFixed(2)),
		)
		return nil
	})
}

func (h *CollectionHandlers) orderSummary(ctx context.Context, boutiqueID string, from, to time.Time) (int64, decimal.Decimal) {
	count, err := h.orders.CountAll(ctx, boutiqueID)
	if err != nil {
		h.logger.Debug("order count failed", zap.String("boutique_id", boutiqueID), zap.Error(err))
	}
	revenue, err := h.orders.Revenue(ctx, boutiqueID, from, to)
	if err != nil {
		h.logger.Debug("revenue failed", zap.String("boutique_id", boutiqueID), zap.Error(err))
	}
	return count, revenue
}

// SyncStocks snapshots one boutique, or all of them. The all-boutiques form
// also fails sync jobs stuck in running.
func (h *CollectionHandlers) SyncStocks(ctx context.Context, msg queue.SyncStocksMessage) error {
	if msg.BoutiqueID != "" {
		b, err := h.loadBoutique(ctx, msg.BoutiqueID, "")
		if err != nil || b == nil {
			return err
		}
		return h.syncStocks(ctx, b)
	}

	if h.cfg.StaleJobAfter > 0 {
		if n, err := h.jobs.FailStale(ctx, h.cfg.StaleJobAfter); err != nil {
			h.logger.Warn("stale job sweep failed", zap.Error(err))
		} else if n > 0 {
			h.logger.Info("stale sync jobs failed", zap.Int("count", n))
		}
	}

	boutiques, err := h.boutiques.List(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for i := range boutiques {
		b := &boutiques[i]
		if err := h.validator.ValidateBoutique(b); err != nil {
			h.logger.Warn("skipping boutique", zap.String("boutique_id", b.ID), zap.Error(err))
			continue
		}
		if err := h.syncStocks(ctx, b); err != nil {
			failed++
			h.logger.Warn("stock sync failed", zap.String("boutique_id", b.ID), zap.Error(err))
		}
	}
	h.logger.Info("stock sync finished", zap.Int("boutiques", len(boutiques)), zap.Int("failed", failed))
	return nil
}

func (h *CollectionHandlers) syncStocks(ctx context.Context, b *models.Boutique) error {
	return h.withLock(ctx, lock.Key(b.ID, "stocks"), func() error {
		if res := h.collector.CollectStockData(ctx, b); !res.Success {
			return fmt.Errorf("stock collection failed: %s", res.Error)
		}
		return nil
	})
}

// loadBoutique returns (nil, nil) when the task should be dropped: the
// boutique is gone or cannot be collected from.
func (h *CollectionHandlers) loadBoutique(ctx context.Context, id, jobID string) (*models.Boutique, error) {
	b, err := h.boutiques.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		h.logger.Warn("boutique not found, dropping task", zap.String("boutique_id", id))
		if jobID != "" {
			h.failJob(ctx, jobID, "boutique not found")
		}
		return nil, nil
	}
	if err := h.validator.ValidateBoutique(b); err != nil {
		h.logger.Warn("boutique cannot be collected, dropping task", zap.String("boutique_id", id), zap.Error(err))
		if jobID != "" {
			h.failJob(ctx, jobID, err.Error())
		}
		return nil, nil
	}
	return b, nil
}

func (h *CollectionHandlers) withLock(ctx context.Context, key string, fn func() error) error {
	lk, err := h.locker.Obtain(ctx, key, h.cfg.LockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
			h.logger.Debug("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}

func (h *CollectionHandlers) progress(ctx context.Context, jobID string) collector.ProgressFunc {
	return func(processed, total int) {
		if err := h.jobs.Progress(ctx, jobID, processed, total); err != nil {
			h.logger.Debug("progress update failed", zap.String("sync_job_id", jobID), zap.Error(err))
		}
	}
}

func (h *CollectionHandlers) failJob(ctx context.Context, jobID, message string) {
	if err := h.jobs.Fail(ctx, jobID, message); err != nil {
		h.logger.Warn("failed to mark sync job failed", zap.String("sync_job_id", jobID), zap.Error(err))
	}
}
