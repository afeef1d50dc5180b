package collector

import (
	"context"
	"time"

	"prestaboost/internal/models"
	"prestaboost/internal/services/prestashop"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	kindOrders = "orders"
	kindChunk  = "orders_chunk"
)

// allHistory is the cutoff used when days is 0.
var allHistory = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Cutoff returns the earliest order date collected for a window of days.
func (c *Collector) Cutoff(days int) time.Time {
	if days <= 0 {
		return allHistory
	}
	return c.now().AddDate(0, 0, -days)
}

// CollectOrdersData upserts every order added in the last days days (0 means
// all history). It lists ids with the webservice's date filter and falls back
// to an id scan from the discovered max id when that listing fails.
func (c *Collector) CollectOrdersData(ctx context.Context, b *models.Boutique, days int, opts ...RunOption) (res OrdersResult) {
	started := time.Now()
	defer func() { c.observe(kindOrders, res.Success, started, res.SavedCount) }()

	log := c.logger.With(boutiqueField(b), zap.Int("days", days))
	api := c.clients(b)
	run := c.newOrderRun(b, api, newRunConfig(opts))
	cutoff := c.Cutoff(days)

	ids, err := api.ListOrderIDsSince(ctx, cutoff)
	if err != nil {
		log.Warn("date-filtered order listing failed, falling back to id scan", zap.Error(err))
		return c.collectOrdersByScan(ctx, run, cutoff)
	}

	found := 0
	total := len(ids)
	for start := 0; start < total; start += c.opts.BatchSize {
		end := start + c.opts.BatchSize
		if end > total {
			end = total
		}

		batch := c.fetchOrders(ctx, run, ids[start:end])
		found += len(batch)
		run.save(ctx, batch)
		run.progress(end, total)

		if err := ctx.Err(); err != nil {
			log.Error("order sync interrupted", zap.Error(err))
			return OrdersResult{Strategy: StrategyDateFilter, OrdersCount: found, SavedCount: run.saved, Error: err.Error()}
		}
		if end < total {
			c.pause(ctx)
		}
	}

	log.Info("orders collected",
		zap.String("strategy", StrategyDateFilter),
		zap.Int("listed", total),
		zap.Int("fetched", found),
		zap.Int("saved", run.saved),
	)
	return OrdersResult{Success: true, Strategy: StrategyDateFilter, OrdersCount: found, SavedCount: run.saved}
}

func (c *Collector) collectOrdersByScan(ctx context.Context, run *orderRun, cutoff time.Time) OrdersResult {
	log := c.logger.With(boutiqueField(run.boutique))

	maxID, err := FindMaxOrderID(ctx, run.api, log)
	if err != nil {
		log.Error("could not determine max order id", zap.Error(err))
		return OrdersResult{Strategy: StrategyIDScan, Error: err.Error()}
	}
	if maxID == 0 {
		log.Warn("no orders found while probing for max order id")
		return OrdersResult{Success: true, Strategy: StrategyIDScan}
	}

	days := int(c.now().Sub(cutoff).Hours() / 24)
	minID := legacyScanStart(maxID, days)
	log.Info("scanning order ids", zap.Int("max_id", maxID), zap.Int("min_id", minID))

	// Ids are not chronological, so the whole window is scanned. Orders
	// without a readable date_add cannot be placed in it and are dropped.
	keep := func(o *prestashop.Order) bool {
		added, ok := c.transformer.OrderDate(o.DateAdd)
		if !ok {
			log.Debug("skipping order with unreadable date_add", zap.Int("order_id", o.ID.Int()))
			return false
		}
		return !added.Before(cutoff)
	}
	found, err := c.scanRange(ctx, run, maxID, minID, keep)
	if err != nil {
		log.Error("order scan interrupted", zap.Int("found", found), zap.Error(err))
		return OrdersResult{Strategy: StrategyIDScan, OrdersCount: found, SavedCount: run.saved, Error: err.Error()}
	}

	log.Info("orders collected",
		zap.String("strategy", StrategyIDScan),
		zap.Int("found", found),
		zap.Int("saved", run.saved),
	)
	return OrdersResult{Success: true, Strategy: StrategyIDScan, OrdersCount: found, SavedCount: run.saved}
}

// scanRange walks ids from high down to low in batches, keeping orders that
// pass keep (nil keeps everything). Kept orders are saved whenever the
// flush size is reached and then dropped from memory.
func (c *Collector) scanRange(ctx context.Context, run *orderRun, high, low int, keep func(*prestashop.Order) bool) (int, error) {
	total := high - low + 1
	found := 0
	pending := make([]*prestashop.Order, 0, c.opts.OrderFlushSize)

	for hi := high; hi >= low; hi -= c.opts.BatchSize {
		lo := hi - c.opts.BatchSize + 1
		if lo < low {
			lo = low
		}
		ids := make([]int, 0, hi-lo+1)
		for id := hi; id >= lo; id-- {
			ids = append(ids, id)
		}

		for _, o := range c.fetchOrders(ctx, run, ids) {
			if keep != nil && !keep(o) {
				continue
			}
			pending = append(pending, o)
			found++
		}
		if len(pending) >= c.opts.OrderFlushSize {
			run.save(ctx, pending)
			pending = pending[:0]
		}
		run.progress(high-lo+1, total)

		if err := ctx.Err(); err != nil {
			run.save(context.WithoutCancel(ctx), pending)
			return found, err
		}
		if lo > low {
			c.pause(ctx)
		}
	}

	run.save(ctx, pending)
	return found, nil
}

// fetchOrders loads the given ids concurrently, at most BatchSize in flight,
// and returns the orders that exist in id order. Failures are logged and skipped.
func (c *Collector) fetchOrders(ctx context.Context, run *orderRun, ids []int) []*prestashop.Order {
	results := make([]*prestashop.Order, len(ids))

	var g errgroup.Group
	g.SetLimit(c.opts.BatchSize)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			o, err := run.api.GetOrder(ctx, id)
			switch {
			case prestashop.IsNotFound(err):
				c.logger.Debug("order id not found", boutiqueField(run.boutique), zap.Int("order_id", id))
			case err != nil:
				c.logger.Warn("failed to fetch order", boutiqueField(run.boutique), zap.Int("order_id", id), zap.Error(err))
			case o != nil && o.ID.Int() > 0:
				results[i] = o
			}
			return nil
		})
	}
	_ = g.Wait()

	orders := make([]*prestashop.Order, 0, len(ids))
	for _, o := range results {
		if o != nil {
			orders = append(orders, o)
		}
	}
	return orders
}
