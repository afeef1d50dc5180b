package collector

import (
	"context"
	"time"

	"prestaboost/internal/models"
	"prestaboost/internal/services/prestashop"

	"go.uber.org/zap"
)

const kindStocks = "stocks"

func boutiqueField(b *models.Boutique) zap.Field {
	return zap.String("boutique_id", b.ID)
}

// CollectStockData writes a new snapshot of every product's stock level.
// Categories are best-effort: if they cannot be fetched every product is
// saved without one. Rows flushed before a failure are kept.
func (c *Collector) CollectStockData(ctx context.Context, b *models.Boutique) (res StockResult) {
	started := time.Now()
	defer func() { c.observe(kindStocks, res.Success, started, res.SavedCount) }()

	log := c.logger.With(boutiqueField(b))
	api := c.clients(b)

	products, err := api.ListProducts(ctx)
	if err != nil {
		log.Error("failed to fetch products", zap.Error(err))
		return StockResult{Error: err.Error()}
	}

	stocks, err := api.ListStockAvailables(ctx)
	if err != nil {
		log.Error("failed to fetch stock levels", zap.Error(err))
		return StockResult{ProductsCount: len(products), Error: err.Error()}
	}

	categories, err := api.ListCategories(ctx)
	if err != nil {
		log.Warn("failed to fetch categories, continuing without", zap.Error(err))
		categories = nil
	}

	collectedAt := c.now()
	rows := c.transformer.StockSnapshots(b.ID, products, stocks, prestashop.BuildCategoryIndex(categories), collectedAt)

	saved, err := c.stocks.InsertSnapshot(ctx, rows, c.opts.StockFlushSize)
	if err != nil {
		log.Error("failed to save stock snapshot",
			zap.Int("saved", saved),
			zap.Int("total", len(rows)),
			zap.Error(err),
		)
		return StockResult{
			ProductsCount: len(products),
			StocksCount:   len(stocks),
			SavedCount:    saved,
			Error:         err.Error(),
		}
	}

	log.Info("stock snapshot collected",
		zap.Int("products", len(products)),
		zap.Int("stocks", len(stocks)),
		zap.Int("saved", saved),
		zap.Time("collected_at", collectedAt),
	)

	return StockResult{
		Success:       true,
		ProductsCount: len(products),
		StocksCount:   len(stocks),
		SavedCount:    saved,
	}
}
