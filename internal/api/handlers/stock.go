package handlers

import (
	"net/http"
	"strconv"
	"time"

	"prestaboost/internal/logger"
	"prestaboost/internal/models"
	"prestaboost/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StockHandler struct {
	boutiques *repository.BoutiqueRepository
	stocks    *repository.StockRepository
	logger    *logger.Logger
}

func NewStockHandler(boutiques *repository.BoutiqueRepository, stocks *repository.StockRepository, logger *logger.Logger) *StockHandler {
	return &StockHandler{boutiques: boutiques, stocks: stocks, logger: logger}
}

// Latest returns the most recent snapshot row of every product.
func (h *StockHandler) Latest(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	rows, err := h.stocks.Latest(ctx, b.ID)
	if err != nil {
		h.fail(c, b, err)
		return
	}
	stats, err := h.stocks.LatestStats(ctx, b.ID, b.LowStockThreshold)
	if err != nil {
		h.fail(c, b, err)
		return
	}
	collectedAt, err := h.stocks.LatestCollectedAt(ctx, b.ID)
	if err != nil {
		h.fail(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "stats": stats, "collected_at": collectedAt})
}

// Low splits current stock into out-of-stock and low-stock products.
func (h *StockHandler) Low(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	threshold := b.LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be an integer"})
			return
		}
		threshold = models.ClampThreshold(v)
	}

	report, err := h.stocks.LowStock(c.Request.Context(), b.ID, threshold)
	if err != nil {
		h.fail(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

// History returns one product's snapshots over the last days (default 30).
func (h *StockHandler) History(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := h.stocks.ProductHistory(c.Request.Context(), b.ID, productID, since)
	if err != nil {
		h.fail(c, b, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *StockHandler) fail(c *gin.Context, b *models.Boutique, err error) {
	h.logger.Error("failed to fetch stock", zap.String("boutique_id", b.ID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stock"})
}
