package handlers

import (
	"net/http"
	"strconv"
	"time"

	"prestaboost/internal/logger"
	"prestaboost/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderHandler struct {
	boutiques *repository.BoutiqueRepository
	orders    *repository.OrderRepository
	logger    *logger.Logger
}

func NewOrderHandler(boutiques *repository.BoutiqueRepository, orders *repository.OrderRepository, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{boutiques: boutiques, orders: orders, logger: logger}
}

func (h *OrderHandler) List(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	orders, err := h.orders.Recent(c.Request.Context(), b.ID, limit)
	if err != nil {
		h.logger.Error("failed to list orders", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

type orderStats struct {
	Days          int             `json:"days"`
	Orders        int64           `json:"orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageBasket decimal.Decimal `json:"average_basket"`
	TotalOrders   int64           `json:"total_orders"`
}

// Stats summarizes orders dated in the last days (default 30).
func (h *OrderHandler) Stats(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	ctx := c.Request.Context()
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	stats := orderStats{Days: days}
	if stats.Orders, err = h.orders.Count(ctx, b.ID, from, to); err == nil {
		if stats.Revenue, err = h.orders.Revenue(ctx, b.ID, from, to); err == nil {
			stats.TotalOrders, err = h.orders.CountAll(ctx, b.ID)
		}
	}
	if err != nil {
		h.logger.Error("failed to compute order stats", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order stats"})
		return
	}
	if stats.Orders > 0 {
		stats.AverageBasket = stats.Revenue.Div(decimal.NewFromInt(stats.Orders)).Round(2)
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
