package handlers

import (
	"net/http"
	"strings"

	"prestaboost/internal/logger"
	"prestaboost/internal/models"
	"prestaboost/internal/queue"
	"prestaboost/internal/repository"
	"prestaboost/internal/worker/processors/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitialSyncDays is the order window collected right after a boutique is added.
const InitialSyncDays = 30

type BoutiqueHandler struct {
	boutiques *repository.BoutiqueRepository
	publisher queue.Publisher
	validator *validation.Validator
	logger    *logger.Logger
}

func NewBoutiqueHandler(boutiques *repository.BoutiqueRepository, publisher queue.Publisher, logger *logger.Logger) *BoutiqueHandler {
	return &BoutiqueHandler{
		boutiques: boutiques,
		publisher: publisher,
		validator: validation.New(logger),
		logger:    logger,
	}
}

type boutiqueRequest struct {
	Name              *string `json:"name"`
	Domain            *string `json:"domain"`
	APIKey            *string `json:"api_key"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	PrimaryColor      *string `json:"primary_color"`
	FontFamily        *string `json:"font_family"`
	CustomCSS         *string `json:"custom_css"`
}

func (r boutiqueRequest) apply(b *models.Boutique) {
	if r.Name != nil {
		b.Name = strings.TrimSpace(*r.Name)
	}
	if r.Domain != nil {
		b.Domain = strings.TrimSpace(*r.Domain)
	}
	if r.APIKey != nil {
		b.APIKey = strings.TrimSpace(*r.APIKey)
	}
	if r.LowStockThreshold != nil {
		b.SetLowStockThreshold(*r.LowStockThreshold)
	}
	if r.PrimaryColor != nil {
		b.PrimaryColor = r.PrimaryColor
	}
	if r.FontFamily != nil {
		b.FontFamily = r.FontFamily
	}
	if r.CustomCSS != nil {
		b.CustomCSS = r.CustomCSS
	}
}

func (h *BoutiqueHandler) List(c *gin.Context) {
	boutiques, err := h.boutiques.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list boutiques", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch boutiques"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": boutiques})
}

func (h *BoutiqueHandler) Get(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": b})
}

// Create stores the boutique and queues its first collection. A dispatch
// failure is reported as a warning, the boutique is still created.
func (h *BoutiqueHandler) Create(c *gin.Context) {
	var req boutiqueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b := &models.Boutique{}
	req.apply(b)
	if err := h.validator.ValidateBoutique(b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.boutiques.Create(ctx, b); err != nil {
		h.logger.Error("failed to create boutique", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create boutique"})
		return
	}

	resp := gin.H{"data": b}
	err := h.publisher.Publish(ctx, queue.CollectBoutiqueDataMessage{
		BoutiqueID:    b.ID,
		CollectStocks: true,
		CollectOrders: true,
		OrdersDays:    InitialSyncDays,
	})
	if err != nil {
		h.logger.Warn("failed to queue initial collection", zap.String("boutique_id", b.ID), zap.Error(err))
		resp["warning"] = "Boutique created, but data collection could not be started. Retry the sync manually."
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BoutiqueHandler) Update(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}

	var req boutiqueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.apply(b)
	if err := h.validator.ValidateBoutique(b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.boutiques.Update(c.Request.Context(), b); err != nil {
		h.logger.Error("failed to update boutique", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update boutique"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": b})
}

func (h *BoutiqueHandler) Delete(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	if err := h.boutiques.Delete(c.Request.Context(), b.ID); err != nil {
		h.logger.Error("failed to delete boutique", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete boutique"})
		return
	}
	c.Status(http.StatusNoContent)
}

// findBoutique loads the :id boutique or writes the error response.
func findBoutique(c *gin.Context, boutiques *repository.BoutiqueRepository, log *logger.Logger) (*models.Boutique, bool) {
	id := c.Param("id")
	b, err := boutiques.Find(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to fetch boutique", zap.String("boutique_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch boutique"})
		return nil, false
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Boutique not found"})
		return nil, false
	}
	return b, true
}
