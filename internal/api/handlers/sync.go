package handlers

import (
	"context"
	"net/http"
	"strconv"

	"prestaboost/internal/collector"
	"prestaboost/internal/logger"
	"prestaboost/internal/models"
	"prestaboost/internal/queue"
	"prestaboost/internal/repository"
	"prestaboost/internal/tracker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QuickSyncDays is the default order window of a manual sync.
const QuickSyncDays = 7

// BackfillPlanner discovers a boutique's order id range and splits it.
type BackfillPlanner interface {
	PlanBackfill(ctx context.Context, b *models.Boutique) (int, []collector.Range, error)
}

type SyncHandler struct {
	boutiques *repository.BoutiqueRepository
	jobs      *repository.SyncJobRepository
	tracker   *tracker.Tracker
	planner   BackfillPlanner
	publisher queue.Publisher
	logger    *logger.Logger
}

func NewSyncHandler(boutiques *repository.BoutiqueRepository, jobs *repository.SyncJobRepository, tr *tracker.Tracker, planner BackfillPlanner, publisher queue.Publisher, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		boutiques: boutiques,
		jobs:      jobs,
		tracker:   tr,
		planner:   planner,
		publisher: publisher,
		logger:    logger,
	}
}

type syncRequest struct {
	Days   *int  `json:"days"`
	Stocks *bool `json:"stocks"`
	Orders *bool `json:"orders"`
}

// Sync queues a collection tracked by a new sync job.
func (h *SyncHandler) Sync(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}

	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	days := QuickSyncDays
	if req.Days != nil {
		days = *req.Days
	}
	if days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be >= 0"})
		return
	}
	stocks := req.Stocks == nil || *req.Stocks
	orders := req.Orders == nil || *req.Orders
	if !stocks && !orders {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to sync"})
		return
	}

	jobType := models.SyncJobTypeBoth
	var jobDays *int
	switch {
	case !orders:
		jobType = models.SyncJobTypeStocks
	case !stocks:
		jobType = models.SyncJobTypeOrders
	}
	if orders {
		jobDays = &days
	}

	ctx := c.Request.Context()
	job, err := h.tracker.Start(ctx, b.ID, jobType, jobDays, 0)
	if err != nil {
		h.logger.Error("failed to create sync job", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sync job"})
		return
	}

	err = h.publisher.Publish(ctx, queue.CollectBoutiqueDataMessage{
		BoutiqueID:    b.ID,
		CollectStocks: stocks,
		CollectOrders: orders,
		OrdersDays:    days,
		SyncJobID:     job.ID,
	})
	if err != nil {
		h.logger.Warn("failed to queue sync", zap.String("boutique_id", b.ID), zap.Error(err))
		_ = h.tracker.Fail(ctx, job.ID, "could not queue sync: "+err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not start the sync, retry later", "data": job})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Sync started", "data": job})
}

// SyncAll queues a stock snapshot and a chunked backfill of every order.
func (h *SyncHandler) SyncAll(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := h.logger.With(zap.String("boutique_id", b.ID))

	if err := h.publisher.Publish(ctx, queue.CollectBoutiqueDataMessage{BoutiqueID: b.ID, CollectStocks: true}); err != nil {
		log.Warn("failed to queue stock collection", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not start the sync, retry later"})
		return
	}

	maxID, chunks, err := h.planner.PlanBackfill(ctx, b)
	if err != nil {
		log.Warn("backfill planning failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach the shop to plan the order import", "details": err.Error()})
		return
	}
	if len(chunks) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Stock sync started, no orders found", "max_order_id": 0, "chunks": 0})
		return
	}

	job, err := h.tracker.Start(ctx, b.ID, models.SyncJobTypeOrdersBackfill, nil, len(chunks))
	if err != nil {
		log.Error("failed to create backfill job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create sync job"})
		return
	}

	msgs := make([]queue.Message, 0, len(chunks))
	for _, r := range chunks {
		msgs = append(msgs, queue.CollectOrdersChunkMessage{
			BoutiqueID: b.ID,
			StartID:    r.Start,
			EndID:      r.End,
			SyncJobID:  job.ID,
		})
	}
	if err := h.publisher.Publish(ctx, msgs...); err != nil {
		log.Warn("failed to queue backfill chunks", zap.Error(err))
		_ = h.tracker.Fail(ctx, job.ID, "could not queue backfill: "+err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not start the order import, retry later", "data": job})
		return
	}

	log.Info("full sync queued", zap.Int("max_order_id", maxID), zap.Int("chunks", len(chunks)))
	c.JSON(http.StatusAccepted, gin.H{
		"message":      "Full sync started",
		"data":         job,
		"max_order_id": maxID,
		"chunks":       len(chunks),
	})
}

func (h *SyncHandler) Jobs(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	jobs, err := h.jobs.Recent(c.Request.Context(), b.ID, limit)
	if err != nil {
		h.logger.Error("failed to list sync jobs", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

type syncStatus struct {
	Active   *models.SyncJob `json:"active"`
	Progress int             `json:"progress"`
	Last     *models.SyncJob `json:"last"`
}

// Status reports the running job, if any, and the latest job.
func (h *SyncHandler) Status(c *gin.Context) {
	b, ok := findBoutique(c, h.boutiques, h.logger)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	active, err := h.jobs.FindActive(ctx, b.ID)
	if err != nil {
		h.logger.Error("failed to fetch active job", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync status"})
		return
	}
	recent, err := h.jobs.Recent(ctx, b.ID, 1)
	if err != nil {
		h.logger.Error("failed to fetch last job", zap.String("boutique_id", b.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync status"})
		return
	}

	status := syncStatus{Active: active}
	if active != nil {
		status.Progress = active.ProgressPercentage()
	}
	if len(recent) > 0 {
		status.Last = &recent[0]
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}
