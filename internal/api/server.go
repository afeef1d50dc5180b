package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"prestaboost/internal/api/handlers"
	"prestaboost/internal/api/middleware"
	"prestaboost/internal/config"
	"prestaboost/internal/database"
	"prestaboost/internal/logger"
	"prestaboost/internal/queue"
	"prestaboost/internal/repository"
	"prestaboost/internal/tracker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Publisher queue.Publisher
	Planner   handlers.BackfillPlanner
	Tracker   *tracker.Tracker
	Gatherer  prometheus.Gatherer
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, deps Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	boutiques := repository.NewBoutiqueRepository(db.DB)
	jobs := repository.NewSyncJobRepository(db.DB)

	boutiqueHandler := handlers.NewBoutiqueHandler(boutiques, deps.Publisher, logger)
	syncHandler := handlers.NewSyncHandler(boutiques, jobs, deps.Tracker, deps.Planner, deps.Publisher, logger)
	stockHandler := handlers.NewStockHandler(boutiques, repository.NewStockRepository(db.DB), logger)
	orderHandler := handlers.NewOrderHandler(boutiques, repository.NewOrderRepository(db.DB), logger)
	healthHandler := handlers.NewHealthHandler(db.DB)

	router.GET("/health", healthHandler.Check)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		b := v1.Group("/boutiques")
		{
			b.GET("", boutiqueHandler.List)
			b.POST("", boutiqueHandler.Create)
			b.GET("/:id", boutiqueHandler.Get)
			b.PUT("/:id", boutiqueHandler.Update)
			b.DELETE("/:id", boutiqueHandler.Delete)

			b.POST("/:id/sync", syncHandler.Sync)
			b.POST("/:id/sync-all", syncHandler.SyncAll)
			b.GET("/:id/sync-jobs", syncHandler.Jobs)
			b.GET("/:id/sync-status", syncHandler.Status)

			b.GET("/:id/stocks", stockHandler.Latest)
			b.GET("/:id/stocks/low", stockHandler.Low)
			b.GET("/:id/stocks/:productId/history", stockHandler.History)

			b.GET("/:id/orders", orderHandler.List)
			b.GET("/:id/orders/stats", orderHandler.Stats)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
