// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shuvam-shrestha/famnotify/internal/config"
	"github.com/shuvam-shrestha/famnotify/internal/feed"
	"github.com/shuvam-shrestha/famnotify/internal/jobs"
	"github.com/shuvam-shrestha/famnotify/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	engine      *feed.Engine
	feedHandler *feed.Handler

	retentionJob *jobs.FeedRetentionJob
}

// NewServer creates a new instance of our application server. The merge
// engine and the family gate are constructed once here and passed down
// explicitly; nothing reaches for them ambiently.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	engine *feed.Engine,
	feedHandler *feed.Handler,
	familyGate *middleware.FamilyGate,
	retentionJob *jobs.FeedRetentionJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.FamilyCodeHeader, middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Family Hub API is healthy!"})
	})

	v1 := router.Group("/api/v1")
	feedHandler.RegisterRoutes(v1, familyGate.Handler())

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
		// No WriteTimeout: the SSE feed stream stays open indefinitely.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		httpServer:   httpServer,
		router:       router,
		cfg:          cfg,
		logger:       logger,
		engine:       engine,
		feedHandler:  feedHandler,
		retentionJob: retentionJob,
	}, nil
}

func (s *Server) Start() error {
	if err := s.engine.Start(context.Background()); err != nil {
		s.logger.Error("Failed to open feed subscription", zap.Error(err))
		return err
	}

	if s.retentionJob != nil {
		if err := s.retentionJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start feed retention job", zap.Error(err))
		}
	} else {
		s.logger.Info("Feed retention job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
		zap.String("feed_store_driver", s.cfg.FeedStoreDriver),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.retentionJob != nil {
		s.retentionJob.Stop()
	}
	s.engine.Close()
	return s.httpServer.Shutdown(ctx)
}
