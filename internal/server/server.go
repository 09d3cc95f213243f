// Package server exposes the note service over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/alkime/pagenotes/internal/config"
	"github.com/alkime/pagenotes/internal/metrics"
	"github.com/alkime/pagenotes/internal/notes"
	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	router  *gin.Engine
	repo    notes.Service
	metrics *metrics.Metrics
}

// New creates a new Server instance backed by repo.
func New(cfg *config.Config, repo notes.Service, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Document ids may contain escaped slashes.
	router.UseRawPath = true

	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	logger.Debug("Configured trusted proxies", "proxies", cfg.TrustedProxies)

	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  router,
		repo:    repo,
		metrics: m,
	}

	// Setup middleware and routes
	router.Use(server.requestLogger(), server.instrument())
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server, nil
}

// Run starts the HTTP server
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// Router exposes the handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/api/v1", s.requireToken(), s.limitBody())
	{
		api.GET("/documents/:documentId/notes", s.handleListNotes)
		api.POST("/notes", s.handleCreateNote)
		api.PATCH("/notes/:id", s.handleUpdateNote)
		api.DELETE("/notes/:id", s.handleDeleteNote)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pagenotes",
	})
}
