// file: internal/server/server.go
// version: 1.3.0
// guid: 2c4d6e8f-0a1b-4c2d-8e3f-5a6b7c8d9e0f

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/absmeta/metadata-server/internal/database"
	"github.com/absmeta/metadata-server/internal/metrics"
	"github.com/absmeta/metadata-server/internal/provider"
	"github.com/absmeta/metadata-server/internal/server/middleware"
)

// Server wires the provider registry and cache store into the HTTP surface.
type Server struct {
	router     *gin.Engine
	registry   *provider.Registry
	store      database.CacheStore
	httpServer *http.Server
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RateLimitPerMin int
}

// GetDefaultServerConfig returns default server configuration
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         "3000",
		Host:         "0.0.0.0",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new server instance
func NewServer(registry *provider.Registry, store database.CacheStore, cfg ServerConfig) *Server {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(requestContextMiddleware())
	if cfg.RateLimitPerMin > 0 {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		router.Use(limiter.Middleware())
	}

	// Register metrics (idempotent)
	metrics.Register()

	server := &Server{
		router:   router,
		registry: registry,
		store:    store,
	}

	server.setupRoutes()

	return server
}

// Router exposes the gin engine (for tests).
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/health", s.healthCheck)

	s.router.GET("/providers", s.listProviders)

	s.router.DELETE("/cache", s.clearCache)
	s.router.DELETE("/cache/:providerId", s.clearCache)

	// Provider search: zero or more name:value tokens followed by the
	// literal "search" segment, e.g. /librivox/genre:Fantasy/search?title=X
	s.router.GET("/:providerId/*params", s.parseProviderParams, s.handleSearch)
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		log.Printf("Starting metadata server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": len(s.registry.GetAll()),
	})
}

// listProviders returns every registered provider's config document.
func (s *Server) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": s.registry.GetAllConfigs()})
}

// clearCache drops cached entries for one provider, or all of them when no
// id is given.
func (s *Server) clearCache(c *gin.Context) {
	providerID := c.Param("providerId")
	if err := s.store.ClearCache(providerID); err != nil {
		RespondWithInternalError(c, fmt.Sprintf("failed to clear cache: %v", err))
		return
	}

	scope := providerID
	if scope == "" {
		scope = "all"
	}
	log.Printf("Cache cleared: %s", scope)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cleared": scope})
}
