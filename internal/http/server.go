// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	facilityHTTP "github.com/allisson/kmi/internal/facility/http"
	"github.com/allisson/kmi/internal/metrics"
)

// HealthChecker reports whether a dependency can currently serve requests.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig holds the optional middleware settings of the router.
type RouterConfig struct {
	CORSEnabled             bool
	CORSAllowOrigins        string
	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int
	MetricsEnabled          bool
	MetricsNamespace        string
}

// Server serves the key protocol, the admin API and the health probes.
type Server struct {
	listener
	router   *gin.Engine
	facility HealthChecker
}

// NewServer creates a new HTTP server. facility backs the readiness probe.
func NewServer(
	facility HealthChecker,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		listener: newListener("http server", host, port, logger),
		facility: facility,
	}
}

// SetupRouter registers middleware and routes. adminHandler is nil when the admin
// API is disabled or the process runs as a relay. ctx bounds background work started
// by the middleware.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg RouterConfig,
	protocolHandler *facilityHTTP.ProtocolHandler,
	adminHandler *facilityHTTP.AdminHandler,
	meterProvider metric.MeterProvider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cfg.MetricsEnabled && meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	protocol := router.Group("/")
	if cfg.RateLimitEnabled {
		protocol.Use(RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	protocol.POST("/new", protocolHandler.CreateHandler)
	protocol.GET("/new", protocolHandler.CreateHandler)
	protocol.POST("/key", protocolHandler.FetchHandler)

	if adminHandler != nil {
		v1 := router.Group("/v1")
		if corsMiddleware := adminCORSMiddleware(cfg, s.logger); corsMiddleware != nil {
			v1.Use(corsMiddleware)
			// Preflight requests only reach group middleware through a matching route.
			v1.OPTIONS("/keys", func(*gin.Context) {})
			v1.OPTIONS("/keys/:lookup_key", func(*gin.Context) {})
		}
		v1.GET("/keys", adminHandler.ListHandler)
		v1.GET("/keys/:lookup_key", adminHandler.GetHandler)
		v1.DELETE("/keys/:lookup_key", adminHandler.DeleteHandler)
	} else if cfg.CORSEnabled {
		s.logger.Warn("CORS enabled but the admin API is not served - CORS will not be applied")
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is called. SetupRouter must run first.
func (s *Server) Start(_ context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not initialized, call SetupRouter first")
	}
	return s.serve(s.router)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler checks the facility can serve keys: a store probe on a master,
// a ping of the master on a relay.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if s.facility == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"facility": "error"},
		})
		return
	}

	if err := s.facility.Health(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"facility": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"facility": "ok"},
	})
}
