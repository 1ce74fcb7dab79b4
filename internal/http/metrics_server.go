package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsHandler exposes collected metrics in the Prometheus text format.
type MetricsHandler interface {
	Handler() http.Handler
}

// MetricsServer serves /metrics on its own port so scrapers never share the protocol listener.
type MetricsServer struct {
	listener
	router *gin.Engine
}

// NewMetricsServer creates a MetricsServer. A nil metrics handler leaves only /health.
func NewMetricsServer(host string, port int, logger *slog.Logger, metrics MetricsHandler) *MetricsServer {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	return &MetricsServer{
		listener: newListener("metrics server", host, port, logger),
		router:   router,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.router
}

// Start serves metrics until Shutdown is called.
func (s *MetricsServer) Start(_ context.Context) error {
	return s.serve(s.router)
}
