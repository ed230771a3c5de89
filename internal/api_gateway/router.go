package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/api_gateway/handler"
	"github.com/infyemailer-backoffice/internal/api_gateway/middleware"
	"github.com/infyemailer-backoffice/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routeRegistrar is implemented by every handler that mounts its own routes
type routeRegistrar interface {
	Register(rg *gin.RouterGroup)
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	metricsCfg config.MetricsConfig,
	handlers ...routeRegistrar,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	for _, h := range handlers {
		h.Register(v1)
	}

	if metricsCfg.Enabled {
		r.GET(metricsCfg.Path, gin.WrapH(promhttp.Handler()))
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	r.NoRoute(func(c *gin.Context) {
		handler.RespondNotFound(c, "Route not found")
	})
}
