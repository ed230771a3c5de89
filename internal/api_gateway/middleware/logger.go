package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/platform/metrics"
)

// unmatchedRoute labels requests that matched no registered route
const unmatchedRoute = "unmatched"

// Logger middleware logs HTTP request details including method, path, status,
// latency, client IP, and correlation ID if present, and counts the request
// by its route template.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()

		if raw != "" {
			path = path + "?" + raw
		}

		requestLogger := logger
		if correlationID := GetCorrelationID(c); correlationID != "" {
			requestLogger = logger.With("correlation_id", correlationID)
		}

		level := slog.LevelInfo
		if statusCode >= 500 {
			level = slog.LevelError
		}
		requestLogger.Log(c.Request.Context(), level, "HTTP request",
			"method", method,
			"path", path,
			"route", route,
			"status", statusCode,
			"latency", latency,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}
