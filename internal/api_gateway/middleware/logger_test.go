package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/infyemailer-backoffice/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("LogsRequestDetails", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		router := gin.New()
		router.Use(CorrelationID())
		router.Use(Logger(testLogger))

		router.GET("/clients/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		req, _ := http.NewRequest(http.MethodGet, "/clients/7?param=value", nil)
		req.Header.Set("User-Agent", "test-agent")
		testCorrelationID := uuid.New().String()
		req.Header.Set(CorrelationIDHeader, testCorrelationID)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		logOutput := logBuffer.String()
		assert.NotEmpty(t, logOutput, "Log output should not be empty")

		assert.Contains(t, logOutput, `"level":"INFO"`)
		assert.Contains(t, logOutput, `"msg":"HTTP request"`)
		assert.Contains(t, logOutput, `"method":"GET"`)
		assert.Contains(t, logOutput, `"path":"/clients/7?param=value"`)
		assert.Contains(t, logOutput, `"route":"/clients/:id"`)
		assert.Contains(t, logOutput, `"status":200`)
		assert.Contains(t, logOutput, `"latency":`)
		assert.Contains(t, logOutput, `"client_ip":`)
		assert.Contains(t, logOutput, `"user_agent":"test-agent"`)
		assert.Contains(t, logOutput, `"correlation_id":"`+testCorrelationID+`"`)
	})

	t.Run("LogsRequestDetailsWithoutProvidedCorrelationID", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		router := gin.New()
		router.Use(Logger(testLogger))
		router.Use(CorrelationID())

		router.POST("/another_log", func(c *gin.Context) {
			c.String(http.StatusCreated, "Created")
		})

		req, _ := http.NewRequest(http.MethodPost, "/another_log", strings.NewReader("body"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		logOutput := logBuffer.String()

		assert.Contains(t, logOutput, `"msg":"HTTP request"`)
		assert.Contains(t, logOutput, `"method":"POST"`)
		assert.Contains(t, logOutput, `"path":"/another_log"`)
		assert.Contains(t, logOutput, `"status":201`)
		assert.Contains(t, logOutput, `"correlation_id":`, "correlation id set by a later middleware is still logged")
	})

	t.Run("ServerErrorsLogAtErrorLevel", func(t *testing.T) {
		var logBuffer bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuffer, nil))

		router := gin.New()
		router.Use(Logger(testLogger))
		router.GET("/broken", func(c *gin.Context) {
			c.Status(http.StatusServiceUnavailable)
		})

		req, _ := http.NewRequest(http.MethodGet, "/broken", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, logBuffer.String(), `"level":"ERROR"`)
	})

	t.Run("CountsRequestsByRoute", func(t *testing.T) {
		router := gin.New()
		router.Use(Logger(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))))
		router.GET("/lists/:id", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		matched := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/lists/:id", "200")
		unmatched := metrics.HTTPRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
		beforeMatched := testutil.ToFloat64(matched)
		beforeUnmatched := testutil.ToFloat64(unmatched)

		for _, path := range []string{"/lists/1", "/lists/2", "/nowhere"} {
			req, _ := http.NewRequest(http.MethodGet, path, nil)
			router.ServeHTTP(httptest.NewRecorder(), req)
		}

		assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched))
		assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
	})
}
