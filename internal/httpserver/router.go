package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"todoservice/internal/handler"
	"todoservice/pkg/metrics"
	"todoservice/pkg/mq"
	"todoservice/pkg/trace"
)

// NewRouter wires middleware and routes. db and publisher may be nil
// (memory storage mode, MQ disabled); readiness reflects that.
func NewRouter(
	todoHandler *handler.TodoHandler,
	analyticsHandler *handler.AnalyticsHandler,
	authHandler *handler.AuthHandler,
	logger *zap.Logger,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// trace id in, request log out
	r.Use(func(c *gin.Context) {
		traceID := c.GetHeader(trace.Header)
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.Header, traceID)

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", traceID),
		)
		metrics.RecordHTTPRequestDuration(c.Request.Method, c.FullPath(), strconv.Itoa(status), latency)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/todos", todoHandler.ListTodos)
	r.POST("/todos", todoHandler.CreateTodo)
	r.GET("/todos/stats", analyticsHandler.GetStats)
	r.PUT("/todos/:id", todoHandler.ToggleTodo)
	r.DELETE("/todos/:id", todoHandler.DeleteTodo)

	r.GET("/analytics", analyticsHandler.GetAnalytics)
	r.GET("/categories", todoHandler.ListCategories)
	r.GET("/history", analyticsHandler.GetHistory)
	r.GET("/history/:date", analyticsHandler.GetDayHistory)

	r.POST("/login", authHandler.Login)
	r.GET("/session", authHandler.Session)

	return r
}
