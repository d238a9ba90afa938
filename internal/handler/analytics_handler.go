package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoservice/internal/service"
)

type AnalyticsHandler struct {
	svc    *service.AnalyticsService
	logger *zap.Logger
}

func NewAnalyticsHandler(svc *service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

// GetStats handles GET /todos/stats.
func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("GetStats: failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAnalytics handles GET /analytics.
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	analytics, err := h.svc.Analytics(c.Request.Context())
	if err != nil {
		h.logger.Error("GetAnalytics: failed to compute analytics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute analytics"})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// GetHistory handles GET /history?limit=N.
func (h *AnalyticsHandler) GetHistory(c *gin.Context) {
	limit := 30
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.logger.Warn("GetHistory: invalid limit", zap.String("limit", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	history, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("GetHistory: failed to compute history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetDayHistory handles GET /history/:date (YYYY-MM-DD).
func (h *AnalyticsHandler) GetDayHistory(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		h.logger.Warn("GetDayHistory: invalid date", zap.String("date", date))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	day, err := h.svc.DayHistory(c.Request.Context(), date)
	if err != nil {
		h.logger.Error("GetDayHistory: failed to compute history",
			zap.String("date", date),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute history"})
		return
	}
	c.JSON(http.StatusOK, day)
}
