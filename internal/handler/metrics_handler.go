package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/devops-api/internal/dto"
	"github.com/prohmpiriya/devops-api/internal/service"
	"github.com/prohmpiriya/devops-api/pkg/response"
)

// MetricsHandler exposes the request counters
type MetricsHandler struct {
	metricsService service.MetricsService
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metricsService service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metricsService: metricsService}
}

// Get returns a metrics snapshot
// GET /api/metrics
func (h *MetricsHandler) Get(c *gin.Context) {
	response.Success(c, h.metricsService.Snapshot())
}

// Reset zeroes the counters and restarts uptime
// POST /api/metrics/reset
func (h *MetricsHandler) Reset(c *gin.Context) {
	h.metricsService.Reset()
	response.Success(c, dto.MessageResponse{Message: "Metrics reset successfully"})
}
