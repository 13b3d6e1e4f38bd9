package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/devops-api/internal/dto"
	"github.com/prohmpiriya/devops-api/pkg/response"
)

// Pinger is a dependency that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceInfo describes the running service
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
	Features    []string
}

// HealthHandler handles health, status and info requests
type HealthHandler struct {
	info   ServiceInfo
	checks map[string]Pinger
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
// Nil entries in checks are reported as "not configured".
func NewHealthHandler(info ServiceInfo, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{info: info, checks: checks, now: time.Now}
}

// Health returns basic liveness
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, dto.HealthResponse{
		Status:      "healthy",
		Service:     h.info.Name,
		Version:     h.info.Version,
		Environment: h.info.Environment,
		Timestamp:   h.now().UTC(),
	})
}

// Ready pings every configured dependency
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	checks := make(map[string]string, len(names))
	for _, name := range names {
		p := h.checks[name]
		if p == nil {
			checks[name] = "not configured"
			continue
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = "disconnected"
			ready = false
			continue
		}
		checks[name] = "connected"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Success: false,
			Data:    dto.ReadyResponse{Status: "not_ready", Checks: checks},
			Error: &response.ErrorData{
				Code:    "NOT_READY",
				Message: "One or more dependencies are unavailable",
			},
		})
		return
	}

	response.Success(c, dto.ReadyResponse{Status: "ready", Checks: checks})
}

// Status reports that the API is running
// GET /api/status
func (h *HealthHandler) Status(c *gin.Context) {
	response.Success(c, dto.StatusResponse{
		Message:     "API is running",
		Environment: h.info.Environment,
		Timestamp:   h.now().UTC(),
	})
}

// Info describes the project
// GET /api/info
func (h *HealthHandler) Info(c *gin.Context) {
	features := h.info.Features
	if features == nil {
		features = []string{}
	}
	response.Success(c, dto.InfoResponse{
		Project:  h.info.Name,
		Version:  h.info.Version,
		Features: features,
	})
}

// NotFound answers unknown routes
func (h *HealthHandler) NotFound(c *gin.Context) {
	response.NotFound(c, "Route not found", c.Request.URL.Path)
}
