package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 3 * time.Second

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]Pinger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]Pinger),
	}
}

// AddCheck registers a dependency reported by the health endpoint.
// A nil pinger is ignored.
func (h *SystemHandler) AddCheck(name string, p Pinger) {
	if p == nil {
		return
	}
	h.checks[name] = p
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"invoicing-backend"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// HealthResponse is the health check payload
// @name HandlerHealthResponse
type HealthResponse struct {
	Status string            `json:"status" example:"healthy"`
	Time   string            `json:"time" example:"2026-01-23T12:00:00Z"`
	Checks map[string]string `json:"checks"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Probes the database and, when configured, the statistics cache
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status: "healthy",
		Time:   time.Now().Format(time.RFC3339),
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			logger.L(c.Request.Context()).Warn("Health check failed",
				zap.String("dependency", name),
				zap.Error(err),
			)
			resp.Checks[name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}
