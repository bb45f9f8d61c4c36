package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness and dependency status
type HealthHandler struct {
	BaseHandler
	startTime time.Time
	checks    map[string]HealthCheck
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Uptime  string            `json:"uptime" example:"1h30m45s"`
	Details map[string]string `json:"details,omitempty"`
}

// NewHealthHandler creates a new HealthHandler. checks are keyed by
// dependency name.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		checks:    checks,
	}
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Details: make(map[string]string, len(h.checks)),
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Details[name] = err.Error()
			continue
		}
		resp.Details[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
