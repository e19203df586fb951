package api

import (
	"net/http"
	"time"

	respond "github.com/Unknown-2829/Hitek-db-api-web/internal/api/respond"
)

// ServiceHealth is the aggregated view the health endpoint reports.
type ServiceHealth interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	svc ServiceHealth
}

func NewHealthHandler(svc ServiceHealth) *HealthHandler { return &HealthHandler{svc: svc} }

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.svc.IsHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"components": h.svc.Components(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
