package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/keywordpulse/keywordpulse/internal/api/respond"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// global health flag (1 = healthy, 0 = unhealthy)
var healthyFlag atomic.Int32

func init() {
	healthyFlag.Store(0)
}

// BindServiceHealth allows run.go to inject the store health function.
var storeIsHealthy func() bool = func() bool { return healthyFlag.Load() == 1 }

func BindServiceHealth(f func() bool) { storeIsHealthy = f }

// BindTrendsHealth injects the trend-provider probe; absent means unknown.
var trendsStatus func() map[string]interface{}

func BindTrendsHealth(f func() map[string]interface{}) { trendsStatus = f }

// CheckHealth handles GET /api/health.
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if storeIsHealthy() {
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if trendsStatus != nil {
		response["trends"] = trendsStatus()
	}
	respond.WriteJSON(w, http.StatusOK, response)
}
