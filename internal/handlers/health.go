package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alphafinder/rategate/internal/ratelimit"
	"github.com/alphafinder/rategate/internal/store"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	store  store.Store
	health *ratelimit.Health
}

// NewHealthChecker creates a health checker over the shared store and the
// limiter's fallback tracker.
func NewHealthChecker(st store.Store, health *ratelimit.Health) *HealthChecker {
	return &HealthChecker{store: st, health: health}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. Basic mode only reports the
// process is up; extended mode probes the shared store. A degraded limiter
// is reported in the checks but never fails the check: the service keeps
// serving while the store is down.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)

		if err := h.checkStore(r.Context()); err != nil {
			checks["store"] = "unhealthy: " + err.Error()
		} else {
			checks["store"] = "healthy"
		}

		if h.health.Degraded() {
			checks["limiter"] = "degraded (failing open)"
		} else {
			checks["limiter"] = "healthy"
		}

		response.Checks = checks
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) checkStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.store.Ping(ctx)
}
