package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"concierge/internal/models"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	checks map[string]Pinger
}

// NewProbeHandler creates a new probe handler. Nil checks are skipped, so
// optional dependencies can be passed unconditionally.
func NewProbeHandler(checks map[string]Pinger) *ProbeHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &ProbeHandler{checks: active}
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(models.HealthResponse{Status: "ok"})
}

// Readiness handles the /readyz endpoint for Kubernetes readiness probes.
// Returns 200 OK if every configured dependency is reachable.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.HealthResponse{
				Status: "error",
				Error:  name + " unavailable",
			})
		}
	}

	return c.JSON(models.HealthResponse{Status: "ok"})
}
