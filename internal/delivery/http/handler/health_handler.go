package handler

import (
	"context"
	"time"

	"anti-ghosting/internal/delivery/http/dto"
	"anti-ghosting/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness. Named checks are probed on every call; a
// failing check turns the response into 503.
type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	out := dto.HealthResponse{Status: "ok"}
	status := fiber.StatusOK
	if len(h.checks) > 0 {
		out.Components = make(map[string]string, len(h.checks))
	}
	for name, p := range h.checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			out.Components[name] = "down"
			out.Status = "degraded"
			status = fiber.StatusServiceUnavailable
			continue
		}
		out.Components[name] = "up"
	}
	return response.Success(c, status, response.DefaultMessage(status), out)
}
