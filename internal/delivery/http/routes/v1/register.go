package v1

import (
	"anti-ghosting/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

// Handlers are the /api/v1 route owners. Nil handlers are skipped.
type Handlers struct {
	Applications  *handler.ApplicationHandler
	Suggestions   *handler.SuggestionHandler
	Reputation    *handler.ReputationHandler
	Notifications *handler.NotificationHandler
	Sweeps        *handler.SweepHandler
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Applications != nil {
		h.Applications.RegisterRoutes(r)
	}
	if h.Suggestions != nil {
		h.Suggestions.RegisterRoutes(r)
	}
	if h.Reputation != nil {
		h.Reputation.RegisterRoutes(r)
	}
	if h.Notifications != nil {
		h.Notifications.RegisterRoutes(r)
	}
	if h.Sweeps != nil {
		h.Sweeps.RegisterRoutes(r)
	}
}
