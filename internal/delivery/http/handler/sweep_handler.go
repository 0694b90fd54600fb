package handler

import (
	"context"
	"time"

	"anti-ghosting/internal/pkg/response"
	"anti-ghosting/internal/usecase/sweeper"

	"github.com/gofiber/fiber/v3"
)

type OverdueSweeper interface {
	RunExclusive(ctx context.Context, locker sweeper.Locker, ttl time.Duration) (sweeper.Result, error)
}

// SweepHandler lets an operator trigger the overdue sweep outside the worker
// schedule. It takes the same lock as the worker.
type SweepHandler struct {
	sweeper OverdueSweeper
	locker  sweeper.Locker
	ttl     time.Duration
}

func NewSweepHandler(s OverdueSweeper, locker sweeper.Locker, ttl time.Duration) *SweepHandler {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SweepHandler{sweeper: s, locker: locker, ttl: ttl}
}

func (h *SweepHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/internal/sweeps", h.Trigger)
}

func (h *SweepHandler) Trigger(c fiber.Ctx) error {
	res, err := h.sweeper.RunExclusive(c.Context(), h.locker, h.ttl)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}
