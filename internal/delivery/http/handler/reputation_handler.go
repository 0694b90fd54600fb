package handler

import (
	"context"

	"anti-ghosting/internal/domain/reputation"
	"anti-ghosting/internal/pkg/response"
	reputationuc "anti-ghosting/internal/usecase/reputation"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ReputationService interface {
	GetReputation(ctx context.Context, companyID uuid.UUID) (reputationuc.Report, error)
	UpdateCompanyReputationScore(ctx context.Context, companyID uuid.UUID) (reputation.Score, error)
}

type ReputationHandler struct {
	svc ReputationService
}

func NewReputationHandler(svc ReputationService) *ReputationHandler {
	return &ReputationHandler{svc: svc}
}

func (h *ReputationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/companies/:id/reputation")
	grp.Get("/", h.Get)
	grp.Post("/recompute", h.Recompute)
}

func (h *ReputationHandler) Get(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	report, err := h.svc.GetReputation(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, report)
}

func (h *ReputationHandler) Recompute(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	score, err := h.svc.UpdateCompanyReputationScore(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, reputationuc.NewReport(score))
}
