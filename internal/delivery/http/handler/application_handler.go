package handler

import (
	"anti-ghosting/internal/clock"
	"anti-ghosting/internal/delivery/http/dto"
	"anti-ghosting/internal/delivery/http/middleware"
	"anti-ghosting/internal/domain/application"
	"anti-ghosting/internal/pkg/response"
	"anti-ghosting/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ApplicationHandler struct {
	uc    usecase.ApplicationUsecase
	clock clock.Clock
}

func NewApplicationHandler(uc usecase.ApplicationUsecase, clk clock.Clock) *ApplicationHandler {
	return &ApplicationHandler{uc: uc, clock: clock.OrSystem(clk)}
}

func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/applications")
	grp.Post("/", h.Apply)
	grp.Get("/:id", h.Get)
	grp.Patch("/:id/status", h.UpdateStatus)
	grp.Get("/:id/timeline", h.Timeline)
	grp.Post("/:id/feedback", h.SubmitFeedback)
}

func (h *ApplicationHandler) Apply(c fiber.Ctx) error {
	var req dto.ApplyRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid request body", nil, err)
	}

	app, err := h.uc.Apply(c.Context(), usecase.ApplyInput{JobID: req.JobID, CandidateID: req.CandidateID})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewApplicationResponse(app, h.clock.Now()))
}

func (h *ApplicationHandler) Get(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	app, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationResponse(app, h.clock.Now()))
}

func (h *ApplicationHandler) UpdateStatus(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid request body", nil, err)
	}
	status, ok := application.ParseStatus(req.Status)
	if !ok {
		return middleware.BadRequest("status", nil)
	}

	app, err := h.uc.UpdateStatus(c.Context(), id, usecase.UpdateStatusInput{Status: status, Notes: req.Notes})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewApplicationResponse(app, h.clock.Now()))
}

func (h *ApplicationHandler) Timeline(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	entries, err := h.uc.Timeline(c.Context(), id)
	if err != nil {
		return err
	}
	return response.List(c, dto.NewTimelineResponse(entries), 0)
}

func (h *ApplicationHandler) SubmitFeedback(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.FeedbackRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid request body", nil, err)
	}

	fb, err := h.uc.SubmitFeedback(c.Context(), id, usecase.FeedbackInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewFeedbackResponse(fb))
}
