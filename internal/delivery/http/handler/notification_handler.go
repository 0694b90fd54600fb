package handler

import (
	"anti-ghosting/internal/pkg/response"
	"anti-ghosting/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type NotificationHandler struct {
	uc usecase.NotificationUsecase
}

func NewNotificationHandler(uc usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/users/:id/notifications")
	grp.Get("/", h.List)
	grp.Post("/:nid/read", h.MarkRead)
}

func (h *NotificationHandler) List(c fiber.Ctx) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	unread, err := boolQuery(c, "unread")
	if err != nil {
		return err
	}
	limit, err := limitQuery(c)
	if err != nil {
		return err
	}

	items, err := h.uc.ListForRecipient(c.Context(), userID, unread, limit)
	if err != nil {
		return err
	}
	return response.List(c, items, limit)
}

func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	nid, err := uuidParam(c, "nid")
	if err != nil {
		return err
	}

	n, err := h.uc.MarkRead(c.Context(), nid, userID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, n)
}
