package handler

import (
	"context"

	"anti-ghosting/internal/pkg/response"
	"anti-ghosting/internal/usecase/suggestion"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SuggestionGenerator interface {
	GenerateCommunicationSuggestion(ctx context.Context, applicationID uuid.UUID, c suggestion.Context) (suggestion.Suggestion, error)
}

type SuggestionHandler struct {
	gen SuggestionGenerator
}

func NewSuggestionHandler(gen SuggestionGenerator) *SuggestionHandler {
	return &SuggestionHandler{gen: gen}
}

func (h *SuggestionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/applications/:id/suggestions", h.Suggest)
}

// Suggest drafts a message for ?context=status_update|rejection|interview_invite.
func (h *SuggestionHandler) Suggest(c fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	sc, err := suggestion.ParseContext(c.Query("context"))
	if err != nil {
		return err
	}

	out, err := h.gen.GenerateCommunicationSuggestion(c.Context(), id, sc)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}
