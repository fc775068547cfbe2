package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/revoshq/podengine/internal/service"
)

type DeadLetterHandler struct {
	s service.DeadLetterService
}

func NewDeadLetterHandler(s service.DeadLetterService) *DeadLetterHandler {
	return &DeadLetterHandler{s: s}
}

func (h *DeadLetterHandler) ListUnresolved(c *fiber.Ctx) error {
	entries, err := h.s.ListUnresolved(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to list dead letters",
		})
	}
	return c.Status(fiber.StatusOK).JSON(entries)
}

type resolveRequest struct {
	ID    int64  `json:"id"`
	Notes string `json:"notes"`
}

func (h *DeadLetterHandler) Resolve(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse body",
		})
	}
	if req.ID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	if err := h.s.Resolve(c.Context(), req.ID, req.Notes); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to resolve dead letter",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}
