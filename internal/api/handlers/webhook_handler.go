package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/revoshq/podengine/internal/events"
	"github.com/revoshq/podengine/internal/service"
)

type WebhookHandler struct {
	verifier *events.Verifier
	sched    service.SchedulerService
	trigger  service.TriggerService
}

func NewWebhookHandler(verifier *events.Verifier, sched service.SchedulerService, trigger service.TriggerService) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, sched: sched, trigger: trigger}
}

// Handle is the single provider entry point. The signature is checked over
// the raw body before anything is parsed.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("X-Webhook-Signature")

	if err := h.verifier.Verify(body, signature); err != nil {
		if errors.Is(err, events.ErrPayloadTooLarge) {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "payload too large",
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	evt, err := events.Decode(body)
	if err != nil {
		var unknown *events.ErrUnknownEvent
		if errors.As(err, &unknown) {
			// Unknown event types are acknowledged and dropped.
			slog.Info("ignoring unhandled event", "event", unknown.Event)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "ignored": true})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed payload",
		})
	}

	switch evt := evt.(type) {
	case *events.PostPublished:
		result, err := h.sched.HandlePostPublished(c.Context(), evt)
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to accept event",
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "result": result})
	case *events.PostFailed:
		if err := h.sched.HandlePostFailed(c.Context(), evt); err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to accept event",
			})
		}
	case *events.CommentReceived:
		if err := h.trigger.HandleCommentReceived(c.Context(), evt); err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to accept event",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
