package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	job "github.com/revoshq/podengine/internal/jobs"
	"github.com/revoshq/podengine/internal/service"
)

// CronHandler exposes the timer-driven jobs over HTTP so an external
// scheduler can drive them as well.
type CronHandler struct {
	cs        service.CorrelatorService
	reconcile *job.ReconcileJob
}

func NewCronHandler(cs service.CorrelatorService, reconcile *job.ReconcileJob) *CronHandler {
	return &CronHandler{cs: cs, reconcile: reconcile}
}

func (h *CronHandler) PollInvitations(c *fiber.Ctx) error {
	summary, err := h.cs.PollCycle(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "poll cycle failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *CronHandler) Reconcile(c *fiber.Ctx) error {
	h.reconcile.Run()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
