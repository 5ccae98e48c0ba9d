package handlers

import (
	"context"

	"spiceexport/internal/middleware"
	"spiceexport/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ReminderRunner runs one delivery reminder batch.
type ReminderRunner interface {
	Run(ctx context.Context) services.RunReport
}

// ReminderHandler lets an admin run the reminder batch on demand.
type ReminderHandler struct {
	runner ReminderRunner
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(runner ReminderRunner) *ReminderHandler {
	return &ReminderHandler{runner: runner}
}

// RegisterRoutes registers the admin routes. router must already require authentication.
func (h *ReminderHandler) RegisterRoutes(router fiber.Router) {
	adminRoutes := router.Group("/admin", middleware.AdminRequired())
	adminRoutes.Post("/reminders/run", h.HandleRunReminders)
}

// HandleRunReminders runs the batch immediately and returns its report.
func (h *ReminderHandler) HandleRunReminders(c *fiber.Ctx) error {
	userID, _ := actor(c)
	log.WithField("user_id", userID).Info("Manual reminder batch requested")
	report := h.runner.Run(c.UserContext())
	if report.Error != "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Reminder batch failed",
			"error":   report.Error,
			"report":  report,
		})
	}
	return c.JSON(report)
}
