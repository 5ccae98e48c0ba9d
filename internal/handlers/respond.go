package handlers

import (
	"errors"
	"fmt"

	"spiceexport/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// parseBody decodes and validates the request body into dst. When ok is false the
// error response has already been written and err must be returned as is.
func parseBody(c *fiber.Ctx, validate *validator.Validate, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		log.WithError(err).WithField("path", c.Path()).Debug("Error parsing request body")
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(dst); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Namespace()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *fiber.Ctx, err error, message string) error {
	var (
		ve  *models.ValidationError
		ise *models.InvalidStateError
		ite *models.InvalidTransitionError
		nf  *models.NotFoundError
		ce  *models.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
			"field":   ve.Field,
		})
	case errors.As(err, &ise):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":        message,
			"error":          err.Error(),
			"current_status": ise.Current,
		})
	case errors.As(err, &ite):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":          message,
			"error":            err.Error(),
			"current_status":   ite.From,
			"requested_status": ite.To,
		})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.As(err, &ce):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
			"version": ce.Actual,
			"retry":   true,
		})
	}
	log.WithError(err).WithField("path", c.Path()).Error(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   "internal server error",
	})
}

// actor returns the authenticated caller stored by middleware.AuthRequired.
func actor(c *fiber.Ctx) (string, models.Role) {
	id, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	return id, models.Role(role)
}
