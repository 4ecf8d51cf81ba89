package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopapi/internal/domain"
	applog "shopapi/internal/log"
	"shopapi/internal/services"
)

const internalMessage = "Internal Server Error"

func ack(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg, "success": true})
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg, "success": false})
}

// statusOf maps an error kind to its HTTP status; 0 means unexpected.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	}
	return 0
}

// fail writes the error response for err. Business errors keep their
// message; anything unexpected is logged and hidden behind a generic one.
func fail(c *fiber.Ctx, action string, err error) error {
	status := statusOf(err)
	msg := err.Error()
	switch status {
	case 0:
		applog.Error(c, action, err, nil)
		return detail(c, fiber.StatusInternalServerError, internalMessage)
	case fiber.StatusUnauthorized:
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		applog.Security(c, action, map[string]any{"reason": msg})
		msg = "Could not validate credentials"
		if errors.Is(err, services.ErrBadCreds) {
			msg = "Invalid Credentials"
		}
	case fiber.StatusForbidden:
		applog.Security(c, action, nil)
		msg = "Insufficient Permission"
	case fiber.StatusUnprocessableEntity:
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": msg})
	}
	return detail(c, status, msg)
}

// ErrorHandler is the fiber fallback for errors returned by handlers or
// middleware. It never echoes internal error text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err, nil)
			return detail(c, fe.Code, internalMessage)
		}
		return detail(c, fe.Code, fe.Message)
	}
	if statusOf(err) != 0 {
		return fail(c, "server.error", err)
	}
	applog.Error(c, "server.error", err, nil)
	return detail(c, fiber.StatusInternalServerError, internalMessage)
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
