package handler

import (
	"errors"

	"go-pos-backend/internal/model"
	"go-pos-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// authUser rebuilds the caller identity set by the auth middleware.
func authUser(c *fiber.Ctx) service.AuthUser {
	user := service.AuthUser{Name: "Unknown"}

	if id, ok := c.Locals("user_id").(string); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			user.ID = parsed
		}
	}
	if name, ok := c.Locals("user_name").(string); ok {
		user.Name = name
	}
	if role, ok := c.Locals("user_role").(string); ok {
		user.Role = model.Role(role)
	}
	return user
}

// serviceError maps the service error taxonomy to an HTTP response.
func serviceError(c *fiber.Ctx, err error) error {
	var checkoutErr *service.CheckoutError
	if errors.As(err, &checkoutErr) {
		// Surface the underlying cause's status; the message keeps the
		// checkout-failed framing so clients know nothing was committed.
		return c.Status(statusFor(checkoutErr.Cause)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInsufficientPayment):
		return 400
	case errors.Is(err, service.ErrForbidden):
		return 403
	case errors.Is(err, service.ErrNotFound):
		return 404
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition):
		return 409
	default:
		return 500
	}
}
