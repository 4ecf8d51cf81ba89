package handlers

import (
	"fmt"
	"strings"

	"shopapi/internal/domain"
	"shopapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	scheme, tok, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	tok = strings.TrimSpace(tok)
	if !ok || !strings.EqualFold(scheme, "Bearer") || tok == "" {
		return "", false
	}
	return tok, true
}

func authenticate(c *fiber.Ctx, auth *services.AuthService) (*domain.User, error) {
	tok, ok := bearerToken(c)
	if !ok {
		return nil, fmt.Errorf("not authenticated: %w", domain.ErrUnauthorized)
	}
	return auth.CurrentUser(c.UserContext(), tok)
}

// RequireUser enforces a valid bearer token and stores the user in Locals.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := authenticate(c, auth)
		if err != nil {
			return fail(c, "access.denied.user", err)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireAdmin enforces a valid bearer token whose user is an admin.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := authenticate(c, auth)
		if err != nil {
			return fail(c, "access.denied.admin", err)
		}
		c.Locals("user", u)
		if !u.IsAdmin {
			return fail(c, "access.denied.admin", fmt.Errorf("insufficient permission: %w", domain.ErrForbidden))
		}
		return c.Next()
	}
}
