package handlers

import (
	"fmt"
	"strings"

	"shopapi/internal/domain"
	"shopapi/internal/log"
	"shopapi/internal/services"
	"shopapi/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email           string `json:"email" validate:"required,email,max=255"`
	FirstName       string `json:"first_name" validate:"max=50"`
	LastName        string `json:"last_name" validate:"max=50"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=255"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

// parseBody decodes the request body into dst and validates it.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", domain.ErrValidation)
	}
	return validate.Struct(dst)
}

// POST /register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, "auth.register", err)
	}
	u, err := h.Auth.Register(c.UserContext(), domain.NewUser{
		Username:  req.Username,
		Email:     strings.TrimSpace(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Password:  req.Password,
	})
	if err != nil {
		return fail(c, "auth.register.fail", err)
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID, "username": u.Username})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// POST /login accepts a form or JSON body; username may be the email.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, "auth.login", err)
	}
	tok, err := h.Auth.Login(c.UserContext(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return fail(c, "auth.login.fail", err)
	}
	log.Audit(c, "auth.login.success", map[string]any{"username": req.Username})
	return c.JSON(fiber.Map{"access_token": tok, "token_type": "bearer"})
}

// GET /me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}
