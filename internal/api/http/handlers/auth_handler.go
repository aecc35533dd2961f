package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ivd-portal/inscription-service/internal/api/dto"
	"github.com/ivd-portal/inscription-service/internal/service"
)

// AuthHandler exposes login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	req, err := parseBody[dto.LoginRequest](c)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	account, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuthResponse(account, token, exp)})
}
