package handler

import (
	"fmt"
	"strings"

	"go-catalog-ws/internal/service"
	"go-catalog-ws/pkg/errs"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a customer account
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: Invalid JSON", errs.ErrClient)
	}

	user, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payload": user})
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: Invalid JSON", errs.ErrClient)
	}

	response, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// ValidateToken checks the bearer token (or {"token"} body) and returns its user
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	token := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		_ = c.BodyParser(&body)
		token = body.Token
	}
	if token == "" {
		return errs.ErrUnauthorized
	}

	response, err := h.authService.ValidateToken(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true, "data": response})
}
