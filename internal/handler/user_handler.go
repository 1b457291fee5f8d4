package handler

import (
	"fmt"

	"go-catalog-ws/internal/middleware"
	"go-catalog-ws/internal/service"
	"go-catalog-ws/pkg/errs"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe returns the authenticated user, liked products included
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetMe(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": user})
}

// GetUsers returns all users
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": users, "total": len(users)})
}

// GetUser returns a single user
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": user})
}

// UpdateUserPrivileges handles privilege assignment
// PUT /api/v1/users/:id/privileges
func (h *UserHandler) UpdateUserPrivileges(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.UpdatePrivilegesRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: Invalid JSON", errs.ErrClient)
	}

	updatedBy, _ := c.Locals(middleware.LocalUsername).(string)
	user, err := h.userService.UpdateUserPrivileges(c.UserContext(), id, req.Privileges, updatedBy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payload": user, "message": "Privileges updated successfully"})
}

// DeleteUser handles user deletion
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.userService.DeleteUser(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
