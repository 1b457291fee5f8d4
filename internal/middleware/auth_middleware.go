package middleware

import (
	"errors"
	"fmt"
	"strings"

	"go-catalog-ws/internal/repository"
	"go-catalog-ws/pkg/errs"
	"go-catalog-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID     = "user_id"
	LocalUsername   = "username"
	LocalUserRole   = "user_role"
	LocalPrivileges = "user_privileges"
)

// RequireAuth validates the bearer token, checks the session against the
// database and stores the user in the request locals.
func RequireAuth(tokens *jwt.Manager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fmt.Errorf("%w: %v", errs.ErrUnauthorized, jwt.ErrMissingToken)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fmt.Errorf("%w: use Bearer <token>", errs.ErrUnauthorized)
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
		}

		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return errs.ErrUnauthorized
			}
			return err
		}
		if !user.IsActive {
			return errs.ErrUserInactive
		}
		if user.TokenVersion != claims.TokenVersion {
			return errs.ErrSessionExpired
		}

		c.Locals(LocalUserID, claims.UserID.String())
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalUserRole, claims.RoleCode)
		c.Locals(LocalPrivileges, claims.Privileges)

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return errs.ErrForbidden
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}
		return errs.ErrForbidden
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalPrivileges).([]string)
		if !ok {
			return errs.ErrForbidden
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}
		return errs.ErrForbidden
	}
}
