package service

import (
	"context"
	"errors"
	"fmt"

	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/pkg/errs"

	"github.com/rs/zerolog/log"
)

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// SeedAccessControl creates the default privileges and roles, gives each role
// its default privileges when it has none yet, and creates the admin account.
func SeedAccessControl(ctx context.Context, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, userRepo repository.UserRepository, admin AdminSeed) error {
	if err := privilegeRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	for code, privilegeCodes := range model.DefaultRolePrivileges {
		role, err := roleRepo.FindByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("role %s: %w", code, err)
		}
		if len(role.Privileges) > 0 {
			continue
		}

		var privileges []model.Privilege
		if privilegeCodes == nil {
			privileges, err = privilegeRepo.FindAll(ctx)
		} else {
			privileges, err = privilegeRepo.FindByCodes(ctx, privilegeCodes)
		}
		if err != nil {
			return err
		}
		if err := roleRepo.AssignPrivileges(ctx, role, privileges); err != nil {
			return fmt.Errorf("assign privileges to %s: %w", code, err)
		}
		log.Info().Str("role", code).Int("privileges", len(privileges)).Msg("role privileges seeded")
	}

	return seedAdmin(ctx, roleRepo, userRepo, admin)
}

func seedAdmin(ctx context.Context, roleRepo repository.RoleRepository, userRepo repository.UserRepository, admin AdminSeed) error {
	if admin.Username == "" || admin.Password == "" {
		log.Warn().Msg("ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	_, err := userRepo.FindByUsername(ctx, admin.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	role, err := roleRepo.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("admin role: %w", err)
	}

	user := &model.User{
		Username:   admin.Username,
		Email:      admin.Email,
		RoleID:     &role.ID,
		IsActive:   true,
		Privileges: role.Privileges,
	}
	if user.Email == "" {
		user.Email = admin.Username + "@localhost"
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		return err
	}

	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info().Str("username", admin.Username).Msg("admin user created")
	return nil
}
