package service

import (
	"context"
	"fmt"

	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/pkg/errs"

	"github.com/google/uuid"
)

type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, updatedBy string) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type UpdatePrivilegesRequest struct {
	Privileges []string `json:"privileges" validate:"required"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	cache         Cache
}

// NewUserService takes the catalog cache because deleting a user releases
// their likes. cache may be nil.
func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, cache Cache) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		cache:         cache,
	}
}

func (s *userService) GetMe(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := user.ToResponse()
	return &res, nil
}

func (s *userService) UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, updatedBy string) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	privileges, err := s.privilegeRepo.FindByCodes(ctx, privilegeCodes)
	if err != nil {
		return nil, err
	}
	if len(privileges) != len(privilegeCodes) {
		return nil, fmt.Errorf("%w: unknown privilege code", errs.ErrClient)
	}

	if err := s.userRepo.UpdatePrivileges(ctx, userID, privileges); err != nil {
		return nil, err
	}

	// Privileges live in the token, so existing sessions must log in again.
	user.UpdatedBy = updatedBy
	user.TokenVersion = uuid.NewString()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, userID)
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	invalidateCatalogCache(ctx, s.cache)
	return nil
}
