package service

import (
	"context"
	"errors"
	"fmt"

	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/pkg/errs"
	"go-catalog-ws/pkg/jwt"
	"go-catalog-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*model.UserResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest accepts either username or email.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"required_without=Username"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		tokens:   tokens,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*model.UserResponse, error) {
	if verrs := validator.ValidateStruct(req); len(verrs) > 0 {
		first := verrs[0]
		return nil, fmt.Errorf("%w: Validation failed: Field '%s' failed on tag '%s'", errs.ErrClient, first.FailedField, first.Tag)
	}

	if existing, _ := s.userRepo.FindByUsername(ctx, req.Username); existing != nil {
		return nil, errs.ErrUserAlreadyExists
	}
	if existing, _ := s.userRepo.FindByEmail(ctx, req.Email); existing != nil {
		return nil, errs.ErrUserAlreadyExists
	}

	role, err := s.roleRepo.FindByCode(ctx, model.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("customer role: %w", err)
	}

	user := &model.User{
		Username:   req.Username,
		Email:      req.Email,
		RoleID:     &role.ID,
		IsActive:   true,
		Privileges: role.Privileges,
	}
	user.CreatedBy = req.Username
	user.UpdatedBy = req.Username
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "RegisterUser").Msg("")
		return nil, err
	}

	created, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	res := created.ToResponse()
	return &res, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if verrs := validator.ValidateStruct(req); len(verrs) > 0 {
		return nil, errs.ErrInvalidCredentials
	}

	var (
		user *model.User
		err  error
	)
	if req.Username != "" {
		user, err = s.userRepo.FindByUsername(ctx, req.Username)
	} else {
		user, err = s.userRepo.FindByEmail(ctx, req.Email)
	}
	if err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, errs.ErrUserInactive
	}
	if !user.CheckPassword(req.Password) {
		return nil, errs.ErrInvalidCredentials
	}

	// A new version invalidates tokens issued to earlier sessions.
	tokenVersion := uuid.NewString()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, tokenVersion); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.RoleCode(), user.GetPrivilegeCodes(), tokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, errs.ErrSessionExpired
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}
