package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents an authenticated user in the system
type User struct {
	BaseModel
	Username     string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"username" validate:"required,min=3,max=100"`
	Email        string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string        `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	RoleID       *uint         `gorm:"index" json:"role_id"`
	Role         *Role         `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive     bool          `gorm:"default:true" json:"is_active"`
	Privileges   []Privilege   `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`
	TokenVersion string        `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
	Liked        []ProductLike `json:"-"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func (u *User) HasPrivilege(code string) bool {
	for _, p := range u.Privileges {
		if p.Code == code {
			return true
		}
	}
	return false
}

func (u *User) GetPrivilegeCodes() []string {
	codes := make([]string, len(u.Privileges))
	for i, p := range u.Privileges {
		codes[i] = p.Code
	}
	return codes
}

func (u *User) RoleCode() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Code
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID         uuid.UUID   `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       string      `json:"role"`
	IsActive   bool        `json:"is_active"`
	Privileges []string    `json:"privileges"`
	Liked      []uuid.UUID `json:"liked"`
}

func (u *User) ToResponse() UserResponse {
	liked := make([]uuid.UUID, len(u.Liked))
	for i, l := range u.Liked {
		liked[i] = l.ProductID
	}

	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.RoleCode(),
		IsActive:   u.IsActive,
		Privileges: u.GetPrivilegeCodes(),
		Liked:      liked,
	}
}
