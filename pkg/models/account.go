package models

import (
	"time"

	"github.com/aleciaid/crm-bj/pkg/roles"
)

type UserAccount struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         roles.Role `json:"role" db:"role"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	CreatedBy    string     `json:"createdBy" db:"created_by"`
}

type CreateUserRequest struct {
	Username string     `json:"username" validate:"required"`
	Password string     `json:"password" validate:"required"`
	Role     roles.Role `json:"role" validate:"required,oneof=admin user"`
	IsActive *bool      `json:"isActive"`
}

// UpdateUserRequest changes only the fields that are set; an empty password
// keeps the current one.
type UpdateUserRequest struct {
	Username *string     `json:"username" validate:"omitempty,min=1"`
	Password *string     `json:"password"`
	Role     *roles.Role `json:"role" validate:"omitempty,oneof=admin user"`
	IsActive *bool       `json:"isActive"`
}
