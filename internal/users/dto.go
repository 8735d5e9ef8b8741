package users

import (
	"time"

	"github.com/google/uuid"
)

// UserView is the read model for a user account. The credential hash never
// leaves the service.
type UserView struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateUserInput carries the fields for registering an account.
type CreateUserInput struct {
	Username string
	Password string
	IsAdmin  bool
}

// UpdateProfileInput carries a user's own profile changes. The current
// password must be confirmed before anything is applied.
type UpdateProfileInput struct {
	Username        string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}
