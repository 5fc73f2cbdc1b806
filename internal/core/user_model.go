package core

import (
	"context"
	"errors"
)

// Roles known to the credential table.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is one entry of the credential table.
type User struct {
	Username     string `json:"username" validate:"required"`
	PasswordHash string `json:"password_hash" validate:"required"`
	Role         string `json:"role" validate:"required,oneof=admin user"`
	// WebAccess gates the DESADV portal check.
	WebAccess bool `json:"web_access"`
}

// UserService provides user lookup and password checks.
type UserService interface {
	// GetByUsername finds a user by exact username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Authenticate returns the user when the password matches its stored hash.
	Authenticate(ctx context.Context, username, password string) (*User, error)
}
