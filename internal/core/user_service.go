package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	users map[string]User
}

// NewUserService constructs an in-memory UserService over the given credential table.
func NewUserService(users []User) (UserService, error) {
	v := validator.New()
	m := make(map[string]User, len(users))
	for _, u := range users {
		if err := v.Struct(u); err != nil {
			return nil, fmt.Errorf("invalid user %q: %w", u.Username, err)
		}
		if _, dup := m[u.Username]; dup {
			return nil, fmt.Errorf("duplicate user %q", u.Username)
		}
		m[u.Username] = u
	}
	return &userService{users: m}, nil
}

// LoadUsers reads a JSON array of users from path.
func LoadUsers(path string) ([]User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	return users, nil
}

// DemoUsers returns the illustrative credential table: admin/admin123 with portal
// access and user1/user123 without.
func DemoUsers() ([]User, error) {
	adminHash, err := HashPassword("admin123")
	if err != nil {
		return nil, err
	}
	userHash, err := HashPassword("user123")
	if err != nil {
		return nil, err
	}
	return []User{
		{Username: "admin", PasswordHash: adminHash, Role: RoleAdmin, WebAccess: true},
		{Username: "user1", PasswordHash: userHash, Role: RoleUser, WebAccess: false},
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q not found: %w", username, ErrInvalidCredentials)
	}
	return &u, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
