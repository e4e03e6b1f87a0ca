package auth

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/platform/crypto"
	"bookstore/internal/user"
)

// ErrUnauthorized is returned for bad credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Service issues JWT access tokens backed by the user repository.
type Service struct {
	secret   string
	tokenTTL time.Duration
	users    user.Repository
}

func NewService(secret string, tokenTTL time.Duration, users user.Repository) *Service {
	return &Service{secret: secret, tokenTTL: tokenTTL, users: users}
}

// Register creates a user and logs them in immediately, mirroring the store
// registration flow.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, string, error) {
	if err := crypto.ValidatePasswordStrength(password); err != nil {
		return user.User{}, "", err
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return user.User{}, "", err
	}

	u := &user.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     user.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return user.User{}, "", err
	}

	token, err := crypto.GenerateToken(s.secret, u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return user.User{}, "", err
	}
	return *u, token, nil
}

// Login verifies credentials and returns an access token.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !crypto.VerifyPassword(u.Password, password) {
		return user.User{}, "", ErrUnauthorized
	}

	token, err := crypto.GenerateToken(s.secret, u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

// Profile returns the authenticated user's record.
func (s *Service) Profile(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile overwrites the mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID, firstName, lastName, email string) error {
	return s.users.UpdateProfile(ctx, userID, firstName, lastName, email)
}

// TokenTTLSeconds reports the access token lifetime for login responses.
func (s *Service) TokenTTLSeconds() int {
	return int(s.tokenTTL.Seconds())
}
