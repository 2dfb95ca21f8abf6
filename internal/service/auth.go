package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dyilmaz/url-shortener/internal/auth"
	"github.com/dyilmaz/url-shortener/internal/domain"
	"github.com/dyilmaz/url-shortener/internal/metrics"
	"github.com/dyilmaz/url-shortener/internal/repository"
)

// authService implements Auth on top of the user repository with bcrypt
// password hashing.
type authService struct {
	repo    repository.UserRepository
	metrics *metrics.Metrics
}

// NewAuth creates a new Auth service.
func NewAuth(repo repository.UserRepository, m *metrics.Metrics) Auth {
	return &authService{
		repo:    repo,
		metrics: m,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *authService) Register(ctx context.Context, username, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return err
		}
		s.metrics.Errors.Inc()
		return fmt.Errorf("failed to register user: %w", err)
	}

	log.Printf("New user registered: %s (id: %d)", username, id)
	return nil
}

// Login verifies credentials. Unknown users and wrong passwords both map
// to ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.metrics.Errors.Inc()
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	log.Printf("User logged in: %s (id: %d)", user.Username, user.ID)
	return user, nil
}

// Ensure authService implements the interface
var _ Auth = (*authService)(nil)
