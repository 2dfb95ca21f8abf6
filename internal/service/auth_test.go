package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dyilmaz/url-shortener/internal/auth"
	"github.com/dyilmaz/url-shortener/internal/domain"
	"github.com/dyilmaz/url-shortener/internal/metrics"
	"github.com/dyilmaz/url-shortener/internal/repository"
	repoMocks "github.com/dyilmaz/url-shortener/internal/repository/mocks"
)

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a bcrypt hash, not the password", func(t *testing.T) {
		repo := &repoMocks.Repository{}
		repo.On("CreateUser", ctx, "alice", mock.MatchedBy(func(hash string) bool {
			return hash != "password123" && auth.VerifyPassword(hash, "password123") == nil
		})).Return(int64(1), nil)

		svc := NewAuth(repo, metrics.New())

		require.NoError(t, svc.Register(ctx, "alice", "password123"))
		repo.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo := &repoMocks.Repository{}
		repo.On("CreateUser", ctx, "alice", mock.AnythingOfType("string")).
			Return(int64(0), repository.ErrDuplicateUsername)

		svc := NewAuth(repo, metrics.New())

		err := svc.Register(ctx, "alice", "password123")
		assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
	})
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		repo := &repoMocks.Repository{}
		repo.On("GetUserByUsername", ctx, "alice").Return(&domain.User{
			ID:           1,
			Username:     "alice",
			PasswordHash: hash,
		}, nil)

		svc := NewAuth(repo, metrics.New())

		user, err := svc.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.EqualValues(t, 1, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := &repoMocks.Repository{}
		repo.On("GetUserByUsername", ctx, "alice").Return(&domain.User{
			ID:           1,
			Username:     "alice",
			PasswordHash: hash,
		}, nil)

		svc := NewAuth(repo, metrics.New())

		user, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, user)
	})

	t.Run("unknown user gets the same error", func(t *testing.T) {
		repo := &repoMocks.Repository{}
		repo.On("GetUserByUsername", ctx, "nobody").Return(nil, repository.ErrNotFound)

		svc := NewAuth(repo, metrics.New())

		user, err := svc.Login(ctx, "nobody", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, user)
	})
}
