package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dyilmaz/url-shortener/internal/domain"
)

// Repository is a mock implementation of repository.Repository
type Repository struct {
	mock.Mock
}

func (m *Repository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *Repository) CreateLink(ctx context.Context, originalURL string, userID int64) (int64, error) {
	args := m.Called(ctx, originalURL, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Repository) GetLink(ctx context.Context, id int64) (*domain.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *Repository) IncrementClicks(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Repository) ListLinksForUser(ctx context.Context, userID int64, limit int) ([]*domain.Link, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}

func (m *Repository) LinkAggregates(ctx context.Context, userID int64) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *Repository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Repository) Close() error {
	args := m.Called()
	return args.Error(0)
}
