package repository

import (
	"context"
	"errors"

	"github.com/dyilmaz/url-shortener/internal/domain"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned by CreateUser when the username is
	// already taken. Detection relies on the storage-layer unique
	// constraint, so concurrent registrations cannot both succeed.
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// CreateUser inserts a new user and returns its id
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)

	// GetUserByUsername retrieves a user by username
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// LinkRepository defines the interface for short-link data operations
type LinkRepository interface {
	// CreateLink inserts a new link for a user and returns its id
	CreateLink(ctx context.Context, originalURL string, userID int64) (int64, error)

	// GetLink retrieves a link by id
	GetLink(ctx context.Context, id int64) (*domain.Link, error)

	// IncrementClicks atomically increments the click counter of a link
	IncrementClicks(ctx context.Context, id int64) error

	// ListLinksForUser retrieves a user's links, most recent first
	ListLinksForUser(ctx context.Context, userID int64, limit int) ([]*domain.Link, error)

	// LinkAggregates returns the total link count and total clicks for a user
	LinkAggregates(ctx context.Context, userID int64) (count int64, totalClicks int64, err error)
}

// Repository combines the user and link repositories with lifecycle
// operations.
type Repository interface {
	UserRepository
	LinkRepository

	// Ping verifies database connectivity
	Ping(ctx context.Context) error

	// Close closes the repository connection pool
	Close() error
}
