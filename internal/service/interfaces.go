package service

import (
	"context"
	"errors"

	"github.com/dyilmaz/url-shortener/internal/domain"
)

var (
	// ErrEmptyURL is returned by Shorten when the submitted URL is empty.
	ErrEmptyURL = errors.New("the URL is required")

	// ErrLinkNotFound is returned when a short code is invalid or has no
	// backing row. Resolution of such codes has no side effects.
	ErrLinkNotFound = errors.New("short link not found")

	// ErrStoreUnavailable is returned when the object store cannot serve a
	// QR image.
	ErrStoreUnavailable = errors.New("object store unavailable")

	// ErrInvalidCredentials is returned by Login for unknown usernames and
	// wrong passwords alike, so responses do not reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Shortener defines the core application operations behind the web
// handlers.
type Shortener interface {
	// Shorten persists a new link for the user and returns its short URL
	// plus the public QR image URL when the upload succeeded.
	Shorten(ctx context.Context, originalURL string, userID int64) (*domain.ShortenResult, error)

	// Stats lists the user's links with aggregate totals.
	Stats(ctx context.Context, userID int64) (*domain.UserStats, error)

	// QRImage fetches the stored QR PNG for a short code.
	QRImage(ctx context.Context, code string) ([]byte, error)

	// Health reports liveness of the service and its collaborators.
	Health(ctx context.Context) (*domain.HealthStatus, bool)
}

// Auth defines account registration and login.
type Auth interface {
	// Register creates an account. Duplicate usernames surface as
	// repository.ErrDuplicateUsername.
	Register(ctx context.Context, username, password string) error

	// Login verifies credentials and returns the user on success.
	Login(ctx context.Context, username, password string) (*domain.User, error)
}

// Resolver turns a short code into a redirect target. The implementation
// is chosen once at startup: local resolution against the store, or
// unconditional forwarding to an external redirect service.
type Resolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}
