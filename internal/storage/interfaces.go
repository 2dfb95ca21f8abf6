package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when the key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the interface for the remote blob store holding QR
// images. Any network or auth failure surfaces as an error to the caller;
// it never crashes a request handler.
type ObjectStore interface {
	// Put uploads the object under key and returns its public URL.
	Put(ctx context.Context, key string, r io.Reader) (string, error)

	// Get downloads the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether key is present in the store.
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL derives the public URL for key without a network call.
	PublicURL(key string) string

	// Close releases the underlying client.
	Close() error
}
