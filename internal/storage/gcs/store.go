package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcstorage "cloud.google.com/go/storage"

	"github.com/dyilmaz/url-shortener/internal/storage"
)

// callTimeout bounds every object-store call so a stalled backend cannot
// hold a request open indefinitely.
const callTimeout = 10 * time.Second

// Store implements storage.ObjectStore backed by a Google Cloud Storage
// bucket. Uploaded objects are made publicly readable.
type Store struct {
	client *gcstorage.Client
	bucket string
}

// New creates a Store for the given bucket using application default
// credentials.
func New(ctx context.Context, bucket string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}

	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Store{
		client: client,
		bucket: bucket,
	}, nil
}

// Put uploads the object under key, makes it publicly readable and returns
// its public URL.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(key)

	w := obj.NewWriter(ctx)
	w.ContentType = "image/png"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload of %s: %w", key, err)
	}

	if err := obj.ACL().Set(ctx, gcstorage.AllUsers, gcstorage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to make object %s public: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// Get downloads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether key is present in the bucket.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}

// PublicURL derives the public URL for key. Pure derivation, no network
// call; used as a display fallback.
func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ storage.ObjectStore = (*Store)(nil)
