package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dyilmaz/url-shortener/internal/hashid"
	"github.com/dyilmaz/url-shortener/internal/metrics"
	"github.com/dyilmaz/url-shortener/internal/repository"
)

// LocalResolver resolves short codes against the local store: decode,
// fetch, count the click, redirect.
type LocalResolver struct {
	codec   *hashid.Codec
	repo    repository.LinkRepository
	metrics *metrics.Metrics
}

// NewLocalResolver creates a LocalResolver.
func NewLocalResolver(codec *hashid.Codec, repo repository.LinkRepository, m *metrics.Metrics) *LocalResolver {
	return &LocalResolver{
		codec:   codec,
		repo:    repo,
		metrics: m,
	}
}

// Resolve decodes the short code and returns the original URL, counting
// the click. Invalid or unknown codes return ErrLinkNotFound without
// touching the store.
func (r *LocalResolver) Resolve(ctx context.Context, code string) (string, error) {
	id, err := r.codec.Decode(code)
	if err != nil {
		return "", ErrLinkNotFound
	}

	link, err := r.repo.GetLink(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrLinkNotFound
		}
		r.metrics.Errors.Inc()
		return "", fmt.Errorf("failed to resolve %s: %w", code, err)
	}

	// The redirect is still served if the click write fails; a lost count
	// beats a broken link.
	if err := r.repo.IncrementClicks(ctx, link.ID); err != nil {
		r.metrics.Errors.Inc()
		log.Printf("[ERROR] Failed to count click for %s: %v", code, err)
	}

	return link.OriginalURL, nil
}

// ForwardingResolver defers resolution to an external redirect service.
// It performs no decode and no store access.
type ForwardingResolver struct {
	base string
}

// NewForwardingResolver creates a ForwardingResolver targeting base.
func NewForwardingResolver(base string) *ForwardingResolver {
	return &ForwardingResolver{base: strings.TrimSuffix(base, "/")}
}

// Resolve returns the external service URL for the code unconditionally.
func (r *ForwardingResolver) Resolve(_ context.Context, code string) (string, error) {
	return r.base + "/" + code, nil
}

// Ensure both strategies implement the interface
var (
	_ Resolver = (*LocalResolver)(nil)
	_ Resolver = (*ForwardingResolver)(nil)
)
