package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dyilmaz/url-shortener/internal/domain"
	"github.com/dyilmaz/url-shortener/internal/hashid"
	"github.com/dyilmaz/url-shortener/internal/metrics"
	"github.com/dyilmaz/url-shortener/internal/qr"
	"github.com/dyilmaz/url-shortener/internal/repository"
	"github.com/dyilmaz/url-shortener/internal/storage"
)

// statsLimit caps the number of links shown on the stats page.
const statsLimit = 100

// shortener implements the Shortener interface
type shortener struct {
	repo     repository.Repository
	codec    *hashid.Codec
	qr       qr.Generator
	store    storage.ObjectStore // nil when no bucket is configured
	metrics  *metrics.Metrics
	linkBase string
}

// NewShortener creates the core service. linkBase is the externally
// visible prefix of issued short URLs: the server's own base URL, or the
// external redirect service base when forwarding mode is enabled. store
// may be nil, in which case QR images are reported unavailable.
func NewShortener(repo repository.Repository, codec *hashid.Codec, gen qr.Generator, store storage.ObjectStore, m *metrics.Metrics, linkBase string) Shortener {
	return &shortener{
		repo:     repo,
		codec:    codec,
		qr:       gen,
		store:    store,
		metrics:  m,
		linkBase: strings.TrimSuffix(linkBase, "/"),
	}
}

// Shorten persists a new link, derives its short code and uploads the QR
// image. Object-store failures degrade the QR to unavailable; the short
// URL itself is always returned on success.
func (s *shortener) Shorten(ctx context.Context, originalURL string, userID int64) (*domain.ShortenResult, error) {
	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return nil, ErrEmptyURL
	}

	id, err := s.repo.CreateLink(ctx, originalURL, userID)
	if err != nil {
		s.metrics.Errors.Inc()
		return nil, fmt.Errorf("failed to persist link: %w", err)
	}

	code, err := s.codec.Encode(id)
	if err != nil {
		s.metrics.Errors.Inc()
		return nil, fmt.Errorf("failed to encode link id: %w", err)
	}

	shortURL := s.linkBase + "/" + code
	log.Printf("URL shortened: %s -> %s (user_id: %d)", originalURL, shortURL, userID)

	result := &domain.ShortenResult{
		ShortCode:   code,
		ShortURL:    shortURL,
		OriginalURL: originalURL,
	}

	if qrURL, ok := s.uploadQR(ctx, shortURL, code); ok {
		result.QRURL = qrURL
		result.QRAvailable = true
	}

	return result, nil
}

// uploadQR renders the QR image for shortURL and uploads it keyed by
// {code}.png. The temp file is removed on every exit path.
func (s *shortener) uploadQR(ctx context.Context, shortURL, code string) (string, bool) {
	if s.store == nil {
		return "", false
	}

	path, err := s.qr.Generate(shortURL, code)
	if err != nil {
		s.metrics.Errors.Inc()
		log.Printf("[ERROR] Failed to generate QR code for %s: %v", code, err)
		return "", false
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Could not remove temp file %s: %v", path, err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		s.metrics.Errors.Inc()
		log.Printf("[ERROR] Failed to open QR file %s: %v", path, err)
		return "", false
	}
	defer f.Close()

	publicURL, err := s.store.Put(ctx, code+".png", f)
	if err != nil {
		s.metrics.Errors.Inc()
		log.Printf("[ERROR] Failed to upload QR for %s: %v", code, err)
		return "", false
	}

	return publicURL, true
}

// Stats lists the user's links, most recent first, with aggregate totals.
// Average clicks is integer floor division; zero links yields zero.
func (s *shortener) Stats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	links, err := s.repo.ListLinksForUser(ctx, userID, statsLimit)
	if err != nil {
		s.metrics.Errors.Inc()
		return nil, fmt.Errorf("failed to load links: %w", err)
	}

	count, totalClicks, err := s.repo.LinkAggregates(ctx, userID)
	if err != nil {
		s.metrics.Errors.Inc()
		return nil, fmt.Errorf("failed to load aggregates: %w", err)
	}

	var maxClicks int64
	for _, link := range links {
		if link.Clicks > maxClicks {
			maxClicks = link.Clicks
		}
	}

	views := make([]*domain.LinkView, 0, len(links))
	for _, link := range links {
		code, err := s.codec.Encode(link.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to encode link id %d: %w", link.ID, err)
		}
		var pct int
		if maxClicks > 0 {
			pct = int(link.Clicks * 100 / maxClicks)
		}
		views = append(views, &domain.LinkView{
			Link:      *link,
			ShortURL:  s.linkBase + "/" + code,
			ClicksPct: pct,
		})
	}

	var average int64
	if count > 0 {
		average = totalClicks / count
	}

	return &domain.UserStats{
		Links:         views,
		TotalLinks:    count,
		TotalClicks:   totalClicks,
		AverageClicks: average,
	}, nil
}

// QRImage fetches the stored QR PNG for a short code. Codes that do not
// decode, and objects missing from the store, map to ErrLinkNotFound.
func (s *shortener) QRImage(ctx context.Context, code string) ([]byte, error) {
	if _, err := s.codec.Decode(code); err != nil {
		return nil, ErrLinkNotFound
	}
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}

	data, err := s.store.Get(ctx, code+".png")
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		s.metrics.Errors.Inc()
		log.Printf("[ERROR] Failed to fetch QR for %s: %v", code, err)
		return nil, ErrStoreUnavailable
	}
	return data, nil
}

// Health reports liveness of the database and object store.
func (s *shortener) Health(ctx context.Context) (*domain.HealthStatus, bool) {
	status := &domain.HealthStatus{
		Service:   "url-shortener",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.repo.Ping(ctx); err != nil {
		s.metrics.Errors.Inc()
		log.Printf("[ERROR] Health check failed: %v", err)
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status, false
	}

	status.Status = "healthy"
	status.Database = "connected"
	status.GCS = "not_configured"
	if s.store != nil {
		// A lookup on any key proves the bucket is reachable; the
		// object itself does not need to exist.
		if _, err := s.store.Exists(ctx, "healthcheck"); err != nil {
			s.metrics.Errors.Inc()
			log.Printf("[ERROR] Object store probe failed: %v", err)
			status.GCS = "unavailable"
		} else {
			status.GCS = "available"
		}
	}
	return status, true
}

// Ensure shortener implements the interface
var _ Shortener = (*shortener)(nil)
