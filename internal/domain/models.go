package domain

import (
	"time"
)

// User represents a registered account
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Link represents a shortened URL row
type Link struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	UserID      int64     `json:"user_id"`
	Created     time.Time `json:"created"`
	Clicks      int64     `json:"clicks"`
}

// LinkView is a Link decorated with its derived short URL for display.
// ClicksPct scales the link's clicks against the user's busiest link for
// the stats chart.
type LinkView struct {
	Link
	ShortURL  string `json:"short_url"`
	ClicksPct int    `json:"-"`
}

// ShortenResult is the outcome of the shorten flow. QRAvailable is false
// when the QR image could not be rendered or uploaded; the short URL is
// still usable in that case.
type ShortenResult struct {
	ShortCode   string `json:"short_code"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
	QRURL       string `json:"qr_url,omitempty"`
	QRAvailable bool   `json:"qr_available"`
}

// UserStats aggregates a user's links for the stats page
type UserStats struct {
	Links         []*LinkView `json:"links"`
	TotalLinks    int64       `json:"total_links"`
	TotalClicks   int64       `json:"total_clicks"`
	AverageClicks int64       `json:"average_clicks"`
}

// HealthStatus is the payload of the /health endpoint
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Database  string `json:"database,omitempty"`
	GCS       string `json:"gcs,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}
