package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// The short-URL anchor is always rendered; the QR download link only
// appears when the upload succeeded, so it serves as a fallback.
var (
	shortURLPattern = regexp.MustCompile(`Short URL: <a href="[^"]*/([a-zA-Z0-9]+)"`)
	qrLinkPattern   = regexp.MustCompile(`/download-qr/([a-zA-Z0-9]+)`)
)

// Client drives the URL shortener through its HTML form surface. It keeps
// a cookie jar so a login carries over to subsequent requests, the same
// way a browser session would.
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient creates a new URL shortener client
func NewClient(serverURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// drain consumes and closes the response body so the connection can be
// reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, username, password string) error {
	resp, err := c.postForm(ctx, "/register", url.Values{
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
	})
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("registration failed with status %d", resp.StatusCode)
	}
	return nil
}

// Login authenticates and stores the session cookie in the jar
func (c *Client) Login(ctx context.Context, username, password string) error {
	resp, err := c.postForm(ctx, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	return nil
}

// Shorten submits a URL through the form and returns the short code
// parsed out of the result page.
func (c *Client) Shorten(ctx context.Context, originalURL string) (string, error) {
	resp, err := c.postForm(ctx, "/", url.Values{"url": {originalURL}})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shorten failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if matches := shortURLPattern.FindStringSubmatch(string(body)); len(matches) == 2 {
		return matches[1], nil
	}
	if matches := qrLinkPattern.FindStringSubmatch(string(body)); len(matches) == 2 {
		return matches[1], nil
	}
	return "", fmt.Errorf("short code not found in response")
}

// Redirect resolves a short code without following the redirect and
// returns the target URL.
func (c *Client) Redirect(ctx context.Context, code string) (string, error) {
	resp, err := c.get(ctx, "/"+code)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("short code '%s' not found", code)
	}
	if resp.StatusCode != http.StatusFound {
		return "", fmt.Errorf("redirect failed with status %d", resp.StatusCode)
	}
	return resp.Header.Get("Location"), nil
}

// Homepage loads the shorten form
func (c *Client) Homepage(ctx context.Context) error {
	return c.expectOK(ctx, "/")
}

// Stats loads the stats page
func (c *Client) Stats(ctx context.Context) error {
	return c.expectOK(ctx, "/stats")
}

// DownloadQR fetches the QR PNG for a short code
func (c *Client) DownloadQR(ctx context.Context, code string) ([]byte, error) {
	resp, err := c.get(ctx, "/download-qr/"+code)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("QR for '%s' not found", code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("QR download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Health probes the health endpoint
func (c *Client) Health(ctx context.Context) error {
	return c.expectOK(ctx, "/health")
}

// Metrics scrapes the metrics endpoint
func (c *Client) Metrics(ctx context.Context) error {
	return c.expectOK(ctx, "/metrics")
}

func (c *Client) expectOK(ctx context.Context, path string) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer drain(resp)

	// Pages behind a login answer with a redirect when the session is
	// missing; treat that as a failure so callers notice.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
	return nil
}
