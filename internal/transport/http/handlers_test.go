package http

import (
	"context"
	"database/sql"
	"io"
	stdhttp "net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dyilmaz/url-shortener/internal/auth"
	"github.com/dyilmaz/url-shortener/internal/hashid"
	"github.com/dyilmaz/url-shortener/internal/metrics"
	"github.com/dyilmaz/url-shortener/internal/repository/mysql"
	"github.com/dyilmaz/url-shortener/internal/service"
	storeMocks "github.com/dyilmaz/url-shortener/internal/storage/mocks"
)

const testSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL
);
CREATE TABLE urls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_url TEXT NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users (id),
    created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    clicks INTEGER NOT NULL DEFAULT 0
);`

var codePattern = regexp.MustCompile(`/download-qr/([a-zA-Z0-9]+)`)

// testApp wires the full stack over an in-memory database and a mocked
// object store.
type testApp struct {
	server *httptest.Server
	repo   *mysql.Repository
	codec  *hashid.Codec
	store  *storeMocks.ObjectStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	repo := mysql.NewWithDB(db)
	t.Cleanup(func() { repo.Close() })

	codec, err := hashid.New(hashid.Config{Salt: "test-secret", MinLength: 4})
	require.NoError(t, err)

	store := &storeMocks.ObjectStore{}
	store.On("Exists", mock.Anything, "healthcheck").Return(false, nil).Maybe()
	m := metrics.New()
	sessions := auth.NewSessionManager("test-secret")

	shortener := service.NewShortener(repo, codec, service.NewTestGenerator(), store, m, "http://short.test")
	authSvc := service.NewAuth(repo, m)
	resolver := service.NewLocalResolver(codec, repo, m)

	handler := NewHandler(shortener, authSvc, resolver, sessions)
	srv := NewServer(handler, m, "0", false)

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)

	return &testApp{
		server: ts,
		repo:   repo,
		codec:  codec,
		store:  store,
	}
}

// newClient returns an HTTP client with a cookie jar that does not follow
// redirects, so Location headers can be asserted directly.
func newClient(t *testing.T) *stdhttp.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &stdhttp.Client{
		Jar: jar,
		CheckRedirect: func(req *stdhttp.Request, via []*stdhttp.Request) error {
			return stdhttp.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *stdhttp.Client, target string, form url.Values) *stdhttp.Response {
	t.Helper()
	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *stdhttp.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func registerAndLogin(t *testing.T, app *testApp, client *stdhttp.Client, username, password string) {
	t.Helper()

	resp := postForm(t, client, app.server.URL+"/register", url.Values{
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
	})
	resp.Body.Close()
	require.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = postForm(t, client, app.server.URL+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	resp.Body.Close()
	require.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestIndex_RequiresLogin(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	resp, err := client.Get(app.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestStats_RequiresLogin(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	resp, err := client.Get(app.server.URL + "/stats")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestShortenAndRedirectScenario(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	app.store.On("Put", mock.Anything, mock.Anything, mock.Anything).
		Return("https://storage.googleapis.com/bucket/qr.png", nil)

	registerAndLogin(t, app, client, "alice", "password123")

	// Shorten
	resp := postForm(t, client, app.server.URL+"/", url.Values{
		"url": {"https://example.com/a"},
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "http://short.test/")

	matches := codePattern.FindStringSubmatch(body)
	require.Len(t, matches, 2, "shorten response should link to the QR download")
	code := matches[1]

	// First redirect
	resp, err := client.Get(app.server.URL + "/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/a", resp.Header.Get("Location"))

	// Second redirect
	resp, err = client.Get(app.server.URL + "/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)

	// Clicks incremented once per redirect
	id, err := app.codec.Decode(code)
	require.NoError(t, err)
	link, err := app.repo.GetLink(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, link.Clicks)
}

func TestShorten_EmptyURL(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	registerAndLogin(t, app, client, "alice", "password123")

	resp := postForm(t, client, app.server.URL+"/", url.Values{"url": {""}})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "The URL is required!")
}

func TestShorten_UploadFailureDegradesQR(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	app.store.On("Put", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	registerAndLogin(t, app, client, "alice", "password123")

	resp := postForm(t, client, app.server.URL+"/", url.Values{
		"url": {"https://example.com/a"},
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "http://short.test/")
	assert.Contains(t, body, "QR code not available")
}

func TestRedirect_UnknownCode(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	resp, err := client.Get(app.server.URL + "/doesnotexist123")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
}

func TestRegister_Validation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name    string
		form    url.Values
		message string
	}{
		{
			name:    "missing fields",
			form:    url.Values{"username": {"alice"}},
			message: "All fields are required.",
		},
		{
			name: "password mismatch",
			form: url.Values{
				"username":         {"alice"},
				"password":         {"one"},
				"confirm_password": {"two"},
			},
			message: "Passwords do not match.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t)
			resp := postForm(t, client, app.server.URL+"/register", tt.form)
			require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), tt.message)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	form := url.Values{
		"username":         {"alice"},
		"password":         {"password123"},
		"confirm_password": {"password123"},
	}

	resp := postForm(t, client, app.server.URL+"/register", form)
	resp.Body.Close()
	require.Equal(t, stdhttp.StatusFound, resp.StatusCode)

	resp = postForm(t, client, app.server.URL+"/register", form)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Username already exists")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	registerAndLogin(t, app, client, "alice", "password123")

	fresh := newClient(t)
	resp := postForm(t, fresh, app.server.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Invalid username or password.")
}

func TestLogout_ClearsSession(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	registerAndLogin(t, app, client, "alice", "password123")

	resp, err := client.Get(app.server.URL + "/logout")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)

	resp, err = client.Get(app.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, stdhttp.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestStats_Page(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	app.store.On("Put", mock.Anything, mock.Anything, mock.Anything).
		Return("https://storage.googleapis.com/bucket/qr.png", nil)

	registerAndLogin(t, app, client, "alice", "password123")

	resp := postForm(t, client, app.server.URL+"/", url.Values{
		"url": {"https://example.com/a"},
	})
	resp.Body.Close()

	resp, err := client.Get(app.server.URL + "/stats")
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "https://example.com/a")
	assert.Contains(t, body, "Total links: 1")
	assert.Contains(t, body, "Clicks per link")
	assert.Contains(t, body, "chart-bar")
}

func TestDownloadQR(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	code, err := app.codec.Encode(1)
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		app.store.On("Get", mock.Anything, code+".png").
			Return([]byte("png-bytes"), nil).Once()

		resp, err := client.Get(app.server.URL + "/download-qr/" + code)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
		assert.Equal(t, "png-bytes", readBody(t, resp))
	})

	t.Run("store unavailable", func(t *testing.T) {
		app.store.On("Get", mock.Anything, code+".png").
			Return(nil, assert.AnError).Once()

		resp, err := client.Get(app.server.URL + "/download-qr/" + code)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, stdhttp.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("invalid code", func(t *testing.T) {
		resp, err := client.Get(app.server.URL + "/download-qr/doesnotexist123")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	resp, err := client.Get(app.server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, `"status":"healthy"`)
	assert.Contains(t, body, `"database":"connected"`)
}

func TestMetrics(t *testing.T) {
	app := newTestApp(t)
	client := newClient(t)

	// Generate some traffic first
	resp, err := client.Get(app.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.Get(app.server.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "url_shortener_requests_total")
	assert.Contains(t, body, "url_shortener_errors_total")
	assert.True(t, strings.Contains(body, "url_shortener_requests_total 1") ||
		strings.Contains(body, "url_shortener_requests_total 2"))
}
