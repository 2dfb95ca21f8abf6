package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/dyilmaz/url-shortener/internal/auth"
	"github.com/dyilmaz/url-shortener/internal/repository"
	"github.com/dyilmaz/url-shortener/internal/service"
)

// Handler holds the HTTP handlers for the URL shortener
type Handler struct {
	shortener service.Shortener
	auth      service.Auth
	resolver  service.Resolver
	sessions  *auth.SessionManager
}

// NewHandler creates a new HTTP handler
func NewHandler(shortener service.Shortener, authSvc service.Auth, resolver service.Resolver, sessions *auth.SessionManager) *Handler {
	return &Handler{
		shortener: shortener,
		auth:      authSvc,
		resolver:  resolver,
		sessions:  sessions,
	}
}

// requireSession resolves the caller's session or redirects to the login
// page. The second return value reports whether the request may proceed.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	session, err := h.sessions.SessionFromRequest(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, false
	}
	return session, true
}

// Root dispatches "/" to the shorten page and everything else to the
// redirect resolver.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.Redirect(w, r)
		return
	}
	h.Index(w, r)
}

// Index handles GET and POST / — the shorten form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	data := pageData{Username: session.Username}

	if r.Method == http.MethodPost {
		result, err := h.shortener.Shorten(r.Context(), r.FormValue("url"), session.UserID)
		switch {
		case errors.Is(err, service.ErrEmptyURL):
			data.Message = "The URL is required!"
			render(w, http.StatusOK, "index.html", data)
			return
		case err != nil:
			log.Printf("[ERROR] Failed to shorten URL: %v", err)
			data.Message = "An error occurred while processing your request. Please try again."
			render(w, http.StatusOK, "index.html", data)
			return
		}
		data.Result = result
	}

	render(w, http.StatusOK, "index.html", data)
}

// Redirect handles GET /{code} — resolves the short code and redirects.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/")
	if code == "" || strings.Contains(code, "/") {
		http.NotFound(w, r)
		return
	}

	target, err := h.resolver.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("[ERROR] Failed to resolve code '%s': %v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// DownloadQR handles GET /download-qr/{code} — serves the stored QR image
// as an attachment.
func (h *Handler) DownloadQR(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/download-qr/")
	if code == "" || strings.Contains(code, "/") {
		http.NotFound(w, r)
		return
	}

	data, err := h.shortener.QRImage(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			http.NotFound(w, r)
		case errors.Is(err, service.ErrStoreUnavailable):
			http.Error(w, "Object store unavailable", http.StatusServiceUnavailable)
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", code+".png"))
	if _, err := w.Write(data); err != nil {
		log.Printf("[ERROR] Failed to write QR image for '%s': %v", code, err)
	}
}

// Stats handles GET /stats — the caller's links with aggregates.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	stats, err := h.shortener.Stats(r.Context(), session.UserID)
	if err != nil {
		log.Printf("[ERROR] Failed to load stats for user %d: %v", session.UserID, err)
		render(w, http.StatusOK, "stats.html", pageData{
			Username: session.Username,
			Message:  "An error occurred while loading statistics. Please try again.",
		})
		return
	}

	render(w, http.StatusOK, "stats.html", pageData{
		Username: session.Username,
		Stats:    stats,
	})
}

// Register handles GET and POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		render(w, http.StatusOK, "register.html", pageData{})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	var message string
	switch {
	case username == "" || password == "" || confirm == "":
		message = "All fields are required."
	case password != confirm:
		message = "Passwords do not match."
	}
	if message != "" {
		render(w, http.StatusOK, "register.html", pageData{Message: message})
		return
	}

	if err := h.auth.Register(r.Context(), username, password); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			render(w, http.StatusOK, "register.html", pageData{
				Message: "Username already exists. Please choose a different username.",
			})
			return
		}
		log.Printf("[ERROR] Failed to register user '%s': %v", username, err)
		render(w, http.StatusOK, "register.html", pageData{
			Message: "An error occurred during registration. Please try again.",
		})
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// Login handles GET and POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		render(w, http.StatusOK, "login.html", pageData{})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		render(w, http.StatusOK, "login.html", pageData{Message: "All fields are required."})
		return
	}

	user, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			render(w, http.StatusOK, "login.html", pageData{Message: "Invalid username or password."})
			return
		}
		log.Printf("[ERROR] Failed login for '%s': %v", username, err)
		render(w, http.StatusOK, "login.html", pageData{
			Message: "An error occurred during login. Please try again.",
		})
		return
	}

	if err := h.sessions.IssueCookie(w, user.ID, user.Username); err != nil {
		log.Printf("[ERROR] Failed to issue session for '%s': %v", username, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles GET /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Health handles GET /health — liveness of the service and collaborators.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, healthy := h.shortener.Health(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Printf("[ERROR] Failed to encode health response: %v", err)
	}
}
