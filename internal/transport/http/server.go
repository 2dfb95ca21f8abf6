package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dyilmaz/url-shortener/internal/metrics"
)

// Server represents the HTTP server
type Server struct {
	handler *Handler
	server  *http.Server
	port    string
}

// NewServer creates a new HTTP server wiring the handler, metrics counting
// and optional verbose logging.
func NewServer(handler *Handler, m *metrics.Metrics, port string, verbose bool) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/download-qr/", handler.DownloadQR)
	mux.HandleFunc("/stats", handler.Stats)
	mux.HandleFunc("/register", handler.Register)
	mux.HandleFunc("/login", handler.Login)
	mux.HandleFunc("/logout", handler.Logout)
	mux.HandleFunc("/health", handler.Health)
	mux.Handle("/metrics", m.Handler())

	// Shorten form and short-code redirects (catch-all)
	mux.HandleFunc("/", handler.Root)

	var finalHandler http.Handler = MetricsMiddleware(m, mux)
	if verbose {
		finalHandler = NewLoggingMiddleware(verbose).Middleware(finalHandler)
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  server,
		port:    port,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Server starting on port %s", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Server shutting down...")
	return s.server.Shutdown(ctx)
}

// Port returns the server port
func (s *Server) Port() string {
	return s.port
}
