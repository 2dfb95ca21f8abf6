package http

import (
	"log"
	"net/http"
	"time"

	"github.com/dyilmaz/url-shortener/internal/metrics"
)

// statusResponseWriter wraps http.ResponseWriter to capture the status code
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (srw *statusResponseWriter) WriteHeader(code int) {
	srw.statusCode = code
	srw.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware counts every inbound request.
func MetricsMiddleware(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Requests.Inc()
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs requests and responses when verbose logging is
// enabled.
type LoggingMiddleware struct {
	verbose bool
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(verbose bool) *LoggingMiddleware {
	return &LoggingMiddleware{
		verbose: verbose,
	}
}

// Middleware returns the HTTP logging middleware function
func (l *LoggingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.verbose {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		log.Printf("[HTTP REQUEST] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		srw := &statusResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(srw, r)

		duration := time.Since(start)
		log.Printf("[HTTP RESPONSE] %s %s -> %d in %v", r.Method, r.URL.Path, srw.statusCode, duration)
	})
}
