package http

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/dyilmaz/url-shortener/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// pageData carries everything a template can show.
type pageData struct {
	Username string
	Message  string
	Result   *domain.ShortenResult
	Stats    *domain.UserStats
}

// render executes the named page template with the given data.
func render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("[ERROR] Failed to render template %s: %v", name, err)
	}
}
