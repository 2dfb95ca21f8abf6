package service

import (
	"os"
	"path/filepath"

	"github.com/dyilmaz/url-shortener/internal/qr"
)

// testGenerator is a qr.Generator that writes a tiny placeholder file.
// Used by tests in this package and in the HTTP transport.
type testGenerator struct{}

// NewTestGenerator creates a generator for tests.
func NewTestGenerator() qr.Generator {
	return &testGenerator{}
}

func (g *testGenerator) Generate(content, code string) (string, error) {
	path := filepath.Join(os.TempDir(), code+".png")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
