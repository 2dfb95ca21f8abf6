package qr

import (
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// imageSize is the QR PNG edge length in pixels.
const imageSize = 256

// Generator renders text into a QR PNG. Defined as an interface so the
// shorten flow can be tested without touching the filesystem.
type Generator interface {
	// Generate renders content into a PNG file named after the short code
	// in the OS temp directory and returns its path. The caller owns the
	// file and must remove it after use.
	Generate(content, code string) (string, error)
}

// PNGGenerator implements Generator using skip2/go-qrcode.
type PNGGenerator struct {
	dir string
}

// NewPNGGenerator creates a generator writing into the OS temp directory.
func NewPNGGenerator() *PNGGenerator {
	return &PNGGenerator{dir: os.TempDir()}
}

// Generate renders content into {code}.png under the generator's directory.
func (g *PNGGenerator) Generate(content, code string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("qr content cannot be empty")
	}

	path := filepath.Join(g.dir, code+".png")
	if err := qrcode.WriteFile(content, qrcode.Low, imageSize, path); err != nil {
		return "", fmt.Errorf("failed to generate QR code for %s: %w", code, err)
	}

	return path, nil
}

// Ensure PNGGenerator implements the interface
var _ Generator = (*PNGGenerator)(nil)
