package qr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGGenerator_Generate(t *testing.T) {
	gen := &PNGGenerator{dir: t.TempDir()}

	path, err := gen.Generate("http://localhost:8080/abcd", "abcd")
	require.NoError(t, err)
	assert.Equal(t, "abcd.png", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// PNG signature
	require.GreaterOrEqual(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestPNGGenerator_Generate_Deterministic(t *testing.T) {
	gen := &PNGGenerator{dir: t.TempDir()}

	first, err := gen.Generate("http://localhost:8080/abcd", "one")
	require.NoError(t, err)
	second, err := gen.Generate("http://localhost:8080/abcd", "two")
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPNGGenerator_Generate_EmptyContent(t *testing.T) {
	gen := &PNGGenerator{dir: t.TempDir()}

	path, err := gen.Generate("", "abcd")
	assert.Error(t, err)
	assert.Empty(t, path)
}
