package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 0.6, cfg.Thresholds.FaceDistance)
	assert.Equal(t, 0.6, cfg.Thresholds.LivenessConfidence)
	assert.Equal(t, []string{"cnp", "nume", "prenume"}, cfg.Extraction.RequiredFields)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attest.yaml")
	content := []byte(`
server:
  addr: ":9090"
thresholds:
  face_distance: 0.45
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 0.45, cfg.Thresholds.FaceDistance)
	// Unset values keep their defaults.
	assert.Equal(t, 0.6, cfg.Thresholds.LivenessConfidence)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  face_distance: 1.5\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/attest.yaml")
	assert.Error(t, err)
}
