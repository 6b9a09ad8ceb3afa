package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnguyen/estatedesk/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Socket.ReconnectAttempts)
	assert.Equal(t, 1, cfg.Socket.ReconnectDelaySec)
	assert.Equal(t, 1, cfg.Display.PollIntervalSec)
	assert.Equal(t, 3000, cfg.Display.RingingMs)
	assert.Equal(t, 3000, cfg.Display.HighlightMs)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://api.estatedesk.example/api
display:
  poll_interval_sec: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.estatedesk.example/api", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Display.PollIntervalSec)

	// Untouched keys fall back to defaults.
	assert.Equal(t, 30, cfg.API.TimeoutSec)
	assert.Equal(t, "ws://localhost:5000/ws", cfg.Socket.URL)
	assert.Equal(t, 3000, cfg.Display.RingingMs)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	cfg.API.BaseURL = "https://api.estatedesk.example/api"
	cfg.Socket.ReconnectAttempts = 8

	require.NoError(t, model.SaveConfig(path, cfg))

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.estatedesk.example/api", loaded.API.BaseURL)
	assert.Equal(t, 8, loaded.Socket.ReconnectAttempts)
	assert.Equal(t, 3000, loaded.Display.RingingMs)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not: valid"), 0o644))

	_, err := model.LoadConfig(path)
	assert.Error(t, err)
}
