package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vtabletop.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Renderer.FramesInFlight)
	assert.Equal(t, time.Second, cfg.Renderer.FenceTimeout.Duration)
	assert.Equal(t, [4]float32{0.1, 0.1, 0.1, 1.0}, cfg.Renderer.ClearColor)
	assert.Equal(t, 10, cfg.Scene.GridRadius)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
title = "Table"
width = 800
height = 600

[renderer]
fence_timeout = "250ms"
present_mode = "mailbox"
clear_color = [0.0, 0.0, 0.0, 1.0]

[scene]
grid_radius = 2

[log]
level = "info"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Table", cfg.Window.Title)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, 250*time.Millisecond, cfg.Renderer.FenceTimeout.Duration)
	assert.Equal(t, PresentModeMailbox, cfg.Renderer.PresentMode)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, cfg.Renderer.ClearColor)
	assert.Equal(t, 2, cfg.Scene.GridRadius)
	assert.Equal(t, "info", cfg.Log.Level)
	// untouched sections keep their defaults
	assert.Equal(t, float32(70), cfg.Camera.FOV)
	assert.Equal(t, 2, cfg.Renderer.FramesInFlight)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"frames in flight": "[renderer]\nframes_in_flight = 3\n",
		"present mode":     "[renderer]\npresent_mode = \"immediate\"\n",
		"camera planes":    "[camera]\nnear = 10.0\nfar = 1.0\n",
		"zero timeout":     "[renderer]\nfence_timeout = \"0s\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrSetup)
		})
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[renderer\nfence_timeout = "))
	assert.ErrorIs(t, err, ErrSetup)

	_, err = LoadConfig(writeConfig(t, "[renderer]\nfence_timeout = \"soon\"\n"))
	assert.ErrorIs(t, err, ErrSetup)
}
