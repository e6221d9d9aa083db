package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vtabletop/engine/core"
)

func TestStageString(t *testing.T) {
	assert.Equal(t, "uninitialized", EngineStageUninitialized.String())
	assert.Equal(t, "running", EngineStageRunning.String())
	assert.Equal(t, "shutting down", EngineStageShuttingDown.String())
	assert.Equal(t, "unknown", Stage(42).String())
}

func TestNewFillsDefaultConfig(t *testing.T) {
	g := &Game{}
	e, err := New(g)
	require.NoError(t, err)
	assert.NotNil(t, g.Config)
	assert.Equal(t, EngineStageUninitialized, e.Stage())
	assert.NotNil(t, e.Events())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Renderer.FramesInFlight = 3

	_, err := New(&Game{Config: cfg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSetup))
}
