package testbed

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/vtabletop/engine/core"
)

func TestTriangleIsGreen(t *testing.T) {
	vertices := TriangleVertices()
	assert.Len(t, vertices, 3)
	for _, v := range vertices {
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, v.Color)
	}
}

func TestNewTestGameWiresCallbacks(t *testing.T) {
	tg := NewTestGame(core.DefaultConfig())
	assert.NotNil(t, tg.FnInitialize)
	assert.NotNil(t, tg.FnShutdown)
	assert.NoError(t, tg.FnShutdown())
}
