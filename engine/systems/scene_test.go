package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

func TestSceneKeepsInsertionOrder(t *testing.T) {
	scene := NewScene()
	for i := 0; i < 4; i++ {
		scene.Add(metadata.RenderableInstance{Mesh: metadata.MeshID(i)})
	}
	require.Equal(t, 4, scene.Len())
	for i, inst := range scene.Instances() {
		assert.Equal(t, metadata.MeshID(i), inst.Mesh)
	}
}

func TestSceneAddGrid(t *testing.T) {
	registry, _, _ := newTestRegistry()
	_, err := registry.UploadMesh("triangle", triangle())
	require.NoError(t, err)
	registry.CreateMaterial(metadata.DefaultMaterialName, 1, 2)

	scene := NewScene()
	require.NoError(t, scene.AddGrid(registry, "triangle", metadata.DefaultMaterialName, 10, 0.2))
	require.Equal(t, 441, scene.Len())

	first := scene.Instances()[0]
	want := mgl32.Translate3D(-10, 0, -10).Mul4(mgl32.Scale3D(0.2, 0.2, 0.2))
	assert.True(t, want.ApproxEqual(first.Transform))

	last := scene.Instances()[440]
	assert.InDelta(t, 10, last.Transform.Col(3).X(), 1e-6)
	assert.InDelta(t, 10, last.Transform.Col(3).Z(), 1e-6)
}

func TestSceneAddUnknownNames(t *testing.T) {
	registry, _, _ := newTestRegistry()
	scene := NewScene()

	err := scene.AddByName(registry, "triangle", "defaultmesh", mgl32.Ident4())
	assert.ErrorIs(t, err, core.ErrLookupMiss)

	err = scene.AddGrid(registry, "triangle", "defaultmesh", 1, 1)
	assert.ErrorIs(t, err, core.ErrLookupMiss)
	assert.Zero(t, scene.Len())

	assert.ErrorIs(t, scene.AddGrid(registry, "triangle", "defaultmesh", -1, 1), core.ErrSetup)
}
