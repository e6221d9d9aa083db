package systems

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vtabletop/engine/containers"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
	"github.com/spaghettifunk/vtabletop/engine/renderer/renderertest"
)

func triangle() []metadata.Vertex {
	green := mgl32.Vec3{0, 1, 0}
	return []metadata.Vertex{
		{Position: mgl32.Vec3{1, 1, 0}, Color: green},
		{Position: mgl32.Vec3{-1, 1, 0}, Color: green},
		{Position: mgl32.Vec3{0, -1, 0}, Color: green},
	}
}

func newTestRegistry() (*Registry, *renderertest.Device, *containers.DeletionQueue) {
	device := renderertest.NewDevice(1700, 900)
	queue := containers.NewDeletionQueue()
	return NewRegistry(device, queue), device, queue
}

func TestUploadMeshRoundTrip(t *testing.T) {
	registry, device, queue := newTestRegistry()

	vertices := triangle()
	mesh, err := registry.UploadMesh("triangle", vertices)
	require.NoError(t, err)

	assert.Equal(t, uint64(3*metadata.VertexSize), mesh.VertexBuffer.Size)
	assert.Equal(t, metadata.VertexBytes(vertices), device.BufferData(mesh.VertexBuffer))
	assert.Equal(t, uint32(3), mesh.VertexCount())
	assert.Equal(t, 1, device.Count("unmap"))
	assert.Equal(t, 1, queue.Len())

	// the mesh keeps its own copy
	vertices[0].Position = mgl32.Vec3{9, 9, 9}
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, mesh.Vertices[0].Position)

	queue.Flush()
	assert.Zero(t, device.Live()["buffer"])
}

func TestUploadMeshRejectsEmptyAndDuplicates(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.UploadMesh("empty", nil)
	assert.ErrorIs(t, err, core.ErrSetup)

	_, err = registry.UploadMesh("triangle", triangle())
	require.NoError(t, err)
	_, err = registry.UploadMesh("triangle", triangle())
	assert.ErrorIs(t, err, core.ErrSetup)
	assert.Equal(t, 1, registry.MeshCount())
}

func TestUploadMeshAllocationFailure(t *testing.T) {
	registry, device, _ := newTestRegistry()
	device.FailCreateBuffer = errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY")

	_, err := registry.UploadMesh("triangle", triangle())
	assert.ErrorIs(t, err, core.ErrSetup)
	_, ok := registry.GetMesh("triangle")
	assert.False(t, ok)
}

func TestUploadMeshMapFailureStillReleasesBuffer(t *testing.T) {
	registry, device, queue := newTestRegistry()
	device.FailMapMemory = errors.New("VK_ERROR_MEMORY_MAP_FAILED")

	_, err := registry.UploadMesh("triangle", triangle())
	assert.ErrorIs(t, err, core.ErrSetup)

	queue.Flush()
	assert.Empty(t, device.Live())
}

func TestRegistryPointerStability(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.UploadMesh("triangle", triangle())
	require.NoError(t, err)
	material := registry.CreateMaterial("defaultmesh", 1, 2)

	first, ok := registry.GetMesh("triangle")
	require.True(t, ok)
	firstMaterial, ok := registry.GetMaterial("defaultmesh")
	require.True(t, ok)
	assert.Same(t, material, firstMaterial)

	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		_, err := registry.UploadMesh(name, triangle())
		require.NoError(t, err)
		registry.CreateMaterial(name, 3, 4)
	}

	second, _ := registry.GetMesh("triangle")
	secondMaterial, _ := registry.GetMaterial("defaultmesh")
	assert.Same(t, first, second)
	assert.Same(t, firstMaterial, secondMaterial)
}

func TestRegistryIDs(t *testing.T) {
	registry, _, _ := newTestRegistry()
	mesh, err := registry.UploadMesh("triangle", triangle())
	require.NoError(t, err)
	material := registry.CreateMaterial("defaultmesh", 1, 2)

	meshID, ok := registry.MeshID("triangle")
	require.True(t, ok)
	materialID, ok := registry.MaterialID("defaultmesh")
	require.True(t, ok)

	assert.Same(t, mesh, registry.Mesh(meshID))
	assert.Same(t, material, registry.Material(materialID))
	assert.Nil(t, registry.Mesh(meshID+1))
	assert.Nil(t, registry.Material(materialID+1))
}

func TestRegistryLookupMiss(t *testing.T) {
	registry, _, _ := newTestRegistry()

	mesh, ok := registry.GetMesh("nope")
	assert.Nil(t, mesh)
	assert.False(t, ok)
	material, ok := registry.GetMaterial("nope")
	assert.Nil(t, material)
	assert.False(t, ok)

	_, err := registry.LookupMesh("nope")
	assert.ErrorIs(t, err, core.ErrLookupMiss)
	_, err = registry.LookupMaterial("nope")
	assert.ErrorIs(t, err, core.ErrLookupMiss)
}

func TestCreateMaterialRedefinitionKeepsPointer(t *testing.T) {
	registry, _, _ := newTestRegistry()
	first := registry.CreateMaterial("defaultmesh", 1, 2)
	second := registry.CreateMaterial("defaultmesh", 5, 6)

	assert.Same(t, first, second)
	assert.Equal(t, metadata.PipelineHandle(5), first.Pipeline)
	assert.Equal(t, 1, registry.MaterialCount())
}
