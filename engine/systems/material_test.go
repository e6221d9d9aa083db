package systems

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vtabletop/engine/assets"
	"github.com/spaghettifunk/vtabletop/engine/containers"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
	"github.com/spaghettifunk/vtabletop/engine/renderer/renderertest"
)

func writeShader(t *testing.T, dir, name string) {
	t.Helper()
	blob := make([]byte, 20)
	binary.LittleEndian.PutUint32(blob, assets.SPIRVMagic)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".spv"), blob, 0o644))
}

func newTestMaterialSystem(t *testing.T, dir string) (*MaterialSystem, *Registry, *renderertest.Device, *containers.DeletionQueue) {
	device := renderertest.NewDevice(1700, 900)
	queue := containers.NewDeletionQueue()
	registry := NewRegistry(device, queue)
	ms := NewMaterialSystem(device, assets.NewShaderLibrary(dir), registry, queue, metadata.DescriptorSetLayoutHandle(99))
	return ms, registry, device, queue
}

func TestMaterialSystemBuild(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "mesh.vert")
	writeShader(t, dir, "mesh.frag")
	ms, registry, device, queue := newTestMaterialSystem(t, dir)

	material, err := ms.Build(metadata.DefaultMaterialName, "mesh.vert", "mesh.frag")
	require.NoError(t, err)

	got, ok := registry.GetMaterial(metadata.DefaultMaterialName)
	require.True(t, ok)
	assert.Same(t, material, got)

	require.Len(t, device.Pipelines, 1)
	cfg := device.Pipelines[0]
	assert.Equal(t, metadata.MeshPushConstantsSize, cfg.PushConstantSize)
	assert.Equal(t, []metadata.DescriptorSetLayoutHandle{99}, cfg.SetLayouts)
	assert.True(t, cfg.DepthTest)
	assert.Len(t, cfg.VertexInput.Attributes, 3)

	// modules are released as soon as the pipeline exists
	assert.Zero(t, device.Live()["shadermodule"])

	queue.Flush()
	assert.Empty(t, device.Live())
	assert.Less(t, device.Index("destroy:pipeline"), device.Index("destroy:pipelinelayout"))
}

func TestMaterialSystemMissingShader(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "mesh.vert")
	ms, registry, device, queue := newTestMaterialSystem(t, dir)

	_, err := ms.Build(metadata.DefaultMaterialName, "mesh.vert", "missing.frag")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSetup)
	assert.ErrorIs(t, err, core.ErrShaderLoad)

	assert.Empty(t, device.Pipelines)
	assert.Zero(t, registry.MaterialCount())
	assert.Empty(t, device.Live())
	assert.Zero(t, queue.Len())
}
