package renderer_test

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/components"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
	"github.com/spaghettifunk/vtabletop/engine/renderer/renderertest"
	"github.com/spaghettifunk/vtabletop/engine/systems"
)

func TestMain(m *testing.M) {
	core.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

type fixture struct {
	device   *renderertest.Device
	surface  *renderertest.Surface
	camera   *components.Camera
	renderer *renderer.Renderer
	registry *systems.Registry
	scene    *systems.Scene
}

func triangle() []metadata.Vertex {
	green := mgl32.Vec3{0, 1, 0}
	return []metadata.Vertex{
		{Position: mgl32.Vec3{1, 1, 0}, Color: green},
		{Position: mgl32.Vec3{-1, 1, 0}, Color: green},
		{Position: mgl32.Vec3{0, -1, 0}, Color: green},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := core.DefaultConfig()
	f := &fixture{
		device:  renderertest.NewDevice(1700, 900),
		surface: renderertest.NewSurface(1700, 900),
		camera:  components.NewCamera(mgl32.Vec3{0, -6, -10}, 70, 0.1, 200),
		scene:   systems.NewScene(),
	}
	f.renderer = renderer.New(f.device, f.camera, cfg)
	require.NoError(t, f.renderer.Initialize(f.surface))
	f.registry = systems.NewRegistry(f.device, f.renderer.DeletionQueue())

	_, err := f.registry.UploadMesh("triangle", triangle())
	require.NoError(t, err)
	f.registry.CreateMaterial(metadata.DefaultMaterialName, 10, 11)
	return f
}

func (f *fixture) commands(slot int) *renderertest.CommandBuffer {
	return f.renderer.Slot(slot).Commands.(*renderertest.CommandBuffer)
}

func TestDrawFrameGrid(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddGrid(f.registry, "triangle", metadata.DefaultMaterialName, 10, 0.2))
	require.Equal(t, 441, f.scene.Len())

	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))

	cmd := f.commands(0)
	assert.Equal(t, 1, cmd.Count("bind:pipeline"))
	assert.Equal(t, 1, cmd.Count("bind:descriptor"))
	assert.Equal(t, 1, cmd.Count("bind:vertex"))
	assert.Equal(t, 441, cmd.Count("push"))
	assert.Equal(t, 441, cmd.Count("draw"))
	for _, c := range cmd.Commands {
		if c.Op == "draw" {
			assert.Equal(t, uint32(3), c.VertexCount)
		}
	}

	firstDraw := f.device.Index("draw")
	require.Positive(t, firstDraw)
	uniformWrites := 0
	for _, call := range f.device.Calls[:firstDraw] {
		if call == "map:uniform" {
			uniformWrites++
		}
	}
	assert.Equal(t, 1, uniformWrites)
	assert.Empty(t, f.device.Violations)
	assert.Equal(t, uint64(1), f.renderer.FrameNumber())
}

func TestDrawFrameRecordsPassAndCamera(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddByName(f.registry, "triangle", metadata.DefaultMaterialName, mgl32.Translate3D(1, 0, 2)))

	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))

	cmd := f.commands(0)
	require.NotEmpty(t, cmd.Commands)
	assert.Equal(t, "beginpass", cmd.Commands[0].Op)
	assert.Equal(t, [4]float32{0.1, 0.1, 0.1, 1}, cmd.Commands[0].ClearColor)
	assert.Equal(t, "endpass", cmd.Commands[len(cmd.Commands)-1].Op)

	// frame zero has no spin applied
	for _, c := range cmd.Commands {
		if c.Op == "push" {
			assert.True(t, mgl32.Translate3D(1, 0, 2).ApproxEqual(c.Constants.RenderMatrix))
		}
	}

	want := f.camera.Data(1700, 900)
	slot := f.renderer.Slot(0)
	assert.Equal(t, want.Bytes(), f.device.BufferData(slot.CameraBuffer))
	assert.Equal(t, renderer.SlotSubmitted, slot.State)
	assert.Equal(t, renderer.SlotIdle, f.renderer.Slot(1).State)
}

func TestStateChangesOnlyOnMaterialOrMeshChange(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.UploadMesh("quad", append(triangle(), triangle()...))
	require.NoError(t, err)
	f.registry.CreateMaterial("wire", 20, 21)

	add := func(mesh, material string, n int) {
		for i := 0; i < n; i++ {
			require.NoError(t, f.scene.AddByName(f.registry, mesh, material, mgl32.Ident4()))
		}
	}
	add("triangle", metadata.DefaultMaterialName, 5)
	add("quad", metadata.DefaultMaterialName, 3)
	add("quad", "wire", 4)
	add("triangle", metadata.DefaultMaterialName, 2)

	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))

	cmd := f.commands(0)
	assert.Equal(t, 3, cmd.Count("bind:pipeline"))
	assert.Equal(t, 3, cmd.Count("bind:descriptor"))
	assert.Equal(t, 3, cmd.Count("bind:vertex"))
	assert.Equal(t, 14, cmd.Count("push"))
	assert.Equal(t, 14, cmd.Count("draw"))

	var pipelines []metadata.PipelineHandle
	for _, c := range cmd.Commands {
		if c.Op == "bind:pipeline" {
			pipelines = append(pipelines, c.Pipeline)
		}
	}
	assert.Equal(t, []metadata.PipelineHandle{10, 20, 10}, pipelines)
}

func TestFramesInFlightBound(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddGrid(f.registry, "triangle", metadata.DefaultMaterialName, 2, 0.2))

	for i := 0; i < 10; i++ {
		require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	}

	assert.Equal(t, renderer.FramesInFlight, f.device.MaxInFlight)
	assert.Empty(t, f.device.Violations)
	assert.Equal(t, uint64(10), f.renderer.FrameNumber())
	assert.Equal(t, 10, f.device.Count("submit"))
	assert.Equal(t, 10, f.device.Count("present"))
}

func TestSlotsAlternate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddByName(f.registry, "triangle", metadata.DefaultMaterialName, mgl32.Ident4()))

	assert.Same(t, f.renderer.Slot(0), f.renderer.CurrentFrame())
	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	assert.Same(t, f.renderer.Slot(1), f.renderer.CurrentFrame())
	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	assert.Same(t, f.renderer.Slot(0), f.renderer.CurrentFrame())

	assert.NotEqual(t, f.renderer.Slot(0).CameraBuffer, f.renderer.Slot(1).CameraBuffer)
	assert.NotEqual(t, f.renderer.Slot(0).RenderFence, f.renderer.Slot(1).RenderFence)
}

func TestOutOfDateAcquireSkipsFrame(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddByName(f.registry, "triangle", metadata.DefaultMaterialName, mgl32.Ident4()))
	f.device.AcquireErrs = []error{core.NewError(core.ErrSwapchainOutOfDate, "AcquireNextImage", nil)}
	f.surface.Width, f.surface.Height = 800, 600

	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	assert.Equal(t, 1, f.device.Recreated)
	assert.Zero(t, f.device.Count("submit"))
	assert.Zero(t, f.device.Count("reset:fence"))
	assert.Equal(t, uint64(0), f.renderer.FrameNumber())

	w, h := f.device.SwapchainExtent()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	// the slot fence is still signaled, so the retry does not stall
	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	assert.Equal(t, 1, f.device.Count("submit"))
	assert.Empty(t, f.device.Violations)
}

func TestOutOfDatePresentRecreatesAfterSubmit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddByName(f.registry, "triangle", metadata.DefaultMaterialName, mgl32.Ident4()))
	f.device.PresentErrs = []error{core.NewError(core.ErrSwapchainOutOfDate, "QueuePresent", nil)}

	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	assert.Equal(t, 1, f.device.Recreated)
	assert.Equal(t, uint64(1), f.renderer.FrameNumber())
	assert.Less(t, f.device.Index("present"), f.device.Index("recreate"))
}

func TestMinimizedSurfaceSkipsWithoutRecreate(t *testing.T) {
	f := newFixture(t)
	f.surface.Width, f.surface.Height = 0, 0

	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	assert.Zero(t, f.device.Count("wait:fence"))
	assert.Zero(t, f.device.Recreated)
	assert.Equal(t, uint64(0), f.renderer.FrameNumber())
}

func TestFenceTimeout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddByName(f.registry, "triangle", metadata.DefaultMaterialName, mgl32.Ident4()))
	f.device.HangFences = true

	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))

	err := f.renderer.DrawFrame(f.registry, f.scene)
	assert.ErrorIs(t, err, core.ErrSyncTimeout)
	assert.True(t, core.IsFatal(err))
	assert.Equal(t, 2, f.device.Count("submit"))
	assert.Empty(t, f.device.Violations)
}

func TestAcquireFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.device.AcquireErrs = []error{core.NewError(core.ErrSubmission, "AcquireNextImage", nil)}

	err := f.renderer.DrawFrame(f.registry, f.scene)
	assert.ErrorIs(t, err, core.ErrSubmission)
	assert.Zero(t, f.device.Recreated)
}

func TestDrawFrameUnknownMesh(t *testing.T) {
	f := newFixture(t)
	f.scene.Add(metadata.RenderableInstance{Mesh: 42, Transform: mgl32.Ident4()})

	err := f.renderer.DrawFrame(f.registry, f.scene)
	assert.ErrorIs(t, err, core.ErrLookupMiss)
	assert.Zero(t, f.device.Count("submit"))
}

func TestDrawFrameBeforeInitialize(t *testing.T) {
	device := renderertest.NewDevice(1700, 900)
	r := renderer.New(device, components.NewCamera(mgl32.Vec3{}, 70, 0.1, 200), core.DefaultConfig())

	err := r.DrawFrame(systems.NewRegistry(device, r.DeletionQueue()), systems.NewScene())
	assert.ErrorIs(t, err, core.ErrSetup)
}

func TestShutdownWaitsIdleThenReleasesInReverse(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddGrid(f.registry, "triangle", metadata.DefaultMaterialName, 1, 0.2))
	for i := 0; i < 3; i++ {
		require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))
	}

	require.NoError(t, f.renderer.Shutdown())

	idle := f.device.Index("waitidle")
	require.GreaterOrEqual(t, idle, 0)
	for i, call := range f.device.Calls {
		if strings.HasPrefix(call, "destroy:") {
			assert.Greater(t, i, idle, "%s released before the device was idle", call)
		}
	}
	// the mesh buffer was registered last, so it goes first
	assert.Equal(t, "destroy:buffer", f.device.Calls[idle+1])
	// the descriptor pool was registered first, so it goes last
	assert.Equal(t, "destroy:descriptorpool", f.device.Calls[len(f.device.Calls)-1])

	assert.Empty(t, f.device.Live())
	assert.Empty(t, f.device.Violations)
	assert.Zero(t, f.renderer.DeletionQueue().Len())
}

func TestShutdownKeepsResourcesWhenDeviceCannotDrain(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddByName(f.registry, "triangle", metadata.DefaultMaterialName, mgl32.Ident4()))
	f.device.HangFences = true
	require.NoError(t, f.renderer.DrawFrame(f.registry, f.scene))

	err := f.renderer.Shutdown()
	assert.ErrorIs(t, err, core.ErrSubmission)
	assert.NotEmpty(t, f.device.Live())
	assert.Positive(t, f.renderer.DeletionQueue().Len())
}

func TestRunStopsWhenSurfaceCloses(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scene.AddByName(f.registry, "triangle", metadata.DefaultMaterialName, mgl32.Ident4()))
	f.surface.CloseAfter = 3

	require.NoError(t, f.renderer.Run(context.Background(), f.registry, f.scene))
	assert.Equal(t, uint64(3), f.renderer.FrameNumber())
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.renderer.Run(ctx, f.registry, f.scene))
	assert.Equal(t, uint64(0), f.renderer.FrameNumber())
	assert.Zero(t, f.surface.Polls)
}

func TestRunSurfacesFatalErrors(t *testing.T) {
	f := newFixture(t)
	f.scene.Add(metadata.RenderableInstance{Material: 7, Transform: mgl32.Ident4()})

	err := f.renderer.Run(context.Background(), f.registry, f.scene)
	assert.ErrorIs(t, err, core.ErrLookupMiss)
}

func TestSlotStateString(t *testing.T) {
	assert.Equal(t, "idle", renderer.SlotIdle.String())
	assert.Equal(t, "recording", renderer.SlotRecording.String())
	assert.Equal(t, "submitted", renderer.SlotSubmitted.String())
	assert.Equal(t, "unknown", renderer.SlotState(9).String())
}
