package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/vtabletop/engine/containers"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/components"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// Renderer drives the per-frame protocol: wait for the slot's previous
// submission, acquire an image, record the scene, submit and present.
type Renderer struct {
	id     uuid.UUID
	logger *log.Logger

	device  Device
	surface Surface
	camera  *components.Camera

	clearColor   [4]float32
	fenceTimeout time.Duration
	spinRate     float32

	deletionQueue   *containers.DeletionQueue
	frames          *containers.Ring[*FrameSlot]
	frameNumber     uint64
	descriptorPool  metadata.DescriptorPoolHandle
	globalSetLayout metadata.DescriptorSetLayoutHandle

	clock   *core.Clock
	metrics *core.Metrics

	initialized bool
}

func New(device Device, camera *components.Camera, cfg *core.Config) *Renderer {
	id := uuid.New()
	return &Renderer{
		id:            id,
		logger:        core.WithFields("renderer", id.String()[:8]),
		device:        device,
		camera:        camera,
		clearColor:    cfg.Renderer.ClearColor,
		fenceTimeout:  cfg.Renderer.FenceTimeout.Duration,
		spinRate:      cfg.Renderer.SpinRate,
		deletionQueue: containers.NewDeletionQueue(),
		frames:        containers.NewRing[*FrameSlot](FramesInFlight),
		clock:         core.NewClock(),
		metrics:       core.NewMetrics(),
	}
}

// Initialize creates the per-slot synchronization objects, command buffers
// and camera uniform buffers. Everything created is released by Shutdown.
func (r *Renderer) Initialize(surface Surface) error {
	r.surface = surface

	if err := r.initDescriptors(); err != nil {
		core.LogError(err.Error())
		return err
	}
	for i := 0; i < FramesInFlight; i++ {
		slot, err := r.initFrame(i)
		if err != nil {
			core.LogError(err.Error())
			return err
		}
		r.frames.Set(i, slot)
	}

	r.initialized = true
	r.clock.Start()
	r.logger.Info("renderer initialized", "frames_in_flight", FramesInFlight)
	return nil
}

func (r *Renderer) initDescriptors() error {
	pool, err := r.device.CreateDescriptorPool(FramesInFlight, FramesInFlight)
	if err != nil {
		return core.NewError(core.ErrSetup, "CreateDescriptorPool", err)
	}
	r.descriptorPool = pool
	r.deletionQueue.Push(func() { r.device.DestroyDescriptorPool(pool) })

	layout, err := r.device.CreateUniformSetLayout()
	if err != nil {
		return core.NewError(core.ErrSetup, "CreateUniformSetLayout", err)
	}
	r.globalSetLayout = layout
	r.deletionQueue.Push(func() { r.device.DestroyDescriptorSetLayout(layout) })
	return nil
}

func (r *Renderer) initFrame(index int) (*FrameSlot, error) {
	op := fmt.Sprintf("initFrame(%d)", index)
	slot := &FrameSlot{}

	pool, err := r.device.CreateCommandPool()
	if err != nil {
		return nil, core.NewError(core.ErrSetup, op, err)
	}
	slot.CommandPool = pool
	r.deletionQueue.Push(func() { r.device.DestroyCommandPool(pool) })

	if slot.Commands, err = r.device.AllocateCommandBuffer(pool); err != nil {
		return nil, core.NewError(core.ErrSetup, op, err)
	}

	// Created signaled so the first wait on this slot returns immediately.
	fence, err := r.device.CreateFence(true)
	if err != nil {
		return nil, core.NewError(core.ErrSetup, op, err)
	}
	slot.RenderFence = fence
	r.deletionQueue.Push(func() { r.device.DestroyFence(fence) })

	imageAvailable, err := r.device.CreateSemaphore()
	if err != nil {
		return nil, core.NewError(core.ErrSetup, op, err)
	}
	slot.ImageAvailable = imageAvailable
	r.deletionQueue.Push(func() { r.device.DestroySemaphore(imageAvailable) })

	renderFinished, err := r.device.CreateSemaphore()
	if err != nil {
		return nil, core.NewError(core.ErrSetup, op, err)
	}
	slot.RenderFinished = renderFinished
	r.deletionQueue.Push(func() { r.device.DestroySemaphore(renderFinished) })

	buffer, err := r.device.CreateBuffer(metadata.CameraDataSize, metadata.BufferUsageUniform)
	if err != nil {
		return nil, core.NewError(core.ErrSetup, op, err)
	}
	slot.CameraBuffer = buffer
	r.deletionQueue.Push(func() { r.device.DestroyBuffer(buffer) })

	// Descriptor sets go back with their pool.
	set, err := r.device.AllocateDescriptorSet(r.descriptorPool, r.globalSetLayout)
	if err != nil {
		return nil, core.NewError(core.ErrSetup, op, err)
	}
	r.device.WriteUniformDescriptor(set, buffer)
	slot.GlobalDescriptor = set

	return slot, nil
}

// DeletionQueue is the queue resources created on behalf of the renderer
// register their teardown with.
func (r *Renderer) DeletionQueue() *containers.DeletionQueue {
	return r.deletionQueue
}

// GlobalSetLayout is the layout of the per-frame camera descriptor set.
// Pipelines that draw through this renderer must include it at set 0.
func (r *Renderer) GlobalSetLayout() metadata.DescriptorSetLayoutHandle {
	return r.globalSetLayout
}

func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

// Slot returns frame slot i, 0 <= i < FramesInFlight.
func (r *Renderer) Slot(i int) *FrameSlot {
	return r.frames.At(uint64(i))
}

// CurrentFrame is the slot the next DrawFrame records into.
func (r *Renderer) CurrentFrame() *FrameSlot {
	return r.frames.At(r.frameNumber)
}

// DrawFrame renders one frame of scene. A swapchain that went out of date is
// recreated and the frame skipped without error.
func (r *Renderer) DrawFrame(resources Resources, scene Scene) error {
	if !r.initialized {
		return core.NewError(core.ErrSetup, "DrawFrame", errors.New("renderer not initialized"))
	}

	width, height := r.surface.FramebufferSize()
	if width == 0 || height == 0 {
		// minimized
		return nil
	}

	slot := r.CurrentFrame()
	if err := r.device.WaitForFence(slot.RenderFence, r.fenceTimeout); err != nil {
		core.LogError(err.Error())
		return err
	}
	slot.State = SlotIdle

	imageIndex, err := r.device.AcquireNextImage(slot.ImageAvailable, r.fenceTimeout)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainOutOfDate) {
			return r.recreateSwapchain(width, height)
		}
		core.LogError(err.Error())
		return err
	}

	// Only reset once an image is guaranteed, so a skipped frame leaves the
	// fence signaled for the next wait.
	if err := r.device.ResetFence(slot.RenderFence); err != nil {
		core.LogError(err.Error())
		return err
	}

	slot.State = SlotRecording
	if err := r.record(slot, imageIndex, resources, scene); err != nil {
		core.LogError(err.Error())
		return err
	}

	if err := r.device.Submit(slot.Commands, slot.ImageAvailable, slot.RenderFinished, slot.RenderFence); err != nil {
		core.LogError(err.Error())
		return err
	}
	slot.State = SlotSubmitted

	presentErr := r.device.Present(imageIndex, slot.RenderFinished)
	r.frameNumber++
	r.updateMetrics()

	if presentErr != nil {
		if errors.Is(presentErr, core.ErrSwapchainOutOfDate) {
			return r.recreateSwapchain(width, height)
		}
		core.LogError(presentErr.Error())
		return presentErr
	}
	return nil
}

func (r *Renderer) record(slot *FrameSlot, imageIndex uint32, resources Resources, scene Scene) error {
	cmd := slot.Commands
	if err := cmd.Reset(); err != nil {
		return core.NewError(core.ErrSubmission, "CommandBuffer.Reset", err)
	}
	if err := cmd.Begin(); err != nil {
		return core.NewError(core.ErrSubmission, "CommandBuffer.Begin", err)
	}

	width, height := r.device.SwapchainExtent()
	if err := r.writeCamera(slot, width, height); err != nil {
		return err
	}

	cmd.BeginRenderPass(imageIndex, r.clearColor, 1.0, 0)
	cmd.SetViewport(width, height)
	drawErr := r.drawObjects(slot, resources, scene.Instances())
	cmd.EndRenderPass()
	if drawErr != nil {
		return drawErr
	}

	if err := cmd.End(); err != nil {
		return core.NewError(core.ErrSubmission, "CommandBuffer.End", err)
	}
	return nil
}

func (r *Renderer) writeCamera(slot *FrameSlot, width, height uint32) error {
	data := r.camera.Data(width, height)

	mapped, err := r.device.MapMemory(slot.CameraBuffer)
	if err != nil {
		return core.NewError(core.ErrSubmission, "MapMemory(camera)", err)
	}
	defer r.device.UnmapMemory(slot.CameraBuffer)

	copy(mapped, data.Bytes())
	return nil
}

// drawObjects records one draw per instance, rebinding the pipeline and
// descriptor set only when the material changes and the vertex buffer only
// when the mesh changes.
func (r *Renderer) drawObjects(slot *FrameSlot, resources Resources, instances []metadata.RenderableInstance) error {
	cmd := slot.Commands
	angle := float32(r.frameNumber) * r.spinRate
	spin := mgl32.HomogRotate3DY(angle)

	var lastMaterial *metadata.Material
	var lastMesh *metadata.Mesh
	for i := range instances {
		instance := &instances[i]

		material := resources.Material(instance.Material)
		if material == nil {
			return core.Errorf(core.ErrLookupMiss, "drawObjects", "instance %d: material %d", i, instance.Material)
		}
		mesh := resources.Mesh(instance.Mesh)
		if mesh == nil {
			return core.Errorf(core.ErrLookupMiss, "drawObjects", "instance %d: mesh %d", i, instance.Mesh)
		}

		if material != lastMaterial {
			cmd.BindPipeline(material.Pipeline)
			cmd.BindDescriptorSet(material.PipelineLayout, slot.GlobalDescriptor)
			lastMaterial = material
		}

		constants := metadata.MeshPushConstants{
			Data:         mgl32.Vec4{0, 0, 0, angle},
			RenderMatrix: instance.Transform.Mul4(spin),
		}
		cmd.PushConstants(material.PipelineLayout, &constants)

		if mesh != lastMesh {
			cmd.BindVertexBuffer(mesh.VertexBuffer)
			lastMesh = mesh
		}

		cmd.Draw(mesh.VertexCount(), 1, 0, 0)
	}
	return nil
}

func (r *Renderer) recreateSwapchain(width, height uint32) error {
	r.logger.Debug("swapchain out of date, recreating", "width", width, "height", height)
	if err := r.device.RecreateSwapchain(width, height); err != nil {
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (r *Renderer) updateMetrics() {
	r.clock.Update()
	elapsed := r.clock.Elapsed()
	r.clock.Start()
	if r.metrics.Update(elapsed) {
		fps, frameTime := r.metrics.Frame()
		r.logger.Debug("frame stats", "fps", fps, "frame_ms", fmt.Sprintf("%.2f", frameTime), "frame", r.frameNumber)
	}
}

// Run draws frames until ctx is cancelled or the surface asks to close.
// Cancellation is only observed between frames.
func (r *Renderer) Run(ctx context.Context, resources Resources, scene Scene) error {
	for !r.surface.ShouldClose() {
		select {
		case <-ctx.Done():
			r.logger.Info("render loop cancelled", "frames", r.frameNumber)
			return nil
		default:
		}

		r.surface.PollEvents()
		if err := r.DrawFrame(resources, scene); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown waits for the device to go idle, then releases every resource in
// reverse creation order. Nothing is released if the device cannot be
// drained.
func (r *Renderer) Shutdown() error {
	if err := r.device.WaitIdle(); err != nil {
		err = core.NewError(core.ErrSubmission, "WaitIdle", err)
		core.LogError(err.Error())
		return err
	}
	r.deletionQueue.Flush()
	r.initialized = false
	r.logger.Info("renderer shut down", "frames", r.frameNumber)
	return nil
}
