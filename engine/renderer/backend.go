package renderer

import (
	"time"

	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// Surface is the window the renderer presents into.
type Surface interface {
	FramebufferSize() (width, height uint32)
	ShouldClose() bool
	PollEvents()
}

// CommandBuffer records GPU work for one frame slot.
type CommandBuffer interface {
	Reset() error
	Begin() error
	End() error

	BeginRenderPass(imageIndex uint32, clearColor [4]float32, depth float32, stencil uint32)
	EndRenderPass()
	// SetViewport sets both the viewport and the scissor to cover width x height.
	SetViewport(width, height uint32)

	BindPipeline(pipeline metadata.PipelineHandle)
	BindDescriptorSet(layout metadata.PipelineLayoutHandle, set metadata.DescriptorSetHandle)
	PushConstants(layout metadata.PipelineLayoutHandle, constants *metadata.MeshPushConstants)
	BindVertexBuffer(buffer metadata.AllocatedBuffer)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

// Device is the GPU the renderer drives: queues, memory, synchronization
// primitives and the swapchain.
//
// Every method that can fail returns a *core.Error whose kind tells the
// caller whether the failure is recoverable.
type Device interface {
	CreateFence(signaled bool) (metadata.FenceHandle, error)
	DestroyFence(fence metadata.FenceHandle)
	// WaitForFence blocks until fence signals. It fails with
	// core.ErrSyncTimeout once timeout elapses.
	WaitForFence(fence metadata.FenceHandle, timeout time.Duration) error
	ResetFence(fence metadata.FenceHandle) error

	CreateSemaphore() (metadata.SemaphoreHandle, error)
	DestroySemaphore(semaphore metadata.SemaphoreHandle)

	CreateCommandPool() (metadata.CommandPoolHandle, error)
	DestroyCommandPool(pool metadata.CommandPoolHandle)
	AllocateCommandBuffer(pool metadata.CommandPoolHandle) (CommandBuffer, error)

	// CreateBuffer allocates a host visible buffer.
	CreateBuffer(size uint64, usage metadata.BufferUsage) (metadata.AllocatedBuffer, error)
	DestroyBuffer(buffer metadata.AllocatedBuffer)
	MapMemory(buffer metadata.AllocatedBuffer) ([]byte, error)
	UnmapMemory(buffer metadata.AllocatedBuffer)

	CreateDescriptorPool(maxSets, uniformBuffers uint32) (metadata.DescriptorPoolHandle, error)
	DestroyDescriptorPool(pool metadata.DescriptorPoolHandle)
	// CreateUniformSetLayout describes a single uniform buffer at binding 0
	// visible to the vertex stage.
	CreateUniformSetLayout() (metadata.DescriptorSetLayoutHandle, error)
	DestroyDescriptorSetLayout(layout metadata.DescriptorSetLayoutHandle)
	AllocateDescriptorSet(pool metadata.DescriptorPoolHandle, layout metadata.DescriptorSetLayoutHandle) (metadata.DescriptorSetHandle, error)
	WriteUniformDescriptor(set metadata.DescriptorSetHandle, buffer metadata.AllocatedBuffer)

	// AcquireNextImage returns the index of the next presentable image and
	// arranges for signal to fire once it is ready. A swapchain that no longer
	// matches the surface yields core.ErrSwapchainOutOfDate.
	AcquireNextImage(signal metadata.SemaphoreHandle, timeout time.Duration) (uint32, error)
	Submit(cmd CommandBuffer, wait, signal metadata.SemaphoreHandle, fence metadata.FenceHandle) error
	Present(imageIndex uint32, wait metadata.SemaphoreHandle) error
	RecreateSwapchain(width, height uint32) error
	SwapchainExtent() (width, height uint32)

	WaitIdle() error
}

// PipelineConfig is everything needed to build a forward pass pipeline.
type PipelineConfig struct {
	Name           string
	VertexShader   metadata.ShaderModuleHandle
	FragmentShader metadata.ShaderModuleHandle
	VertexInput    metadata.VertexInputDescription
	SetLayouts     []metadata.DescriptorSetLayoutHandle
	// PushConstantSize is the size of the vertex stage push constant range.
	PushConstantSize uint32
	DepthTest        bool
}

// PipelineFactory builds pipelines compatible with the device's render pass.
type PipelineFactory interface {
	CreateShaderModule(code []byte) (metadata.ShaderModuleHandle, error)
	DestroyShaderModule(module metadata.ShaderModuleHandle)
	BuildPipeline(config PipelineConfig) (metadata.PipelineHandle, metadata.PipelineLayoutHandle, error)
	DestroyPipeline(pipeline metadata.PipelineHandle)
	DestroyPipelineLayout(layout metadata.PipelineLayoutHandle)
}

// Resources resolves registry handles stored in scene instances.
type Resources interface {
	Mesh(id metadata.MeshID) *metadata.Mesh
	Material(id metadata.MaterialID) *metadata.Material
}

// Scene provides the instances to draw, in draw order.
type Scene interface {
	Instances() []metadata.RenderableInstance
}
