package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// VulkanCommandBuffer is a primary command buffer. It resolves the
// renderer's handles through the backend that allocated it.
type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState

	backend *Backend
}

var _ renderer.CommandBuffer = (*VulkanCommandBuffer)(nil)

// CreateCommandPool creates a resettable pool on the graphics queue family.
func (b *Backend) CreateCommandPool() (metadata.CommandPoolHandle, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(b.context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(b.device(), &poolCreateInfo, b.context.Allocator, &pool); res != vk.Success {
		return 0, resultError(core.ErrSetup, "vulkan.CreateCommandPool", res)
	}
	return metadata.CommandPoolHandle(b.commandPools.insert(pool)), nil
}

// DestroyCommandPool also frees every command buffer allocated from it.
func (b *Backend) DestroyCommandPool(handle metadata.CommandPoolHandle) {
	pool, ok := b.commandPools.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown command pool %d", handle)
		return
	}
	vk.DestroyCommandPool(b.device(), pool, b.context.Allocator)
}

func (b *Backend) AllocateCommandBuffer(handle metadata.CommandPoolHandle) (renderer.CommandBuffer, error) {
	pool, ok := b.commandPools.get(uint64(handle))
	if !ok {
		err := core.Errorf(core.ErrSetup, "vulkan.AllocateCommandBuffer", "unknown command pool %d", handle)
		core.LogError(err.Error())
		return nil, err
	}
	return NewVulkanCommandBuffer(b, pool)
}

func NewVulkanCommandBuffer(b *Backend, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	vCommandBuffer := &VulkanCommandBuffer{
		State:   COMMAND_BUFFER_STATE_NOT_ALLOCATED,
		backend: b,
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}

	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(b.device(), &allocateInfo, handles); res != vk.Success {
		return nil, resultError(core.ErrSetup, "vulkan.AllocateCommandBuffer", res)
	}
	vCommandBuffer.Handle = handles[0]
	vCommandBuffer.State = COMMAND_BUFFER_STATE_READY
	return vCommandBuffer, nil
}

func (v *VulkanCommandBuffer) Reset() error {
	if res := vk.ResetCommandBuffer(v.Handle, 0); res != vk.Success {
		return resultError(core.ErrSubmission, "vulkan.CommandBuffer.Reset", res)
	}
	v.State = COMMAND_BUFFER_STATE_READY
	return nil
}

// Begin starts recording. Every frame re-records its buffer, so it is
// always marked one-time-submit.
func (v *VulkanCommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return resultError(core.ErrSubmission, "vulkan.CommandBuffer.Begin", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return resultError(core.ErrSubmission, "vulkan.CommandBuffer.End", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *VulkanCommandBuffer) BeginRenderPass(imageIndex uint32, clearColor [4]float32, depth float32, stencil uint32) {
	ctx := v.backend.context
	if int(imageIndex) >= len(ctx.Swapchain.Framebuffers) {
		core.LogError("no framebuffer for swapchain image %d", imageIndex)
		return
	}
	ctx.MainRenderpass.RenderpassBegin(v, ctx.Swapchain.Framebuffers[imageIndex].Handle, ctx.Swapchain.Extent, clearColor, depth, stencil)
}

func (v *VulkanCommandBuffer) EndRenderPass() {
	v.backend.context.MainRenderpass.RenderpassEnd(v)
}

func (v *VulkanCommandBuffer) SetViewport(width, height uint32) {
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: width, Height: height},
	}
	vk.CmdSetViewport(v.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(v.Handle, 0, 1, []vk.Rect2D{scissor})
}

func (v *VulkanCommandBuffer) BindPipeline(handle metadata.PipelineHandle) {
	pipeline, ok := v.backend.pipelines.get(uint64(handle))
	if !ok {
		core.LogError("binding unknown pipeline %d", handle)
		return
	}
	vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointGraphics, pipeline)
}

func (v *VulkanCommandBuffer) BindDescriptorSet(layoutHandle metadata.PipelineLayoutHandle, setHandle metadata.DescriptorSetHandle) {
	layout, ok := v.backend.pipelineLayouts.get(uint64(layoutHandle))
	if !ok {
		core.LogError("binding descriptor set with unknown pipeline layout %d", layoutHandle)
		return
	}
	set, ok := v.backend.descriptorSets.get(uint64(setHandle))
	if !ok {
		core.LogError("binding unknown descriptor set %d", setHandle)
		return
	}
	vk.CmdBindDescriptorSets(v.Handle, vk.PipelineBindPointGraphics, layout, 0, 1, []vk.DescriptorSet{set}, 0, nil)
}

func (v *VulkanCommandBuffer) PushConstants(layoutHandle metadata.PipelineLayoutHandle, constants *metadata.MeshPushConstants) {
	layout, ok := v.backend.pipelineLayouts.get(uint64(layoutHandle))
	if !ok {
		core.LogError("pushing constants with unknown pipeline layout %d", layoutHandle)
		return
	}
	vk.CmdPushConstants(v.Handle, layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, metadata.MeshPushConstantsSize, unsafe.Pointer(constants))
}

func (v *VulkanCommandBuffer) BindVertexBuffer(buffer metadata.AllocatedBuffer) {
	vb, ok := v.backend.buffers.get(uint64(buffer.Buffer))
	if !ok {
		core.LogError("binding unknown vertex buffer %d", buffer.Buffer)
		return
	}
	vk.CmdBindVertexBuffers(v.Handle, 0, 1, []vk.Buffer{vb}, []vk.DeviceSize{0})
}

func (v *VulkanCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(v.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
}
