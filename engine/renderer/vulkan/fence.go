package vulkan

import (
	"time"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError(core.ErrSetup, "vulkan.NewFence", res)
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) FenceDestroy(context *VulkanContext) {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

// FenceWait blocks until the fence signals or timeout elapses. A fence
// already observed as signaled returns immediately.
func (vf *VulkanFence) FenceWait(context *VulkanContext, timeout time.Duration) error {
	if vf.IsSignaled {
		return nil
	}
	result := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, uint64(timeout.Nanoseconds()))
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		err := core.Errorf(core.ErrSyncTimeout, "vulkan.FenceWait", "timed out after %s", timeout)
		core.LogWarn(err.Error())
		return err
	default:
		return resultError(core.ErrSubmission, "vulkan.FenceWait", result)
	}
}

func (vf *VulkanFence) FenceReset(context *VulkanContext) error {
	if vf.IsSignaled {
		if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
			return resultError(core.ErrSubmission, "vulkan.FenceReset", res)
		}
		vf.IsSignaled = false
	}
	return nil
}

func (b *Backend) CreateFence(signaled bool) (metadata.FenceHandle, error) {
	fence, err := NewFence(b.context, signaled)
	if err != nil {
		return 0, err
	}
	return metadata.FenceHandle(b.fences.insert(fence)), nil
}

func (b *Backend) DestroyFence(handle metadata.FenceHandle) {
	fence, ok := b.fences.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown fence %d", handle)
		return
	}
	fence.FenceDestroy(b.context)
}

func (b *Backend) WaitForFence(handle metadata.FenceHandle, timeout time.Duration) error {
	fence, ok := b.fences.get(uint64(handle))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.WaitForFence", "unknown fence %d", handle)
		core.LogError(err.Error())
		return err
	}
	return fence.FenceWait(b.context, timeout)
}

func (b *Backend) ResetFence(handle metadata.FenceHandle) error {
	fence, ok := b.fences.get(uint64(handle))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.ResetFence", "unknown fence %d", handle)
		core.LogError(err.Error())
		return err
	}
	return fence.FenceReset(b.context)
}

func (b *Backend) CreateSemaphore() (metadata.SemaphoreHandle, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(b.device(), &semaphoreCreateInfo, b.context.Allocator, &semaphore); res != vk.Success {
		return 0, resultError(core.ErrSetup, "vulkan.CreateSemaphore", res)
	}
	return metadata.SemaphoreHandle(b.semaphores.insert(semaphore)), nil
}

func (b *Backend) DestroySemaphore(handle metadata.SemaphoreHandle) {
	semaphore, ok := b.semaphores.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown semaphore %d", handle)
		return
	}
	vk.DestroySemaphore(b.device(), semaphore, b.context.Allocator)
}
