package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

func bufferUsageFlags(usage metadata.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlags
	if usage&metadata.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if usage&metadata.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if usage&metadata.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if usage&metadata.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if usage&metadata.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	return flags
}

// CreateBuffer allocates a host visible, coherent buffer of size bytes with
// its own dedicated memory allocation.
func (b *Backend) CreateBuffer(size uint64, usage metadata.BufferUsage) (metadata.AllocatedBuffer, error) {
	device := b.device()

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       bufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(device, &bufferCreateInfo, b.context.Allocator, &buffer); res != vk.Success {
		return metadata.AllocatedBuffer{}, resultError(core.ErrSetup, "vulkan.CreateBuffer", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &requirements)
	requirements.Deref()

	memoryFlags := uint32(vk.MemoryPropertyHostVisibleBit) | uint32(vk.MemoryPropertyHostCoherentBit)
	memoryType := b.context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if memoryType == -1 {
		vk.DestroyBuffer(device, buffer, b.context.Allocator)
		err := core.Errorf(core.ErrSetup, "vulkan.CreateBuffer", "no host visible memory type for %d bytes", size)
		core.LogError(err.Error())
		return metadata.AllocatedBuffer{}, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocateInfo, b.context.Allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(device, buffer, b.context.Allocator)
		return metadata.AllocatedBuffer{}, resultError(core.ErrSetup, "vulkan.CreateBuffer", res)
	}

	if res := vk.BindBufferMemory(device, buffer, memory, 0); res != vk.Success {
		vk.FreeMemory(device, memory, b.context.Allocator)
		vk.DestroyBuffer(device, buffer, b.context.Allocator)
		return metadata.AllocatedBuffer{}, resultError(core.ErrSetup, "vulkan.CreateBuffer", res)
	}

	return metadata.AllocatedBuffer{
		Buffer:     metadata.BufferHandle(b.buffers.insert(buffer)),
		Allocation: metadata.AllocationHandle(b.allocations.insert(memory)),
		Size:       size,
	}, nil
}

// DestroyBuffer releases the buffer and then its allocation.
func (b *Backend) DestroyBuffer(buffer metadata.AllocatedBuffer) {
	if vb, ok := b.buffers.remove(uint64(buffer.Buffer)); ok {
		vk.DestroyBuffer(b.device(), vb, b.context.Allocator)
	} else {
		core.LogWarn("destroying unknown buffer %d", buffer.Buffer)
	}
	if memory, ok := b.allocations.remove(uint64(buffer.Allocation)); ok {
		vk.FreeMemory(b.device(), memory, b.context.Allocator)
	}
}

// MapMemory returns a slice aliasing the buffer's memory. It is valid until
// UnmapMemory.
func (b *Backend) MapMemory(buffer metadata.AllocatedBuffer) ([]byte, error) {
	memory, ok := b.allocations.get(uint64(buffer.Allocation))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.MapMemory", "unknown allocation %d", buffer.Allocation)
		core.LogError(err.Error())
		return nil, err
	}
	var data unsafe.Pointer
	if res := vk.MapMemory(b.device(), memory, 0, vk.DeviceSize(buffer.Size), 0, &data); res != vk.Success {
		return nil, resultError(core.ErrSubmission, "vulkan.MapMemory", res)
	}
	return unsafe.Slice((*byte)(data), buffer.Size), nil
}

func (b *Backend) UnmapMemory(buffer metadata.AllocatedBuffer) {
	memory, ok := b.allocations.get(uint64(buffer.Allocation))
	if !ok {
		core.LogWarn("unmapping unknown allocation %d", buffer.Allocation)
		return
	}
	vk.UnmapMemory(b.device(), memory)
}
