package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// CreateDescriptorPool sizes a pool for maxSets sets holding uniformBuffers
// uniform buffer descriptors in total.
func (b *Backend) CreateDescriptorPool(maxSets, uniformBuffers uint32) (metadata.DescriptorPoolHandle, error) {
	poolSizes := []vk.DescriptorPoolSize{{
		Type:            vk.DescriptorTypeUniformBuffer,
		DescriptorCount: uniformBuffers,
	}}
	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(b.device(), &poolCreateInfo, b.context.Allocator, &pool); res != vk.Success {
		return 0, resultError(core.ErrSetup, "vulkan.CreateDescriptorPool", res)
	}
	return metadata.DescriptorPoolHandle(b.descriptorPools.insert(pool)), nil
}

// DestroyDescriptorPool releases the pool and every set allocated from it.
func (b *Backend) DestroyDescriptorPool(handle metadata.DescriptorPoolHandle) {
	pool, ok := b.descriptorPools.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown descriptor pool %d", handle)
		return
	}
	vk.DestroyDescriptorPool(b.device(), pool, b.context.Allocator)
	for setHandle, owner := range b.setOwners {
		if owner == handle {
			b.descriptorSets.remove(setHandle)
			delete(b.setOwners, setHandle)
		}
	}
}

func (b *Backend) CreateUniformSetLayout() (metadata.DescriptorSetLayoutHandle, error) {
	bindings := []vk.DescriptorSetLayoutBinding{{
		Binding:         VULKAN_GLOBAL_UBO_BINDING,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}}
	layoutCreateInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(b.device(), &layoutCreateInfo, b.context.Allocator, &layout); res != vk.Success {
		return 0, resultError(core.ErrSetup, "vulkan.CreateUniformSetLayout", res)
	}
	return metadata.DescriptorSetLayoutHandle(b.setLayouts.insert(layout)), nil
}

func (b *Backend) DestroyDescriptorSetLayout(handle metadata.DescriptorSetLayoutHandle) {
	layout, ok := b.setLayouts.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown descriptor set layout %d", handle)
		return
	}
	vk.DestroyDescriptorSetLayout(b.device(), layout, b.context.Allocator)
}

func (b *Backend) AllocateDescriptorSet(poolHandle metadata.DescriptorPoolHandle, layoutHandle metadata.DescriptorSetLayoutHandle) (metadata.DescriptorSetHandle, error) {
	pool, ok := b.descriptorPools.get(uint64(poolHandle))
	if !ok {
		err := core.Errorf(core.ErrSetup, "vulkan.AllocateDescriptorSet", "unknown descriptor pool %d", poolHandle)
		core.LogError(err.Error())
		return 0, err
	}
	layout, ok := b.setLayouts.get(uint64(layoutHandle))
	if !ok {
		err := core.Errorf(core.ErrSetup, "vulkan.AllocateDescriptorSet", "unknown descriptor set layout %d", layoutHandle)
		core.LogError(err.Error())
		return 0, err
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(b.device(), &allocateInfo, &set); res != vk.Success {
		return 0, resultError(core.ErrSetup, "vulkan.AllocateDescriptorSet", res)
	}
	handle := b.descriptorSets.insert(set)
	b.setOwners[handle] = poolHandle
	return metadata.DescriptorSetHandle(handle), nil
}

// WriteUniformDescriptor points binding 0 of set at the whole of buffer.
func (b *Backend) WriteUniformDescriptor(setHandle metadata.DescriptorSetHandle, buffer metadata.AllocatedBuffer) {
	set, ok := b.descriptorSets.get(uint64(setHandle))
	if !ok {
		core.LogError("writing unknown descriptor set %d", setHandle)
		return
	}
	vb, ok := b.buffers.get(uint64(buffer.Buffer))
	if !ok {
		core.LogError("writing unknown buffer %d into descriptor set %d", buffer.Buffer, setHandle)
		return
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      VULKAN_GLOBAL_UBO_BINDING,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: vb,
			Offset: 0,
			Range:  vk.DeviceSize(buffer.Size),
		}},
	}
	vk.UpdateDescriptorSets(b.device(), 1, []vk.WriteDescriptorSet{write}, 0, nil)
}
