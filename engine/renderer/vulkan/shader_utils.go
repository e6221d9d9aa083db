package vulkan

import (
	"encoding/binary"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// CreateShaderModule wraps SPIR-V code. The code is expected to be
// validated already; only its length is checked here.
func (b *Backend) CreateShaderModule(code []byte) (metadata.ShaderModuleHandle, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		err := core.Errorf(core.ErrShaderLoad, "vulkan.CreateShaderModule", "invalid SPIR-V size %d", len(code))
		core.LogError(err.Error())
		return 0, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    bytesToBytecode(code),
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(b.device(), &createInfo, b.context.Allocator, &module); res != vk.Success {
		return 0, resultError(core.ErrShaderLoad, "vulkan.CreateShaderModule", res)
	}
	return metadata.ShaderModuleHandle(b.shaderModules.insert(module)), nil
}

func (b *Backend) DestroyShaderModule(handle metadata.ShaderModuleHandle) {
	module, ok := b.shaderModules.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown shader module %d", handle)
		return
	}
	vk.DestroyShaderModule(b.device(), module, b.context.Allocator)
}

func shaderStageInfo(stage vk.ShaderStageFlagBits, module vk.ShaderModule) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  VulkanSafeString("main"),
	}
}

// SPIR-V words are little endian.
func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return byteCode
}
