package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

type VulkanPipelineConfig struct {
	/** @brief The renderpass to associate with the pipeline. */
	Renderpass *VulkanRenderpass
	/** @brief Vertex bindings, one per vertex buffer. */
	Bindings []vk.VertexInputBindingDescription
	/** @brief An array of attributes. */
	Attributes []vk.VertexInputAttributeDescription
	/** @brief An array of descriptor set layouts. */
	DescriptorSetLayouts []vk.DescriptorSetLayout
	/** @brief An array of stages. */
	Stages []vk.PipelineShaderStageCreateInfo
	/** @brief The initial viewport configuration. Overridden by dynamic state. */
	Viewport vk.Viewport
	/** @brief The initial scissor configuration. Overridden by dynamic state. */
	Scissor vk.Rect2D
	/** @brief Enables depth test and write with a less-than compare. */
	DepthTest bool
	/** @brief Size of the vertex stage push constant range, zero for none. */
	PushConstantSize uint32
}

func NewGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	outPipeline := &VulkanPipeline{}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{config.Viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{config.Scissor},
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		// Instances spin around Y, both faces stay visible.
		CullMode:        vk.CullModeFlags(vk.CullModeNone),
		FrontFace:       vk.FrontFaceClockwise,
		DepthBiasEnable: vk.False,
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		DepthCompareOp:    vk.CompareOpAlways,
		StencilTestEnable: vk.False,
		MinDepthBounds:    0.0,
		MaxDepthBounds:    1.0,
	}
	if config.DepthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthWriteEnable = vk.True
		depthStencil.DepthCompareOp = vk.CompareOpLessOrEqual
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(config.Bindings)),
		PVertexBindingDescriptions:      config.Bindings,
		VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
		PVertexAttributeDescriptions:    config.Attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(config.DescriptorSetLayouts)),
		PSetLayouts:    config.DescriptorSetLayouts,
	}
	if config.PushConstantSize > 0 {
		pipelineLayoutCreateInfo.PushConstantRangeCount = 1
		pipelineLayoutCreateInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       config.PushConstantSize,
		}}
	}

	var pipelineLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(context.Device.LogicalDevice, &pipelineLayoutCreateInfo, context.Allocator, &pipelineLayout); res != vk.Success {
		return nil, resultError(core.ErrSetup, "vulkan.NewGraphicsPipeline", res)
	}
	outPipeline.PipelineLayout = pipelineLayout

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(context.Device.LogicalDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, context.Allocator, pipelines); res != vk.Success {
		vk.DestroyPipelineLayout(context.Device.LogicalDevice, outPipeline.PipelineLayout, context.Allocator)
		return nil, resultError(core.ErrSetup, "vulkan.NewGraphicsPipeline", res)
	}
	outPipeline.Handle = pipelines[0]

	core.LogDebug("Graphics pipeline created!")
	return outPipeline, nil
}

// BuildPipeline creates a pipeline for the main render pass and returns
// handles to it and its layout. Both must be destroyed by the caller.
func (b *Backend) BuildPipeline(config renderer.PipelineConfig) (metadata.PipelineHandle, metadata.PipelineLayoutHandle, error) {
	vertexModule, ok := b.shaderModules.get(uint64(config.VertexShader))
	if !ok {
		err := core.Errorf(core.ErrSetup, "vulkan.BuildPipeline", "%s: unknown vertex shader module %d", config.Name, config.VertexShader)
		core.LogError(err.Error())
		return 0, 0, err
	}
	fragmentModule, ok := b.shaderModules.get(uint64(config.FragmentShader))
	if !ok {
		err := core.Errorf(core.ErrSetup, "vulkan.BuildPipeline", "%s: unknown fragment shader module %d", config.Name, config.FragmentShader)
		core.LogError(err.Error())
		return 0, 0, err
	}

	setLayouts := make([]vk.DescriptorSetLayout, 0, len(config.SetLayouts))
	for _, h := range config.SetLayouts {
		layout, ok := b.setLayouts.get(uint64(h))
		if !ok {
			err := core.Errorf(core.ErrSetup, "vulkan.BuildPipeline", "%s: unknown descriptor set layout %d", config.Name, h)
			core.LogError(err.Error())
			return 0, 0, err
		}
		setLayouts = append(setLayouts, layout)
	}

	extent := b.context.Swapchain.Extent
	pipelineConfig := &VulkanPipelineConfig{
		Renderpass:           b.context.MainRenderpass,
		Bindings:             vertexBindings(config.VertexInput.Bindings),
		Attributes:           vertexAttributes(config.VertexInput.Attributes),
		DescriptorSetLayouts: setLayouts,
		Stages: []vk.PipelineShaderStageCreateInfo{
			shaderStageInfo(vk.ShaderStageVertexBit, vertexModule),
			shaderStageInfo(vk.ShaderStageFragmentBit, fragmentModule),
		},
		Viewport: vk.Viewport{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		},
		Scissor:          vk.Rect2D{Extent: extent},
		DepthTest:        config.DepthTest,
		PushConstantSize: config.PushConstantSize,
	}

	pipeline, err := NewGraphicsPipeline(b.context, pipelineConfig)
	if err != nil {
		return 0, 0, err
	}
	core.LogDebug("pipeline '%s' built", config.Name)
	return metadata.PipelineHandle(b.pipelines.insert(pipeline.Handle)),
		metadata.PipelineLayoutHandle(b.pipelineLayouts.insert(pipeline.PipelineLayout)),
		nil
}

func (b *Backend) DestroyPipeline(handle metadata.PipelineHandle) {
	pipeline, ok := b.pipelines.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown pipeline %d", handle)
		return
	}
	vk.DestroyPipeline(b.device(), pipeline, b.context.Allocator)
}

func (b *Backend) DestroyPipelineLayout(handle metadata.PipelineLayoutHandle) {
	layout, ok := b.pipelineLayouts.remove(uint64(handle))
	if !ok {
		core.LogWarn("destroying unknown pipeline layout %d", handle)
		return
	}
	vk.DestroyPipelineLayout(b.device(), layout, b.context.Allocator)
}

func vertexBindings(bindings []metadata.VertexBinding) []vk.VertexInputBindingDescription {
	out := make([]vk.VertexInputBindingDescription, len(bindings))
	for i, binding := range bindings {
		inputRate := vk.VertexInputRateVertex
		if binding.PerInstance {
			inputRate = vk.VertexInputRateInstance
		}
		out[i] = vk.VertexInputBindingDescription{
			Binding:   binding.Binding,
			Stride:    binding.Stride,
			InputRate: inputRate,
		}
	}
	return out
}

func vertexAttributes(attributes []metadata.VertexAttribute) []vk.VertexInputAttributeDescription {
	out := make([]vk.VertexInputAttributeDescription, len(attributes))
	for i, attribute := range attributes {
		out[i] = vk.VertexInputAttributeDescription{
			Location: attribute.Location,
			Binding:  attribute.Binding,
			Format:   vertexFormat(attribute.Format),
			Offset:   attribute.Offset,
		}
	}
	return out
}

func vertexFormat(format metadata.VertexFormat) vk.Format {
	switch format {
	case metadata.VertexFormatR32G32B32A32Sfloat:
		return vk.FormatR32g32b32a32Sfloat
	default:
		return vk.FormatR32g32b32Sfloat
	}
}
