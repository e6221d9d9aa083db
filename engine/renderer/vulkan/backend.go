package vulkan

import (
	"runtime"
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/platform"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// Backend drives a Vulkan device on behalf of the renderer. Objects the
// renderer creates are handed out as opaque handles and resolved through
// per-kind tables.
type Backend struct {
	platform *platform.Platform
	context  *VulkanContext

	appName    string
	validation bool

	handleCounter   uint64
	fences          *handleTable[*VulkanFence]
	semaphores      *handleTable[vk.Semaphore]
	commandPools    *handleTable[vk.CommandPool]
	buffers         *handleTable[vk.Buffer]
	allocations     *handleTable[vk.DeviceMemory]
	images          *handleTable[*VulkanImage]
	descriptorPools *handleTable[vk.DescriptorPool]
	setLayouts      *handleTable[vk.DescriptorSetLayout]
	descriptorSets  *handleTable[vk.DescriptorSet]
	shaderModules   *handleTable[vk.ShaderModule]
	pipelines       *handleTable[vk.Pipeline]
	pipelineLayouts *handleTable[vk.PipelineLayout]

	// Descriptor sets die with the pool they came from.
	setOwners map[uint64]metadata.DescriptorPoolHandle

	depthImage metadata.AllocatedImage
}

var (
	_ renderer.Device          = (*Backend)(nil)
	_ renderer.PipelineFactory = (*Backend)(nil)
)

func New(p *platform.Platform, cfg *core.Config) *Backend {
	b := &Backend{
		platform:   p,
		appName:    cfg.Window.Title,
		validation: cfg.Renderer.Validation,
		context: &VulkanContext{
			FramebufferWidth:  cfg.Window.Width,
			FramebufferHeight: cfg.Window.Height,
			Allocator:         nil,
			PresentMode:       cfg.Renderer.PresentMode,
		},
		setOwners: make(map[uint64]metadata.DescriptorPoolHandle),
	}
	b.fences = newHandleTable[*VulkanFence](&b.handleCounter)
	b.semaphores = newHandleTable[vk.Semaphore](&b.handleCounter)
	b.commandPools = newHandleTable[vk.CommandPool](&b.handleCounter)
	b.buffers = newHandleTable[vk.Buffer](&b.handleCounter)
	b.allocations = newHandleTable[vk.DeviceMemory](&b.handleCounter)
	b.images = newHandleTable[*VulkanImage](&b.handleCounter)
	b.descriptorPools = newHandleTable[vk.DescriptorPool](&b.handleCounter)
	b.setLayouts = newHandleTable[vk.DescriptorSetLayout](&b.handleCounter)
	b.descriptorSets = newHandleTable[vk.DescriptorSet](&b.handleCounter)
	b.shaderModules = newHandleTable[vk.ShaderModule](&b.handleCounter)
	b.pipelines = newHandleTable[vk.Pipeline](&b.handleCounter)
	b.pipelineLayouts = newHandleTable[vk.PipelineLayout](&b.handleCounter)
	return b
}

func (b *Backend) device() vk.Device {
	return b.context.Device.LogicalDevice
}

// Initialize creates the instance, surface, device, swapchain, main render
// pass and its framebuffers.
func (b *Backend) Initialize() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := core.Errorf(core.ErrSetup, "vulkan.Initialize", "GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		err := core.NewError(core.ErrSetup, "vulkan.Initialize", err)
		core.LogError(err.Error())
		return err
	}

	if err := b.createInstance(); err != nil {
		return err
	}

	if b.validation {
		if err := b.createDebugCallback(); err != nil {
			return err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := b.platform.Window.CreateWindowSurface(b.context.Instance, nil)
	if err != nil {
		err := core.NewError(core.ErrSetup, "vulkan.CreateWindowSurface", err)
		core.LogError(err.Error())
		return err
	}
	b.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(b.context); err != nil {
		return err
	}

	sc, err := SwapchainCreate(b.context, b.context.FramebufferWidth, b.context.FramebufferHeight)
	if err != nil {
		return err
	}
	b.context.Swapchain = sc
	b.registerDepthImage()

	rp, err := RenderpassCreate(b.context)
	if err != nil {
		return err
	}
	b.context.MainRenderpass = rp

	if err := b.context.Swapchain.regenerateFramebuffers(b.context, b.context.MainRenderpass); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (b *Backend) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(b.appName),
		PEngineName:        VulkanSafeString(VULKAN_ENGINE_NAME),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, b.platform.GetRequiredExtensionNames()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1 // VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	}

	var layers []string
	if b.validation {
		if b.layerAvailable(VULKAN_VALIDATION_LAYER) {
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
			layers = append(layers, VULKAN_VALIDATION_LAYER)
		} else {
			core.LogWarn("Validation layer %s is missing, continuing without it.", VULKAN_VALIDATION_LAYER)
			b.validation = false
		}
	}

	core.LogDebug("Required extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, b.context.Allocator, &instance); res != vk.Success {
		return resultError(core.ErrSetup, "vulkan.CreateInstance", res)
	}
	b.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		err := core.NewError(core.ErrSetup, "vulkan.InitInstance", err)
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Vulkan Instance created.")
	return nil
}

func (b *Backend) layerAvailable(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return false
	}
	for i := range layers {
		layers[i].Deref()
		if cString(layers[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

func (b *Backend) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}

	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(b.context.Instance, &debugCreateInfo, b.context.Allocator, &dbg); res != vk.Success {
		return resultError(core.ErrSetup, "vulkan.CreateDebugReportCallback", res)
	}
	b.context.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

// registerDepthImage exposes the current swapchain depth attachment under
// fresh handles, dropping the ones of the previous swapchain.
func (b *Backend) registerDepthImage() {
	if !b.depthImage.IsNull() {
		b.images.remove(uint64(b.depthImage.Image))
		b.allocations.remove(uint64(b.depthImage.Allocation))
	}
	depth := b.context.Swapchain.DepthAttachment
	b.depthImage = metadata.AllocatedImage{
		Image:      metadata.ImageHandle(b.images.insert(depth)),
		Allocation: metadata.AllocationHandle(b.allocations.insert(depth.Memory)),
	}
}

// DepthImage is the depth attachment shared by every framebuffer.
func (b *Backend) DepthImage() metadata.AllocatedImage {
	return b.depthImage
}

func (b *Backend) AcquireNextImage(signal metadata.SemaphoreHandle, timeout time.Duration) (uint32, error) {
	semaphore, ok := b.semaphores.get(uint64(signal))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.AcquireNextImage", "unknown semaphore %d", signal)
		core.LogError(err.Error())
		return 0, err
	}
	return b.context.Swapchain.SwapchainAcquireNextImageIndex(b.context, timeout, semaphore, vk.NullFence)
}

// Submit queues cmd on the graphics queue. It waits on wait at the color
// attachment output stage and signals both signal and fence on completion.
func (b *Backend) Submit(cmd renderer.CommandBuffer, wait, signal metadata.SemaphoreHandle, fenceHandle metadata.FenceHandle) error {
	commandBuffer, ok := cmd.(*VulkanCommandBuffer)
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.Submit", "command buffer %T was not allocated by this backend", cmd)
		core.LogError(err.Error())
		return err
	}
	waitSemaphore, ok := b.semaphores.get(uint64(wait))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.Submit", "unknown wait semaphore %d", wait)
		core.LogError(err.Error())
		return err
	}
	signalSemaphore, ok := b.semaphores.get(uint64(signal))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.Submit", "unknown signal semaphore %d", signal)
		core.LogError(err.Error())
		return err
	}
	fence, ok := b.fences.get(uint64(fenceHandle))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.Submit", "unknown fence %d", fenceHandle)
		core.LogError(err.Error())
		return err
	}

	// Color attachment writes may not start before the image is available.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{waitSemaphore},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signalSemaphore},
	}

	if res := vk.QueueSubmit(b.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle); res != vk.Success {
		return resultError(core.ErrSubmission, "vulkan.QueueSubmit", res)
	}
	fence.IsSignaled = false
	commandBuffer.UpdateSubmitted()
	return nil
}

func (b *Backend) Present(imageIndex uint32, wait metadata.SemaphoreHandle) error {
	semaphore, ok := b.semaphores.get(uint64(wait))
	if !ok {
		err := core.Errorf(core.ErrSubmission, "vulkan.Present", "unknown semaphore %d", wait)
		core.LogError(err.Error())
		return err
	}
	return b.context.Swapchain.SwapchainPresent(b.context, b.context.Device.PresentQueue, semaphore, imageIndex)
}

// RecreateSwapchain rebuilds the swapchain, depth attachment and
// framebuffers for a surface of width x height. A zero sized surface is
// left alone.
func (b *Backend) RecreateSwapchain(width, height uint32) error {
	if width == 0 || height == 0 {
		core.LogDebug("RecreateSwapchain called when window is < 1 in a dimension. Booting.")
		return nil
	}

	if err := b.WaitIdle(); err != nil {
		return err
	}

	sc, err := b.context.Swapchain.SwapchainRecreate(b.context, width, height)
	if err != nil {
		return err
	}
	b.context.Swapchain = sc
	b.registerDepthImage()

	if err := sc.regenerateFramebuffers(b.context, b.context.MainRenderpass); err != nil {
		return err
	}
	b.context.FramebufferWidth = sc.Extent.Width
	b.context.FramebufferHeight = sc.Extent.Height

	core.LogInfo("Resized, booting.")
	return nil
}

func (b *Backend) SwapchainExtent() (uint32, uint32) {
	return b.context.Swapchain.Extent.Width, b.context.Swapchain.Extent.Height
}

func (b *Backend) WaitIdle() error {
	if res := vk.DeviceWaitIdle(b.device()); res != vk.Success {
		return resultError(core.ErrSubmission, "vulkan.DeviceWaitIdle", res)
	}
	return nil
}

// Shutdown destroys what Initialize created, in the opposite order. Every
// renderer-owned object must already be released.
func (b *Backend) Shutdown() {
	if b.context.Device != nil && b.context.Device.LogicalDevice != nil {
		if err := b.WaitIdle(); err != nil {
			core.LogWarn("destroying device objects while the device is not idle: %s", err)
		}
		b.reportLeaks()

		if b.context.Swapchain != nil {
			b.context.Swapchain.SwapchainDestroy(b.context)
			b.context.Swapchain = nil
		}
		if b.context.MainRenderpass != nil {
			b.context.MainRenderpass.RenderpassDestroy(b.context)
			b.context.MainRenderpass = nil
		}
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(b.context)

	core.LogDebug("Destroying Vulkan surface...")
	if b.context.Surface != vk.NullSurface {
		vk.DestroySurface(b.context.Instance, b.context.Surface, b.context.Allocator)
		b.context.Surface = vk.NullSurface
	}

	if b.context.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(b.context.Instance, b.context.debugCallback, b.context.Allocator)
		b.context.debugCallback = vk.NullDebugReportCallback
	}

	if b.context.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(b.context.Instance, b.context.Allocator)
		b.context.Instance = nil
	}
}

func (b *Backend) reportLeaks() {
	live := map[string]int{
		"fence":                 b.fences.len(),
		"semaphore":             b.semaphores.len(),
		"command pool":          b.commandPools.len(),
		"buffer":                b.buffers.len(),
		"descriptor pool":       b.descriptorPools.len(),
		"descriptor set layout": b.setLayouts.len(),
		"shader module":         b.shaderModules.len(),
		"pipeline":              b.pipelines.len(),
		"pipeline layout":       b.pipelineLayouts.len(),
	}
	for kind, n := range live {
		if n > 0 {
			core.LogWarn("%d %s object(s) still alive at backend shutdown", n, kind)
		}
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
