// Package renderertest provides an in-memory renderer.Device that records
// every call and checks the frame synchronization rules as it goes.
package renderertest

import (
	"errors"
	"fmt"
	"time"

	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

type fenceState struct {
	signaled bool
	pending  bool
	cmd      *CommandBuffer
	refs     map[metadata.BufferHandle]bool
}

type bufferState struct {
	data   []byte
	usage  metadata.BufferUsage
	mapped bool
}

// Device simulates a GPU that finishes a submission the moment its fence is
// waited on.
type Device struct {
	// Calls is the ordered log of device and command buffer operations.
	Calls []string
	// Violations collects every broken synchronization rule.
	Violations []string
	// MaxInFlight is the largest number of submissions observed pending at once.
	MaxInFlight int
	// Recreated counts swapchain recreations.
	Recreated int

	// AcquireErrs and PresentErrs are returned, one per call, before
	// falling back to success.
	AcquireErrs []error
	PresentErrs []error
	// HangFences makes waits on pending fences time out.
	HangFences bool
	// FailCreateBuffer is returned by CreateBuffer when set.
	FailCreateBuffer error
	// FailMapMemory is returned by MapMemory when set.
	FailMapMemory error

	Pipelines []renderer.PipelineConfig

	next       uint64
	live       map[uint64]string
	fences     map[metadata.FenceHandle]*fenceState
	buffers    map[metadata.BufferHandle]*bufferState
	sets       map[metadata.DescriptorSetHandle]metadata.BufferHandle
	imageCount uint32
	nextImage  uint32
	width      uint32
	height     uint32
}

var (
	_ renderer.Device          = (*Device)(nil)
	_ renderer.PipelineFactory = (*Device)(nil)
)

func NewDevice(width, height uint32) *Device {
	return &Device{
		live:       make(map[uint64]string),
		fences:     make(map[metadata.FenceHandle]*fenceState),
		buffers:    make(map[metadata.BufferHandle]*bufferState),
		sets:       make(map[metadata.DescriptorSetHandle]metadata.BufferHandle),
		imageCount: 3,
		width:      width,
		height:     height,
	}
}

func (d *Device) log(format string, args ...interface{}) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) violate(format string, args ...interface{}) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Device) create(kind string) uint64 {
	d.next++
	d.live[d.next] = kind
	d.log("create:%s", kind)
	return d.next
}

func (d *Device) destroy(kind string, handle uint64) {
	if handle == 0 {
		return
	}
	if got, ok := d.live[handle]; !ok || got != kind {
		d.violate("destroy %s %d: not a live %s", kind, handle, kind)
		return
	}
	delete(d.live, handle)
	d.log("destroy:%s", kind)
}

// Live reports objects created and not yet destroyed, by kind.
func (d *Device) Live() map[string]int {
	out := make(map[string]int)
	for _, kind := range d.live {
		out[kind]++
	}
	return out
}

// Count returns how many logged calls equal op.
func (d *Device) Count(op string) int {
	n := 0
	for _, c := range d.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// Index returns the position of the first logged call equal to op, or -1.
func (d *Device) Index(op string) int {
	for i, c := range d.Calls {
		if c == op {
			return i
		}
	}
	return -1
}

// BufferData is the host-visible contents of buffer.
func (d *Device) BufferData(buffer metadata.AllocatedBuffer) []byte {
	if b, ok := d.buffers[buffer.Buffer]; ok {
		return b.data
	}
	return nil
}

func (d *Device) pendingCount() int {
	n := 0
	for _, f := range d.fences {
		if f.pending {
			n++
		}
	}
	return n
}

func (d *Device) CreateFence(signaled bool) (metadata.FenceHandle, error) {
	h := metadata.FenceHandle(d.create("fence"))
	d.fences[h] = &fenceState{signaled: signaled}
	return h, nil
}

func (d *Device) DestroyFence(fence metadata.FenceHandle) {
	delete(d.fences, fence)
	d.destroy("fence", uint64(fence))
}

func (d *Device) WaitForFence(fence metadata.FenceHandle, timeout time.Duration) error {
	d.log("wait:fence")
	f, ok := d.fences[fence]
	if !ok {
		return core.Errorf(core.ErrSyncTimeout, "WaitForFence", "unknown fence %d", fence)
	}
	if f.signaled {
		return nil
	}
	if !f.pending || d.HangFences {
		// Nothing will ever signal this fence.
		return core.Errorf(core.ErrSyncTimeout, "WaitForFence", "fence %d not signaled after %s", fence, timeout)
	}
	f.pending = false
	f.signaled = true
	f.refs = nil
	if f.cmd != nil {
		f.cmd.pending = false
		f.cmd = nil
	}
	return nil
}

func (d *Device) ResetFence(fence metadata.FenceHandle) error {
	d.log("reset:fence")
	f, ok := d.fences[fence]
	if !ok {
		return core.Errorf(core.ErrSubmission, "ResetFence", "unknown fence %d", fence)
	}
	if f.pending {
		d.violate("reset fence %d while its submission is pending", fence)
	}
	f.signaled = false
	return nil
}

func (d *Device) CreateSemaphore() (metadata.SemaphoreHandle, error) {
	return metadata.SemaphoreHandle(d.create("semaphore")), nil
}

func (d *Device) DestroySemaphore(semaphore metadata.SemaphoreHandle) {
	d.destroy("semaphore", uint64(semaphore))
}

func (d *Device) CreateCommandPool() (metadata.CommandPoolHandle, error) {
	return metadata.CommandPoolHandle(d.create("commandpool")), nil
}

func (d *Device) DestroyCommandPool(pool metadata.CommandPoolHandle) {
	d.destroy("commandpool", uint64(pool))
}

func (d *Device) AllocateCommandBuffer(pool metadata.CommandPoolHandle) (renderer.CommandBuffer, error) {
	if _, ok := d.live[uint64(pool)]; !ok {
		return nil, core.Errorf(core.ErrSetup, "AllocateCommandBuffer", "unknown pool %d", pool)
	}
	return &CommandBuffer{dev: d}, nil
}

func (d *Device) CreateBuffer(size uint64, usage metadata.BufferUsage) (metadata.AllocatedBuffer, error) {
	if d.FailCreateBuffer != nil {
		return metadata.AllocatedBuffer{}, d.FailCreateBuffer
	}
	h := metadata.BufferHandle(d.create("buffer"))
	d.buffers[h] = &bufferState{data: make([]byte, size), usage: usage}
	return metadata.AllocatedBuffer{
		Buffer:     h,
		Allocation: metadata.AllocationHandle(h),
		Size:       size,
	}, nil
}

func (d *Device) DestroyBuffer(buffer metadata.AllocatedBuffer) {
	delete(d.buffers, buffer.Buffer)
	d.destroy("buffer", uint64(buffer.Buffer))
}

func (d *Device) MapMemory(buffer metadata.AllocatedBuffer) ([]byte, error) {
	if d.FailMapMemory != nil {
		return nil, d.FailMapMemory
	}
	b, ok := d.buffers[buffer.Buffer]
	if !ok {
		return nil, core.Errorf(core.ErrSetup, "MapMemory", "unknown buffer %d", buffer.Buffer)
	}
	if b.mapped {
		d.violate("buffer %d mapped twice", buffer.Buffer)
	}
	for fence, f := range d.fences {
		if f.pending && f.refs[buffer.Buffer] {
			d.violate("buffer %d mapped while fence %d is pending", buffer.Buffer, fence)
		}
	}
	b.mapped = true
	if b.usage&metadata.BufferUsageUniform != 0 {
		d.log("map:uniform")
	} else {
		d.log("map:vertex")
	}
	return b.data, nil
}

func (d *Device) UnmapMemory(buffer metadata.AllocatedBuffer) {
	if b, ok := d.buffers[buffer.Buffer]; ok {
		b.mapped = false
	}
	d.log("unmap")
}

func (d *Device) CreateDescriptorPool(maxSets, uniformBuffers uint32) (metadata.DescriptorPoolHandle, error) {
	return metadata.DescriptorPoolHandle(d.create("descriptorpool")), nil
}

func (d *Device) DestroyDescriptorPool(pool metadata.DescriptorPoolHandle) {
	d.destroy("descriptorpool", uint64(pool))
}

func (d *Device) CreateUniformSetLayout() (metadata.DescriptorSetLayoutHandle, error) {
	return metadata.DescriptorSetLayoutHandle(d.create("setlayout")), nil
}

func (d *Device) DestroyDescriptorSetLayout(layout metadata.DescriptorSetLayoutHandle) {
	d.destroy("setlayout", uint64(layout))
}

func (d *Device) AllocateDescriptorSet(pool metadata.DescriptorPoolHandle, layout metadata.DescriptorSetLayoutHandle) (metadata.DescriptorSetHandle, error) {
	if d.live[uint64(pool)] != "descriptorpool" || d.live[uint64(layout)] != "setlayout" {
		return 0, core.Errorf(core.ErrSetup, "AllocateDescriptorSet", "pool %d or layout %d not live", pool, layout)
	}
	d.next++
	return metadata.DescriptorSetHandle(d.next), nil
}

func (d *Device) WriteUniformDescriptor(set metadata.DescriptorSetHandle, buffer metadata.AllocatedBuffer) {
	d.sets[set] = buffer.Buffer
}

func (d *Device) AcquireNextImage(signal metadata.SemaphoreHandle, timeout time.Duration) (uint32, error) {
	d.log("acquire")
	if len(d.AcquireErrs) > 0 {
		err := d.AcquireErrs[0]
		d.AcquireErrs = d.AcquireErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	index := d.nextImage
	d.nextImage = (d.nextImage + 1) % d.imageCount
	return index, nil
}

func (d *Device) Submit(cmd renderer.CommandBuffer, wait, signal metadata.SemaphoreHandle, fence metadata.FenceHandle) error {
	d.log("submit")
	cb, ok := cmd.(*CommandBuffer)
	if !ok {
		return core.Errorf(core.ErrSubmission, "Submit", "foreign command buffer %T", cmd)
	}
	if cb.recording {
		d.violate("submitted a command buffer that is still recording")
	}
	f, ok := d.fences[fence]
	if !ok {
		return core.Errorf(core.ErrSubmission, "Submit", "unknown fence %d", fence)
	}
	if f.signaled || f.pending {
		d.violate("submitted with fence %d not reset", fence)
	}
	f.pending = true
	f.cmd = cb
	f.refs = make(map[metadata.BufferHandle]bool)
	for _, b := range cb.buffers {
		f.refs[b] = true
	}
	for _, s := range cb.sets {
		f.refs[d.sets[s]] = true
	}
	cb.pending = true

	if n := d.pendingCount(); n > d.MaxInFlight {
		d.MaxInFlight = n
	}
	if d.MaxInFlight > renderer.FramesInFlight {
		d.violate("%d submissions in flight", d.MaxInFlight)
	}
	return nil
}

func (d *Device) Present(imageIndex uint32, wait metadata.SemaphoreHandle) error {
	d.log("present")
	if len(d.PresentErrs) > 0 {
		err := d.PresentErrs[0]
		d.PresentErrs = d.PresentErrs[1:]
		return err
	}
	return nil
}

func (d *Device) RecreateSwapchain(width, height uint32) error {
	d.log("recreate")
	d.Recreated++
	d.width, d.height = width, height
	return nil
}

func (d *Device) SwapchainExtent() (uint32, uint32) {
	return d.width, d.height
}

// WaitIdle completes every pending submission.
func (d *Device) WaitIdle() error {
	d.log("waitidle")
	if d.HangFences && d.pendingCount() > 0 {
		return errors.New("device lost")
	}
	for _, f := range d.fences {
		if f.pending {
			f.pending = false
			f.signaled = true
			f.refs = nil
			if f.cmd != nil {
				f.cmd.pending = false
				f.cmd = nil
			}
		}
	}
	return nil
}

func (d *Device) CreateShaderModule(code []byte) (metadata.ShaderModuleHandle, error) {
	if len(code) == 0 {
		return 0, core.Errorf(core.ErrShaderLoad, "CreateShaderModule", "empty code")
	}
	return metadata.ShaderModuleHandle(d.create("shadermodule")), nil
}

func (d *Device) DestroyShaderModule(module metadata.ShaderModuleHandle) {
	d.destroy("shadermodule", uint64(module))
}

func (d *Device) BuildPipeline(config renderer.PipelineConfig) (metadata.PipelineHandle, metadata.PipelineLayoutHandle, error) {
	for _, m := range []metadata.ShaderModuleHandle{config.VertexShader, config.FragmentShader} {
		if d.live[uint64(m)] != "shadermodule" {
			return 0, 0, core.Errorf(core.ErrSetup, "BuildPipeline", "shader module %d not live", m)
		}
	}
	d.Pipelines = append(d.Pipelines, config)
	layout := metadata.PipelineLayoutHandle(d.create("pipelinelayout"))
	pipeline := metadata.PipelineHandle(d.create("pipeline"))
	return pipeline, layout, nil
}

func (d *Device) DestroyPipeline(pipeline metadata.PipelineHandle) {
	d.destroy("pipeline", uint64(pipeline))
}

func (d *Device) DestroyPipelineLayout(layout metadata.PipelineLayoutHandle) {
	d.destroy("pipelinelayout", uint64(layout))
}
