package renderer

import (
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// FramesInFlight is the number of frames the CPU may record ahead of the GPU.
const FramesInFlight = 2

// SlotState tracks where a frame slot is in its reuse cycle.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotRecording
	SlotSubmitted
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	}
	return "unknown"
}

// FrameSlot owns everything one frame in flight writes to. Nothing in a slot
// is touched by the CPU until RenderFence has signaled for the slot's
// previous submission.
type FrameSlot struct {
	CommandPool metadata.CommandPoolHandle
	Commands    CommandBuffer

	RenderFence    metadata.FenceHandle
	ImageAvailable metadata.SemaphoreHandle
	RenderFinished metadata.SemaphoreHandle

	CameraBuffer     metadata.AllocatedBuffer
	GlobalDescriptor metadata.DescriptorSetHandle

	State SlotState
}
