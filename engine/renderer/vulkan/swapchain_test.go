package vulkan

import (
	"io"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/stretchr/testify/assert"
)

func TestChoosePresentMode(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox, vk.PresentModeFifo, vk.PresentModeFifoRelaxed}
	fifoOnly := []vk.PresentMode{vk.PresentModeFifo}

	assert.Equal(t, vk.PresentModeFifoRelaxed, choosePresentMode(core.PresentModeFIFORelaxed, all))
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode(core.PresentModeMailbox, all))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(core.PresentModeFIFO, all))

	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(core.PresentModeFIFORelaxed, fifoOnly))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(core.PresentModeMailbox, fifoOnly))
}

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate, false))
	assert.Contains(t, VulkanResultString(vk.Timeout, true), "VK_TIMEOUT ")
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorDeviceLost))
}

func TestResultErrorKind(t *testing.T) {
	core.SetLogOutput(io.Discard)
	err := resultError(core.ErrSubmission, "vulkan.QueueSubmit", vk.ErrorDeviceLost)
	assert.ErrorIs(t, err, core.ErrSubmission)
	assert.Contains(t, err.Error(), "VK_ERROR_DEVICE_LOST")
}
