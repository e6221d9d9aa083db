package renderertest

import (
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// Command is one recorded command.
type Command struct {
	Op          string
	Pipeline    metadata.PipelineHandle
	Layout      metadata.PipelineLayoutHandle
	Set         metadata.DescriptorSetHandle
	Buffer      metadata.BufferHandle
	VertexCount uint32
	ImageIndex  uint32
	ClearColor  [4]float32
	Constants   metadata.MeshPushConstants
}

// CommandBuffer records commands for inspection after submission.
type CommandBuffer struct {
	dev       *Device
	recording bool
	pending   bool
	inPass    bool

	buffers []metadata.BufferHandle
	sets    []metadata.DescriptorSetHandle

	// Commands holds what was recorded since the last Reset.
	Commands []Command
}

var _ renderer.CommandBuffer = (*CommandBuffer)(nil)

func (c *CommandBuffer) record(cmd Command) {
	if !c.recording {
		c.dev.violate("%s recorded outside Begin/End", cmd.Op)
	}
	c.Commands = append(c.Commands, cmd)
	c.dev.log(cmd.Op)
}

func (c *CommandBuffer) Reset() error {
	if c.pending {
		c.dev.violate("command buffer reset while its submission is pending")
	}
	c.Commands = nil
	c.buffers = nil
	c.sets = nil
	c.recording = false
	return nil
}

func (c *CommandBuffer) Begin() error {
	if c.pending {
		c.dev.violate("command buffer begun while its submission is pending")
	}
	c.recording = true
	return nil
}

func (c *CommandBuffer) End() error {
	if c.inPass {
		c.dev.violate("command buffer ended inside a render pass")
	}
	c.recording = false
	return nil
}

func (c *CommandBuffer) BeginRenderPass(imageIndex uint32, clearColor [4]float32, depth float32, stencil uint32) {
	c.inPass = true
	c.record(Command{Op: "beginpass", ImageIndex: imageIndex, ClearColor: clearColor})
}

func (c *CommandBuffer) EndRenderPass() {
	c.inPass = false
	c.record(Command{Op: "endpass"})
}

func (c *CommandBuffer) SetViewport(width, height uint32) {
	c.record(Command{Op: "viewport"})
}

func (c *CommandBuffer) BindPipeline(pipeline metadata.PipelineHandle) {
	c.record(Command{Op: "bind:pipeline", Pipeline: pipeline})
}

func (c *CommandBuffer) BindDescriptorSet(layout metadata.PipelineLayoutHandle, set metadata.DescriptorSetHandle) {
	c.sets = append(c.sets, set)
	c.record(Command{Op: "bind:descriptor", Layout: layout, Set: set})
}

func (c *CommandBuffer) PushConstants(layout metadata.PipelineLayoutHandle, constants *metadata.MeshPushConstants) {
	c.record(Command{Op: "push", Layout: layout, Constants: *constants})
}

func (c *CommandBuffer) BindVertexBuffer(buffer metadata.AllocatedBuffer) {
	c.buffers = append(c.buffers, buffer.Buffer)
	c.record(Command{Op: "bind:vertex", Buffer: buffer.Buffer})
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !c.inPass {
		c.dev.violate("draw outside a render pass")
	}
	c.record(Command{Op: "draw", VertexCount: vertexCount})
}

// Count returns how many recorded commands have op.
func (c *CommandBuffer) Count(op string) int {
	n := 0
	for _, cmd := range c.Commands {
		if cmd.Op == op {
			n++
		}
	}
	return n
}
