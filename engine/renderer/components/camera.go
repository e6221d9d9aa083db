package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

/**
 * @brief A fixed perspective camera. The view is a plain translation by
 * Position; there is no rotation.
 */
type Camera struct {
	Position mgl32.Vec3
	/** @brief Vertical field of view in degrees. */
	FOV  float32
	Near float32
	Far  float32
}

func NewCamera(position mgl32.Vec3, fov, near, far float32) *Camera {
	return &Camera{
		Position: position,
		FOV:      fov,
		Near:     near,
		Far:      far,
	}
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z())
}

// Projection builds a perspective projection for Vulkan clip space, which
// has Y pointing down.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
	proj.Set(1, 1, -proj.At(1, 1))
	return proj
}

// Data computes the uniform block for a framebuffer of width x height.
func (c *Camera) Data(width, height uint32) metadata.CameraData {
	aspect := float32(1)
	if height != 0 {
		aspect = float32(width) / float32(height)
	}
	view := c.View()
	proj := c.Projection(aspect)
	return metadata.CameraData{
		View:           view,
		Projection:     proj,
		ViewProjection: proj.Mul4(view),
	}
}
