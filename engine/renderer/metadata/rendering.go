package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

/** @brief One draw of a mesh with a material at a transform. */
type RenderableInstance struct {
	Mesh      MeshID
	Material  MaterialID
	Transform mgl32.Mat4
}

/**
 * @brief Per-frame camera uniform, std140 compatible. Bound at set 0,
 * binding 0 of the vertex stage.
 */
type CameraData struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
}

const CameraDataSize = uint64(unsafe.Sizeof(CameraData{}))

/** @brief Per-draw push constant block for the vertex stage. */
type MeshPushConstants struct {
	Data         mgl32.Vec4
	RenderMatrix mgl32.Mat4
}

const MeshPushConstantsSize = uint32(unsafe.Sizeof(MeshPushConstants{}))

// Bytes views the push constant block as raw memory.
func (p *MeshPushConstants) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), MeshPushConstantsSize)
}

// Bytes views the camera block as raw memory.
func (c *CameraData) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(c)), CameraDataSize)
}

// VertexBytes views a vertex slice as raw memory for upload.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(VertexSize))
}
