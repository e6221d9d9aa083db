package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

/** @brief A single vertex as laid out in a vertex buffer. */
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
}

// VertexSize is the stride of Vertex in a vertex buffer.
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

type VertexFormat uint32

const (
	VertexFormatR32G32B32Sfloat VertexFormat = iota + 1
	VertexFormatR32G32B32A32Sfloat
)

type VertexBinding struct {
	Binding uint32
	Stride  uint32
	// PerInstance selects instance-rate stepping instead of per-vertex.
	PerInstance bool
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   VertexFormat
	Offset   uint32
}

/**
 * @brief Describes how the vertex shader reads vertex buffers.
 * Handed to the pipeline builder.
 */
type VertexInputDescription struct {
	Bindings   []VertexBinding
	Attributes []VertexAttribute
}

// VertexDescription describes Vertex: one per-vertex binding carrying
// position, normal and color at locations 0, 1 and 2.
func VertexDescription() VertexInputDescription {
	var v Vertex
	return VertexInputDescription{
		Bindings: []VertexBinding{
			{Binding: 0, Stride: VertexSize},
		},
		Attributes: []VertexAttribute{
			{Location: 0, Binding: 0, Format: VertexFormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
			{Location: 1, Binding: 0, Format: VertexFormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(v.Normal))},
			{Location: 2, Binding: 0, Format: VertexFormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(v.Color))},
		},
	}
}

// MeshID is the registry index of a mesh.
type MeshID uint32

/**
 * @brief Geometry uploaded to the GPU. Immutable once the vertex buffer
 * has been filled.
 */
type Mesh struct {
	Name         string
	Vertices     []Vertex
	VertexBuffer AllocatedBuffer
}

func (m *Mesh) VertexCount() uint32 {
	return uint32(len(m.Vertices))
}
