package metadata

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, uint32(36), VertexSize)
	assert.Equal(t, uint64(192), CameraDataSize)
	assert.Equal(t, uint32(80), MeshPushConstantsSize)
}

func TestVertexDescription(t *testing.T) {
	desc := VertexDescription()

	assert.Len(t, desc.Bindings, 1)
	assert.Equal(t, VertexSize, desc.Bindings[0].Stride)
	assert.Len(t, desc.Attributes, 3)
	for i, attr := range desc.Attributes {
		assert.Equal(t, uint32(i), attr.Location)
		assert.Equal(t, uint32(i*12), attr.Offset)
	}
}

func TestVertexBytes(t *testing.T) {
	assert.Nil(t, VertexBytes(nil))

	vertices := []Vertex{{Position: mgl32.Vec3{1, 2, 3}}, {Color: mgl32.Vec3{0, 1, 0}}}
	raw := VertexBytes(vertices)
	assert.Len(t, raw, 2*int(VertexSize))
}

func TestPushConstantBytesAliasStruct(t *testing.T) {
	pc := MeshPushConstants{Data: mgl32.Vec4{0, 0, 0, 1}}
	raw := pc.Bytes()
	// float32(1.0) little endian at offset 12
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, raw[12:16])
}
