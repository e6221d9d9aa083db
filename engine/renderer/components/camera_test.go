package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraProjectionFlipsY(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, -6, -10}, 70, 0.1, 200)

	gl := mgl32.Perspective(mgl32.DegToRad(70), 1700.0/900.0, 0.1, 200)
	proj := cam.Projection(1700.0 / 900.0)

	assert.InDelta(t, -gl.At(1, 1), proj.At(1, 1), 1e-6)
	assert.InDelta(t, gl.At(0, 0), proj.At(0, 0), 1e-6)
	assert.InDelta(t, gl.At(2, 2), proj.At(2, 2), 1e-6)
}

func TestCameraDataComposesViewProjection(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, -6, -10}, 70, 0.1, 200)
	data := cam.Data(1700, 900)

	assert.Equal(t, mgl32.Translate3D(0, -6, -10), data.View)
	assert.True(t, data.Projection.Mul4(data.View).ApproxEqual(data.ViewProjection))

	// a point at the camera-space origin sits on the view axis
	p := data.ViewProjection.Mul4x1(mgl32.Vec4{0, 6, 10, 1})
	assert.InDelta(t, 0, p.X(), 1e-6)
	assert.InDelta(t, 0, p.Y(), 1e-6)
}

func TestCameraDataZeroHeight(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{}, 70, 0.1, 200)
	assert.NotPanics(t, func() { cam.Data(0, 0) })
}
