package systems

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// Scene is the ordered list of instances drawn every frame.
type Scene struct {
	instances []metadata.RenderableInstance
}

var _ renderer.Scene = (*Scene)(nil)

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) Add(instance metadata.RenderableInstance) {
	s.instances = append(s.instances, instance)
}

// Instances returns the instances in insertion order. The slice is owned by
// the scene.
func (s *Scene) Instances() []metadata.RenderableInstance {
	return s.instances
}

func (s *Scene) Len() int {
	return len(s.instances)
}

// AddByName adds an instance of the named mesh and material.
func (s *Scene) AddByName(registry *Registry, mesh, material string, transform mgl32.Mat4) error {
	meshID, err := registry.LookupMesh(mesh)
	if err != nil {
		return err
	}
	materialID, err := registry.LookupMaterial(material)
	if err != nil {
		return err
	}
	s.Add(metadata.RenderableInstance{
		Mesh:      meshID,
		Material:  materialID,
		Transform: transform,
	})
	return nil
}

// AddGrid lays out (2*radius+1)^2 instances on the XZ plane at integer
// offsets, each scaled down by scale.
func (s *Scene) AddGrid(registry *Registry, mesh, material string, radius int, scale float32) error {
	if radius < 0 {
		return core.Errorf(core.ErrSetup, "AddGrid", "negative radius %d", radius)
	}
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			translation := mgl32.Translate3D(float32(x), 0, float32(z))
			scaling := mgl32.Scale3D(scale, scale, scale)
			if err := s.AddByName(registry, mesh, material, translation.Mul4(scaling)); err != nil {
				return fmt.Errorf("grid cell (%d,%d): %w", x, z, err)
			}
		}
	}
	return nil
}
