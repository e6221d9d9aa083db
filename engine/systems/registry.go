package systems

import (
	"fmt"

	"github.com/spaghettifunk/vtabletop/engine/containers"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// Registry owns every mesh and material by name. Entries are never removed
// before shutdown, so pointers and ids handed out stay valid for the whole
// run.
type Registry struct {
	device        renderer.Device
	deletionQueue *containers.DeletionQueue

	meshes        []*metadata.Mesh
	meshIndex     map[string]metadata.MeshID
	materials     []*metadata.Material
	materialIndex map[string]metadata.MaterialID
}

var _ renderer.Resources = (*Registry)(nil)

func NewRegistry(device renderer.Device, deletionQueue *containers.DeletionQueue) *Registry {
	return &Registry{
		device:        device,
		deletionQueue: deletionQueue,
		meshIndex:     make(map[string]metadata.MeshID),
		materialIndex: make(map[string]metadata.MaterialID),
	}
}

// UploadMesh copies vertices into a new host visible vertex buffer and
// registers the mesh under name. The buffer is released at shutdown.
func (r *Registry) UploadMesh(name string, vertices []metadata.Vertex) (*metadata.Mesh, error) {
	op := fmt.Sprintf("UploadMesh(%s)", name)
	if len(vertices) == 0 {
		err := core.Errorf(core.ErrSetup, op, "no vertices")
		core.LogError(err.Error())
		return nil, err
	}
	if _, ok := r.meshIndex[name]; ok {
		err := core.Errorf(core.ErrSetup, op, "mesh already registered")
		core.LogError(err.Error())
		return nil, err
	}

	size := uint64(len(vertices)) * uint64(metadata.VertexSize)
	buffer, err := r.device.CreateBuffer(size, metadata.BufferUsageVertex)
	if err != nil {
		err = core.NewError(core.ErrSetup, op, err)
		core.LogError(err.Error())
		return nil, err
	}
	r.deletionQueue.Push(func() { r.device.DestroyBuffer(buffer) })

	if err := r.copyToBuffer(buffer, metadata.VertexBytes(vertices)); err != nil {
		err = core.NewError(core.ErrSetup, op, err)
		core.LogError(err.Error())
		return nil, err
	}

	mesh := &metadata.Mesh{
		Name:         name,
		Vertices:     append([]metadata.Vertex(nil), vertices...),
		VertexBuffer: buffer,
	}
	r.meshIndex[name] = metadata.MeshID(len(r.meshes))
	r.meshes = append(r.meshes, mesh)

	core.LogDebug("uploaded mesh '%s' (%d vertices, %d bytes)", name, len(vertices), size)
	return mesh, nil
}

func (r *Registry) copyToBuffer(buffer metadata.AllocatedBuffer, data []byte) error {
	mapped, err := r.device.MapMemory(buffer)
	if err != nil {
		return err
	}
	defer r.device.UnmapMemory(buffer)

	copy(mapped, data)
	return nil
}

// CreateMaterial registers a pipeline and its layout under name. An existing
// entry with the same name is replaced in place, so earlier pointers observe
// the new pipeline.
func (r *Registry) CreateMaterial(name string, pipeline metadata.PipelineHandle, layout metadata.PipelineLayoutHandle) *metadata.Material {
	if id, ok := r.materialIndex[name]; ok {
		material := r.materials[id]
		material.Pipeline = pipeline
		material.PipelineLayout = layout
		core.LogWarn("material '%s' redefined", name)
		return material
	}

	material := &metadata.Material{
		Name:           name,
		Pipeline:       pipeline,
		PipelineLayout: layout,
	}
	r.materialIndex[name] = metadata.MaterialID(len(r.materials))
	r.materials = append(r.materials, material)
	return material
}

func (r *Registry) GetMesh(name string) (*metadata.Mesh, bool) {
	id, ok := r.meshIndex[name]
	if !ok {
		return nil, false
	}
	return r.meshes[id], true
}

func (r *Registry) GetMaterial(name string) (*metadata.Material, bool) {
	id, ok := r.materialIndex[name]
	if !ok {
		return nil, false
	}
	return r.materials[id], true
}

func (r *Registry) MeshID(name string) (metadata.MeshID, bool) {
	id, ok := r.meshIndex[name]
	return id, ok
}

func (r *Registry) MaterialID(name string) (metadata.MaterialID, bool) {
	id, ok := r.materialIndex[name]
	return id, ok
}

// Mesh resolves id, returning nil for ids never handed out.
func (r *Registry) Mesh(id metadata.MeshID) *metadata.Mesh {
	if int(id) >= len(r.meshes) {
		return nil
	}
	return r.meshes[id]
}

// Material resolves id, returning nil for ids never handed out.
func (r *Registry) Material(id metadata.MaterialID) *metadata.Material {
	if int(id) >= len(r.materials) {
		return nil
	}
	return r.materials[id]
}

// LookupMesh is GetMesh for callers that treat absence as an error.
func (r *Registry) LookupMesh(name string) (metadata.MeshID, error) {
	id, ok := r.meshIndex[name]
	if !ok {
		return 0, core.Errorf(core.ErrLookupMiss, "LookupMesh", "no mesh named '%s'", name)
	}
	return id, nil
}

// LookupMaterial is GetMaterial for callers that treat absence as an error.
func (r *Registry) LookupMaterial(name string) (metadata.MaterialID, error) {
	id, ok := r.materialIndex[name]
	if !ok {
		return 0, core.Errorf(core.ErrLookupMiss, "LookupMaterial", "no material named '%s'", name)
	}
	return id, nil
}

func (r *Registry) MeshCount() int {
	return len(r.meshes)
}

func (r *Registry) MaterialCount() int {
	return len(r.materials)
}
