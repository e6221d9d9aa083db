package systems

import (
	"fmt"

	"github.com/spaghettifunk/vtabletop/engine/assets"
	"github.com/spaghettifunk/vtabletop/engine/containers"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

// MaterialSystem builds pipelines from shader blobs and registers them as
// materials.
type MaterialSystem struct {
	factory       renderer.PipelineFactory
	shaders       *assets.ShaderLibrary
	registry      *Registry
	deletionQueue *containers.DeletionQueue
	globalLayout  metadata.DescriptorSetLayoutHandle
}

func NewMaterialSystem(factory renderer.PipelineFactory, shaders *assets.ShaderLibrary, registry *Registry, deletionQueue *containers.DeletionQueue, globalLayout metadata.DescriptorSetLayoutHandle) *MaterialSystem {
	return &MaterialSystem{
		factory:       factory,
		shaders:       shaders,
		registry:      registry,
		deletionQueue: deletionQueue,
		globalLayout:  globalLayout,
	}
}

// Build loads the vertex and fragment blobs, builds a pipeline reading
// metadata.Vertex with the per-frame camera set and mesh push constants, and
// registers it under name.
//
// A blob that cannot be loaded fails the build; no pipeline is created from
// a missing shader.
func (ms *MaterialSystem) Build(name, vertexShader, fragmentShader string) (*metadata.Material, error) {
	op := fmt.Sprintf("MaterialSystem.Build(%s)", name)

	vertModule, err := ms.loadModule(vertexShader)
	if err != nil {
		err = core.NewError(core.ErrSetup, op, err)
		core.LogError(err.Error())
		return nil, err
	}
	defer ms.factory.DestroyShaderModule(vertModule)

	fragModule, err := ms.loadModule(fragmentShader)
	if err != nil {
		err = core.NewError(core.ErrSetup, op, err)
		core.LogError(err.Error())
		return nil, err
	}
	defer ms.factory.DestroyShaderModule(fragModule)

	pipeline, layout, err := ms.factory.BuildPipeline(renderer.PipelineConfig{
		Name:             name,
		VertexShader:     vertModule,
		FragmentShader:   fragModule,
		VertexInput:      metadata.VertexDescription(),
		SetLayouts:       []metadata.DescriptorSetLayoutHandle{ms.globalLayout},
		PushConstantSize: metadata.MeshPushConstantsSize,
		DepthTest:        true,
	})
	if err != nil {
		err = core.NewError(core.ErrSetup, op, err)
		core.LogError(err.Error())
		return nil, err
	}
	ms.deletionQueue.Push(func() { ms.factory.DestroyPipelineLayout(layout) })
	ms.deletionQueue.Push(func() { ms.factory.DestroyPipeline(pipeline) })

	core.LogDebug("built material '%s' from %s + %s", name, vertexShader, fragmentShader)
	return ms.registry.CreateMaterial(name, pipeline, layout), nil
}

func (ms *MaterialSystem) loadModule(shader string) (metadata.ShaderModuleHandle, error) {
	code, err := ms.shaders.Load(shader)
	if err != nil {
		return 0, err
	}
	module, err := ms.factory.CreateShaderModule(code)
	if err != nil {
		return 0, core.NewError(core.ErrShaderLoad, "CreateShaderModule("+shader+")", err)
	}
	return module, nil
}
