package systems

import (
	"github.com/spaghettifunk/vtabletop/engine/assets"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
)

type SystemManager struct {
	registry       *Registry
	scene          *Scene
	materialSystem *MaterialSystem
	shaderLibrary  *assets.ShaderLibrary
}

// NewSystemManager wires the resource systems to an initialized renderer.
// Resources they create are released through the renderer's deletion queue.
func NewSystemManager(r *renderer.Renderer, device renderer.Device, factory renderer.PipelineFactory, cfg *core.Config) (*SystemManager, error) {
	shaders := assets.NewShaderLibrary(cfg.Shaders.Dir)
	if cfg.Shaders.Watch {
		changes, err := shaders.Watch()
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		go func() {
			for name := range changes {
				core.LogDebug("shader blob '%s' invalidated", name)
			}
		}()
	}

	registry := NewRegistry(device, r.DeletionQueue())
	return &SystemManager{
		registry:       registry,
		scene:          NewScene(),
		materialSystem: NewMaterialSystem(factory, shaders, registry, r.DeletionQueue(), r.GlobalSetLayout()),
		shaderLibrary:  shaders,
	}, nil
}

func (sm *SystemManager) Registry() *Registry {
	return sm.registry
}

func (sm *SystemManager) Scene() *Scene {
	return sm.scene
}

func (sm *SystemManager) Materials() *MaterialSystem {
	return sm.materialSystem
}

func (sm *SystemManager) Shaders() *assets.ShaderLibrary {
	return sm.shaderLibrary
}

// Shutdown stops background work. GPU resources are owned by the renderer's
// deletion queue and are not touched here.
func (sm *SystemManager) Shutdown() error {
	return sm.shaderLibrary.Close()
}
