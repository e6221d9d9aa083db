package engine

import (
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/systems"
)

// Game is the application driven by the engine. The engine sets
// SystemManager before calling FnInitialize.
type Game struct {
	Config        *core.Config
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnShutdown    Shutdown
}

// Initialize uploads the game's meshes, builds its materials and fills the scene.
type Initialize func() error
type Shutdown func() error
