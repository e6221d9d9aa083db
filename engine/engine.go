package engine

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/platform"
	"github.com/spaghettifunk/vtabletop/engine/renderer"
	"github.com/spaghettifunk/vtabletop/engine/renderer/components"
	"github.com/spaghettifunk/vtabletop/engine/renderer/vulkan"
	"github.com/spaghettifunk/vtabletop/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

type Engine struct {
	sessionID     uuid.UUID
	currentStage  Stage
	gameInstance  *Game
	config        *core.Config
	events        *core.EventBus
	platform      *platform.Platform
	backend       *vulkan.Backend
	renderer      *renderer.Renderer
	systemManager *systems.SystemManager
}

func New(g *Game) (*Engine, error) {
	if g.Config == nil {
		g.Config = core.DefaultConfig()
	}
	if err := g.Config.Validate(); err != nil {
		err := core.NewError(core.ErrSetup, "engine.New", err)
		core.LogError(err.Error())
		return nil, err
	}
	if err := core.SetLogLevel(g.Config.Log.Level); err != nil {
		core.LogWarn("unknown log level '%s', keeping debug", g.Config.Log.Level)
	}

	events := core.NewEventBus()
	return &Engine{
		sessionID:    uuid.New(),
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.Config,
		events:       events,
		platform:     platform.New(events),
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Initialize opens the window, brings up the device and the renderer, and
// lets the game populate its scene.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.config
	core.LogInfo("starting %s, session %s", cfg.Window.Title, e.sessionID)

	if err := e.platform.Startup(cfg.Window.Title, cfg.Window.X, cfg.Window.Y, cfg.Window.Width, cfg.Window.Height); err != nil {
		return err
	}
	e.events.Register(core.EventKeyPressed, e.onKey)
	e.events.Register(core.EventApplicationQuit, e.onEvent)
	e.events.Register(core.EventResized, e.onEvent)

	e.backend = vulkan.New(e.platform, cfg)
	if err := e.backend.Initialize(); err != nil {
		e.backend.Shutdown()
		return err
	}

	camera := components.NewCamera(mgl32.Vec3(cfg.Camera.Position), cfg.Camera.FOV, cfg.Camera.Near, cfg.Camera.Far)
	e.renderer = renderer.New(e.backend, camera, cfg)
	// First in, last out: the device outlives everything created on it.
	e.renderer.DeletionQueue().Push(e.backend.Shutdown)

	if err := e.renderer.Initialize(e.platform); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(e.renderer, e.backend, e.backend, cfg)
	if err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run renders until the window closes or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.currentStage = EngineStageRunning
	core.LogInfo("running with %d instances", e.systemManager.Scene().Len())
	return e.renderer.Run(ctx, e.systemManager.Registry(), e.systemManager.Scene())
}

// Shutdown releases everything in reverse order of Initialize. It is safe to
// call after a partial Initialize.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogWarn("game shutdown: %s", err)
		}
	}
	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			core.LogWarn("system manager shutdown: %s", err)
		}
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			return err
		}
	}
	e.events.Shutdown()
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	core.LogInfo("session %s ended", e.sessionID)
	return nil
}

// Events exposes the bus so the game can listen for input.
func (e *Engine) Events() *core.EventBus {
	return e.events
}

func (e *Engine) onKey(code core.EventCode, sender interface{}, data core.EventContext) bool {
	switch data.Key {
	case core.KeyEscape, core.KeyQ:
		core.LogInfo("quit key pressed, closing window")
		e.platform.RequestClose()
		return true
	}
	return false
}

func (e *Engine) onEvent(code core.EventCode, sender interface{}, data core.EventContext) bool {
	switch code {
	case core.EventApplicationQuit:
		core.LogInfo("window close requested")
		return true
	case core.EventResized:
		// The swapchain is rebuilt when the next acquire or present reports it out of date.
		core.LogDebug("window resized to %dx%d", data.Width, data.Height)
		return true
	}
	return false
}
