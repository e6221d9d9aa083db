package testbed

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/vtabletop/engine"
	"github.com/spaghettifunk/vtabletop/engine/core"
	"github.com/spaghettifunk/vtabletop/engine/renderer/metadata"
)

const (
	triangleMesh    = "triangle"
	defaultMaterial = "defaultmesh"
	gridScale       = 0.2
)

type TestGame struct {
	*engine.Game
}

type testGameState struct {
	instances int
}

func NewTestGame(cfg *core.Config) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &testGameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnShutdown = tg.Shutdown
	return tg
}

// TriangleVertices is a single green triangle in the XY plane.
func TriangleVertices() []metadata.Vertex {
	green := mgl32.Vec3{0, 1, 0}
	normal := mgl32.Vec3{0, 0, 1}
	return []metadata.Vertex{
		{Position: mgl32.Vec3{1, 1, 0}, Normal: normal, Color: green},
		{Position: mgl32.Vec3{-1, 1, 0}, Normal: normal, Color: green},
		{Position: mgl32.Vec3{0, -1, 0}, Normal: normal, Color: green},
	}
}

func (g *TestGame) Initialize() error {
	sm := g.SystemManager

	if _, err := sm.Registry().UploadMesh(triangleMesh, TriangleVertices()); err != nil {
		return err
	}
	if _, err := sm.Materials().Build(defaultMaterial, "mesh.vert", "mesh.frag"); err != nil {
		return err
	}
	if err := sm.Scene().AddGrid(sm.Registry(), triangleMesh, defaultMaterial, g.Config.Scene.GridRadius, gridScale); err != nil {
		return err
	}

	state := g.State.(*testGameState)
	state.instances = sm.Scene().Len()
	core.LogInfo("testbed scene ready: %d instances", state.instances)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("testbed shutting down")
	return nil
}
