package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/vtabletop/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the GLFW window the renderer presents into.
type Platform struct {
	Window *glfw.Window

	events    *core.EventBus
	startTime float64
}

// New returns a platform that reports window input on events.
func New(events *core.EventBus) *Platform {
	return &Platform{
		Window: nil,
		events: events,
	}
}

func (p *Platform) Startup(applicationName string, x, y int32, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		err := core.NewError(core.ErrSetup, "glfw.Init", err)
		core.LogError(err.Error())
		return err
	}
	if !glfw.VulkanSupported() {
		err := core.Errorf(core.ErrSetup, "glfw.VulkanSupported", "no Vulkan loader found")
		core.LogError(err.Error())
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		err := core.NewError(core.ErrSetup, "glfw.CreateWindow", err)
		core.LogError(err.Error())
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.startTime = glfw.GetTime()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PollEvents processes pending window events without blocking.
func (p *Platform) PollEvents() {
	glfw.PollEvents()
}

func (p *Platform) ShouldClose() bool {
	return p.Window == nil || p.Window.ShouldClose()
}

// FramebufferSize is the drawable size in pixels; 0x0 while minimized.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	if p.Window == nil {
		return 0, 0
	}
	w, h := p.Window.GetFramebufferSize()
	if w < 0 || h < 0 {
		return 0, 0
	}
	return uint32(w), uint32(h)
}

// GetRequiredExtensionNames lists the instance extensions GLFW needs to
// create a surface on this platform.
func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// GetAbsoluteTime returns the seconds elapsed since Startup.
func (p *Platform) GetAbsoluteTime() float64 {
	return glfw.GetTime() - p.startTime
}

// RequestClose makes ShouldClose report true from the next check on.
func (p *Platform) RequestClose() {
	if p.Window != nil {
		p.Window.SetShouldClose(true)
	}
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	var code core.EventCode
	switch action {
	case glfw.Press:
		code = core.EventKeyPressed
	case glfw.Release:
		code = core.EventKeyReleased
	default:
		return
	}
	p.events.Fire(code, p, core.EventContext{Key: translateKey(key)})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	if width < 0 || height < 0 {
		return
	}
	p.events.Fire(core.EventResized, p, core.EventContext{Width: uint32(width), Height: uint32(height)})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EventApplicationQuit, p, core.EventContext{})
}

func translateKey(key glfw.Key) core.KeyCode {
	switch key {
	case glfw.KeyEnter:
		return core.KeyEnter
	case glfw.KeyEscape:
		return core.KeyEscape
	case glfw.KeySpace:
		return core.KeySpace
	case glfw.KeyQ:
		return core.KeyQ
	default:
		return core.KeyUnknown
	}
}
