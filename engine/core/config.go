package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration decodes TOML strings such as "1s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	X      int32  `toml:"x"`
	Y      int32  `toml:"y"`
}

type RendererConfig struct {
	FramesInFlight int        `toml:"frames_in_flight"`
	FenceTimeout   Duration   `toml:"fence_timeout"`
	ClearColor     [4]float32 `toml:"clear_color"`
	Validation     bool       `toml:"validation"`
	PresentMode    string     `toml:"present_mode"`
	// Radians added to every instance's Y rotation per frame.
	SpinRate float32 `toml:"spin_rate"`
}

type CameraConfig struct {
	Position [3]float32 `toml:"position"`
	FOV      float32    `toml:"fov"`
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
}

type SceneConfig struct {
	GridRadius int `toml:"grid_radius"`
}

type ShadersConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Camera   CameraConfig   `toml:"camera"`
	Scene    SceneConfig    `toml:"scene"`
	Shaders  ShadersConfig  `toml:"shaders"`
	Log      LogConfig      `toml:"log"`
}

const (
	PresentModeFIFO        = "fifo"
	PresentModeFIFORelaxed = "fifo_relaxed"
	PresentModeMailbox     = "mailbox"
)

// DefaultConfig mirrors the values the renderer was tuned with.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "VTableTop",
			Width:  1700,
			Height: 900,
			X:      100,
			Y:      100,
		},
		Renderer: RendererConfig{
			FramesInFlight: 2,
			FenceTimeout:   Duration{time.Second},
			ClearColor:     [4]float32{0.1, 0.1, 0.1, 1.0},
			Validation:     true,
			PresentMode:    PresentModeFIFORelaxed,
			SpinRate:       0.01,
		},
		Camera: CameraConfig{
			Position: [3]float32{0, -6, -10},
			FOV:      70,
			Near:     0.1,
			Far:      200,
		},
		Scene: SceneConfig{
			GridRadius: 10,
		},
		Shaders: ShadersConfig{
			Dir:   "assets/shaders",
			Watch: false,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// LoadConfig reads the TOML file at path on top of the defaults. A missing
// file yields the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogWarn("config file %s not found, using defaults", path)
			return cfg, nil
		}
		return nil, NewError(ErrSetup, "LoadConfig", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, NewError(ErrSetup, "LoadConfig", fmt.Errorf("%s: %w", path, err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width == 0 || c.Window.Height == 0 {
		errs = append(errs, fmt.Errorf("window size must be non-zero, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Renderer.FramesInFlight != 2 {
		errs = append(errs, fmt.Errorf("renderer.frames_in_flight must be 2, got %d", c.Renderer.FramesInFlight))
	}
	if c.Renderer.FenceTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("renderer.fence_timeout must be positive, got %s", c.Renderer.FenceTimeout.Duration))
	}
	switch c.Renderer.PresentMode {
	case PresentModeFIFO, PresentModeFIFORelaxed, PresentModeMailbox:
	default:
		errs = append(errs, fmt.Errorf("renderer.present_mode %q is not one of fifo, fifo_relaxed, mailbox", c.Renderer.PresentMode))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera.fov must be in (0, 180), got %g", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera planes must satisfy 0 < near < far, got near=%g far=%g", c.Camera.Near, c.Camera.Far))
	}
	if c.Scene.GridRadius < 0 {
		errs = append(errs, fmt.Errorf("scene.grid_radius must not be negative, got %d", c.Scene.GridRadius))
	}
	if len(errs) > 0 {
		return NewError(ErrSetup, "Config.Validate", errors.Join(errs...))
	}
	return nil
}
