package donuts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gekko3d/donuts/render/core"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type WindowConfig struct {
	Width         int     `yaml:"width" toml:"width"`
	Height        int     `yaml:"height" toml:"height"`
	Title         string  `yaml:"title" toml:"title"`
	MaxPixelRatio float32 `yaml:"max_pixel_ratio" toml:"max_pixel_ratio"`
}

type AssetsConfig struct {
	TextureDir string   `yaml:"texture_dir" toml:"texture_dir"`
	MatcapKeys []string `yaml:"matcap_keys" toml:"matcap_keys"`
	// FontPath may be empty, in which case the bundled Go Regular font is used.
	FontPath string `yaml:"font_path" toml:"font_path"`
}

type TextConfig struct {
	Content        string  `yaml:"content" toml:"content"`
	Size           float32 `yaml:"size" toml:"size"`
	Depth          float32 `yaml:"depth" toml:"depth"`
	CurveSegments  int     `yaml:"curve_segments" toml:"curve_segments"`
	BevelEnabled   bool    `yaml:"bevel_enabled" toml:"bevel_enabled"`
	BevelThickness float32 `yaml:"bevel_thickness" toml:"bevel_thickness"`
	BevelSize      float32 `yaml:"bevel_size" toml:"bevel_size"`
	BevelOffset    float32 `yaml:"bevel_offset" toml:"bevel_offset"`
	BevelSegments  int     `yaml:"bevel_segments" toml:"bevel_segments"`
}

type TorusConfig struct {
	Radius          float32 `yaml:"radius" toml:"radius"`
	Tube            float32 `yaml:"tube" toml:"tube"`
	RadialSegments  int     `yaml:"radial_segments" toml:"radial_segments"`
	TubularSegments int     `yaml:"tubular_segments" toml:"tubular_segments"`
}

type InstancesConfig struct {
	Initial int `yaml:"initial" toml:"initial"`
	Min     int `yaml:"min" toml:"min"`
	Max     int `yaml:"max" toml:"max"`
	Step    int `yaml:"step" toml:"step"`
	// Spread is the edge length of the cube instances are scattered in.
	Spread float32 `yaml:"spread" toml:"spread"`
	// Seed makes placement reproducible; 0 picks a random seed.
	Seed uint64 `yaml:"seed" toml:"seed"`
}

type CameraConfig struct {
	Fov      float32    `yaml:"fov" toml:"fov"`
	Near     float32    `yaml:"near" toml:"near"`
	Far      float32    `yaml:"far" toml:"far"`
	Position [3]float32 `yaml:"position" toml:"position"`
	Damping  float32    `yaml:"damping" toml:"damping"`
}

type OverlayConfig struct {
	Enabled  bool    `yaml:"enabled" toml:"enabled"`
	FontSize float64 `yaml:"font_size" toml:"font_size"`
}

type Config struct {
	Window    WindowConfig    `yaml:"window" toml:"window"`
	Assets    AssetsConfig    `yaml:"assets" toml:"assets"`
	Text      TextConfig      `yaml:"text" toml:"text"`
	Torus     TorusConfig     `yaml:"torus" toml:"torus"`
	Instances InstancesConfig `yaml:"instances" toml:"instances"`
	Camera    CameraConfig    `yaml:"camera" toml:"camera"`
	Overlay   OverlayConfig   `yaml:"overlay" toml:"overlay"`
	Debug     bool            `yaml:"debug" toml:"debug"`
}

func DefaultConfig() Config {
	text := core.DefaultTextOptions()
	return Config{
		Window: WindowConfig{
			Width:         1280,
			Height:        720,
			Title:         "Donuts",
			MaxPixelRatio: 2,
		},
		Assets: AssetsConfig{
			TextureDir: "textures/matcaps",
			MatcapKeys: []string{"1", "2", "3", "4", "5"},
		},
		Text: TextConfig{
			Content:        "Hello WebGPU",
			Size:           text.Size,
			Depth:          text.Depth,
			CurveSegments:  text.CurveSegments,
			BevelEnabled:   text.BevelEnabled,
			BevelThickness: text.BevelThickness,
			BevelSize:      text.BevelSize,
			BevelOffset:    text.BevelOffset,
			BevelSegments:  text.BevelSegments,
		},
		Torus: TorusConfig{
			Radius:          0.3,
			Tube:            0.2,
			RadialSegments:  20,
			TubularSegments: 45,
		},
		Instances: InstancesConfig{
			Initial: 3000,
			Min:     100,
			Max:     10000,
			Step:    50,
			Spread:  50,
		},
		Camera: CameraConfig{
			Fov:      75,
			Near:     0.1,
			Far:      100,
			Position: [3]float32{1, 1, 2},
			Damping:  0.05,
		},
		Overlay: OverlayConfig{
			Enabled:  true,
			FontSize: 18,
		},
	}
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over the
// defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w: %w", path, ErrInvalidConfig, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w: %w", path, ErrInvalidConfig, err)
		}
	default:
		return cfg, fmt.Errorf("config %s: %w: unsupported extension %q", path, ErrInvalidConfig, ext)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

const maxOverlayFontSize = 128

func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	check(c.Window.MaxPixelRatio >= 1, "max pixel ratio %g must be at least 1", c.Window.MaxPixelRatio)

	check(len(c.Assets.MatcapKeys) > 0, "at least one matcap key is required")
	sorted := slices.Clone(c.Assets.MatcapKeys)
	slices.Sort(sorted)
	check(len(slices.Compact(sorted)) == len(c.Assets.MatcapKeys), "matcap keys must be unique")

	check(c.Text.Size > 0, "text size %g must be positive", c.Text.Size)
	check(c.Text.Depth >= 0, "text depth %g must not be negative", c.Text.Depth)
	check(c.Text.CurveSegments >= 1, "text curve segments %d must be at least 1", c.Text.CurveSegments)
	check(!c.Text.BevelEnabled || c.Text.BevelSegments >= 1, "bevel segments %d must be at least 1", c.Text.BevelSegments)

	check(c.Torus.Radius > 0 && c.Torus.Tube > 0, "torus radius and tube must be positive")
	check(c.Torus.RadialSegments >= 3 && c.Torus.TubularSegments >= 3, "torus needs at least 3 segments each way")

	in := c.Instances
	check(in.Min >= 0 && in.Min <= in.Max, "instance range [%d, %d] is invalid", in.Min, in.Max)
	check(in.Step > 0, "instance step %d must be positive", in.Step)
	check(in.Initial >= in.Min && in.Initial <= in.Max, "initial instances %d outside [%d, %d]", in.Initial, in.Min, in.Max)
	check(in.Step <= 0 || (in.Initial-in.Min)%in.Step == 0, "initial instances %d must be %d plus a multiple of %d", in.Initial, in.Min, in.Step)
	check(in.Spread >= 0, "instance spread %g must not be negative", in.Spread)

	check(c.Camera.Fov > 0 && c.Camera.Fov < 180, "camera fov %g must be in (0, 180)", c.Camera.Fov)
	check(c.Camera.Near > 0 && c.Camera.Near < c.Camera.Far, "camera clip range [%g, %g] is invalid", c.Camera.Near, c.Camera.Far)
	check(c.Camera.Damping > 0 && c.Camera.Damping <= 1, "camera damping %g must be in (0, 1]", c.Camera.Damping)

	check(!c.Overlay.Enabled || (c.Overlay.FontSize > 0 && c.Overlay.FontSize <= maxOverlayFontSize),
		"overlay font size %g must be in (0, %d]", c.Overlay.FontSize, maxOverlayFontSize)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// TextOptions converts the text section for the geometry builder.
func (c Config) TextOptions() core.TextOptions {
	return core.TextOptions{
		Size:           c.Text.Size,
		Depth:          c.Text.Depth,
		CurveSegments:  c.Text.CurveSegments,
		BevelEnabled:   c.Text.BevelEnabled,
		BevelThickness: c.Text.BevelThickness,
		BevelSize:      c.Text.BevelSize,
		BevelOffset:    c.Text.BevelOffset,
		BevelSegments:  c.Text.BevelSegments,
	}
}

func (c Config) TorusOptions() core.TorusOptions {
	return core.TorusOptions{
		Radius:          c.Torus.Radius,
		Tube:            c.Torus.Tube,
		RadialSegments:  c.Torus.RadialSegments,
		TubularSegments: c.Torus.TubularSegments,
	}
}
