package donuts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, cfg.Assets.MatcapKeys)
	assert.Equal(t, 3000, cfg.Instances.Initial)
	assert.Equal(t, 100, cfg.Instances.Min)
	assert.Equal(t, 10000, cfg.Instances.Max)
	assert.Equal(t, 50, cfg.Instances.Step)
	assert.Equal(t, float32(50), cfg.Instances.Spread)
	assert.Equal(t, float32(75), cfg.Camera.Fov)
	assert.Equal(t, [3]float32{1, 1, 2}, cfg.Camera.Position)
	assert.Equal(t, float32(2), cfg.Window.MaxPixelRatio)

	torus := cfg.TorusOptions()
	assert.Equal(t, float32(0.3), torus.Radius)
	assert.Equal(t, float32(0.2), torus.Tube)
	assert.Equal(t, 20, torus.RadialSegments)
	assert.Equal(t, 45, torus.TubularSegments)

	text := cfg.TextOptions()
	assert.Equal(t, float32(0.5), text.Size)
	assert.Equal(t, float32(0.2), text.Depth)
	assert.True(t, text.BevelEnabled)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "donuts.yaml", `
text:
  content: "Hi"
instances:
  initial: 500
  seed: 12
camera:
  position: [0, 0, 5]
debug: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Hi", cfg.Text.Content)
	assert.Equal(t, 500, cfg.Instances.Initial)
	assert.Equal(t, uint64(12), cfg.Instances.Seed)
	assert.Equal(t, [3]float32{0, 0, 5}, cfg.Camera.Position)
	assert.True(t, cfg.Debug)
	// Untouched fields keep their defaults.
	assert.Equal(t, 10000, cfg.Instances.Max)
	assert.Equal(t, float32(0.5), cfg.Text.Size)
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "donuts.toml", `
[window]
width = 800
height = 600

[assets]
texture_dir = "assets/matcaps"
matcap_keys = ["a", "b"]

[torus]
radial_segments = 8
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "assets/matcaps", cfg.Assets.TextureDir)
	assert.Equal(t, []string{"a", "b"}, cfg.Assets.MatcapKeys)
	assert.Equal(t, 8, cfg.Torus.RadialSegments)
	assert.Equal(t, 45, cfg.Torus.TubularSegments)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("unknown yaml field", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "c.yml", "instances:\n  bogus: 1\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
	t.Run("unknown toml field", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "c.toml", "[text]\nbogus = 1\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "c.json", "{}"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "c.yaml", "instances:\n  initial: 50\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	mutate := map[string]func(*Config){
		"zero width":             func(c *Config) { c.Window.Width = 0 },
		"pixel ratio":            func(c *Config) { c.Window.MaxPixelRatio = 0.5 },
		"no matcaps":             func(c *Config) { c.Assets.MatcapKeys = nil },
		"duplicate matcaps":      func(c *Config) { c.Assets.MatcapKeys = []string{"1", "1"} },
		"text size":              func(c *Config) { c.Text.Size = 0 },
		"bevel segments":         func(c *Config) { c.Text.BevelSegments = 0 },
		"torus segments":         func(c *Config) { c.Torus.RadialSegments = 2 },
		"instance range":         func(c *Config) { c.Instances.Min = 20000 },
		"instance step":          func(c *Config) { c.Instances.Step = 0 },
		"initial above max":      func(c *Config) { c.Instances.Initial = 20000 },
		"fov":                    func(c *Config) { c.Camera.Fov = 180 },
		"clip range":             func(c *Config) { c.Camera.Far = 0.01 },
		"damping":                func(c *Config) { c.Camera.Damping = 0 },
		"overlay font size":      func(c *Config) { c.Overlay.FontSize = 0 },
		"negative spread":        func(c *Config) { c.Instances.Spread = -1 },
		"negative text depth":    func(c *Config) { c.Text.Depth = -1 },
		"initial off step grid":  func(c *Config) { c.Instances.Initial = 3025 },
		"overlay font too large": func(c *Config) { c.Overlay.FontSize = 500 },
	}
	for name, m := range mutate {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			m(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("collects every problem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Window.Width = 0
		cfg.Camera.Fov = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "window size")
		assert.Contains(t, err.Error(), "camera fov")
	})

	t.Run("disabled overlay skips font size", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Overlay.Enabled = false
		cfg.Overlay.FontSize = 0
		assert.NoError(t, cfg.Validate())
	})
}
