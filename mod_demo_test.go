package donuts

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHeadlessDemo assembles the demo without window, input polling or
// renderer.
func newHeadlessDemo(cfg Config, logging Module) *App {
	app := NewAppBuilder().
		UseStates(StateLoading, StateStopped).
		UseModule(
			logging,
			AssetServerModule{},
			SceneGraphModule{},
			HierarchyModule{},
			InstancePoolModule{Spread: cfg.Instances.Spread, Seed: 5},
			ControlPanelModule{},
			DemoModule{Config: cfg},
		).
		Build()
	app.Commands().AddResources(&Input{})
	return app
}

type bufferLogging struct{ buf *bytes.Buffer }

func (m bufferLogging) Install(app *App, cmd *Commands) {
	cmd.AddResources(newLogger("donuts", false, m.buf, m.buf))
}

func TestDemo_LoadingToRunning(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Assets.TextureDir = dir
	cfg.Instances.Initial = 300
	writeMatcaps(t, dir, cfg.Assets.MatcapKeys...)

	app := newHeadlessDemo(cfg, LoggingModule{Prefix: "donuts"})
	ctx := context.Background()

	deadline := time.Now().Add(10 * time.Second)
	for app.State() != StateRunning {
		require.True(t, app.Step(ctx), "app stopped while loading")
		require.True(t, time.Now().Before(deadline), "assets never finished loading")
		time.Sleep(time.Millisecond)
	}
	require.True(t, app.Step(ctx))

	pool := Resource[InstancePool](app)
	assert.Equal(t, cfg.Instances.Initial, pool.Len())
	assert.True(t, pool.Attached())
	assert.Equal(t, cfg.Instances.Initial, MakeQuery1[MeshComponent](app.Commands()).Count()-1, "instances plus the text mesh")

	params := Resource[InstanceParams](app)
	assert.Equal(t, cfg.Instances.Initial, params.DesiredCount)

	panel := Resource[ControlPanel](app)
	require.NotNil(t, panel.Range(countBinding))
	require.NotNil(t, panel.Enum(matcapBinding))
	assert.Equal(t, cfg.Instances.Initial, panel.Range(countBinding).Value())
	assert.Equal(t, "1", panel.Enum(matcapBinding).Value())

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	app.Run(ctx)
	assert.Equal(t, StateStopped, app.State())
	assert.False(t, app.Running())
}

func TestDemo_LoadFailureStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assets.TextureDir = filepath.Join(t.TempDir(), "missing")

	var logs bytes.Buffer
	app := newHeadlessDemo(cfg, bufferLogging{&logs})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.Run(ctx)

	require.NoError(t, ctx.Err(), "the load failure stops the app, not the timeout")
	assert.Equal(t, StateStopped, app.State())
	assert.Contains(t, logs.String(), "ERROR: loading assets")

	_, ok := Resource[InstancePool](app).Group()
	assert.False(t, ok, "no scene is built")
	assert.Nil(t, Resource[ControlPanel](app).Range(countBinding))
}
