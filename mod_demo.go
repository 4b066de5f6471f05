package donuts

import (
	"context"
)

const (
	StateLoading State = iota
	StateRunning
	StateStopped
)

// DemoModule loads the assets and, once they are in, builds the scene and
// binds the control panel. It needs the asset server, scene graph, instance
// pool and control panel resources.
type DemoModule struct {
	Config Config
}

type demo struct {
	manifest AssetManifest
	def      SceneDef
	limits   InstancesConfig

	cancel context.CancelFunc
	load   *AssetLoad
	scene  *Scene
}

func (m DemoModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&demo{
		manifest: ManifestFromConfig(m.Config.Assets),
		def:      SceneFromConfig(m.Config),
		limits:   m.Config.Instances,
	})

	app.UseSystem(
		System(demoLoadSystem).
			InStage(Prelude).
			InState(OnEnter(StateLoading)),
	)
	app.UseSystem(
		System(demoAwaitSystem).
			InStage(Update).
			InState(OnExecute(StateLoading)),
	)
	app.UseSystem(
		System(demoSpawnSystem).
			InStage(Update).
			InState(OnEnter(StateRunning)),
	)
	app.UseSystem(
		System(demoShutdownSystem).
			InStage(Prelude).
			InState(OnEnter(StateStopped)),
	)
}

func demoLoadSystem(d *demo, assets *AssetServer, cmd *Commands) {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.load = assets.LoadAsync(ctx, d.manifest)
	cmd.Logger().Infof("loading %d matcaps from %s", len(d.manifest.MatcapKeys), d.manifest.TextureDir)
}

func demoAwaitSystem(d *demo, cmd *Commands) {
	if d.load == nil || !d.load.Ready() {
		return
	}
	if err := d.load.Err(); err != nil {
		cmd.Logger().Errorf("loading assets: %v", err)
		cmd.Stop()
		return
	}
	cmd.ChangeState(StateRunning)
}

func demoSpawnSystem(d *demo, assets *AssetServer, graph *SceneGraph, pool *InstancePool, params *InstanceParams, panel *ControlPanel, cmd *Commands) {
	scene, err := LoadScene(cmd, assets, graph, pool, d.def)
	if err != nil {
		cmd.Logger().Errorf("building scene: %v", err)
		cmd.Stop()
		return
	}
	d.scene = scene

	if err := bindControlPanel(panel, cmd, assets, pool, params, scene, d.limits); err != nil {
		cmd.Logger().Errorf("binding control panel: %v", err)
		cmd.Stop()
		return
	}
	cmd.Logger().Infof("scene ready: %d donuts", pool.Len())
}

// demoShutdownSystem abandons a load still in flight.
func demoShutdownSystem(d *demo) {
	if d.cancel != nil {
		d.cancel()
	}
}

// NewDemoApp assembles the full windowed app. It must run on the main
// thread.
func NewDemoApp(cfg Config) *App {
	return NewAppBuilder().
		UseStates(StateLoading, StateStopped).
		UseModule(
			LoggingModule{Prefix: "donuts", Debug: cfg.Debug},
			TimeModule{},
			NewWindowModule(cfg.Window),
			InputModule{},
			AssetServerModule{},
			SceneGraphModule{},
			HierarchyModule{},
			InstancePoolModule{Spread: cfg.Instances.Spread, Seed: cfg.Instances.Seed},
			OrbitCameraModule{Config: cfg.Camera},
			RendererModule{Overlay: cfg.Overlay},
			ControlPanelModule{},
			DemoModule{Config: cfg},
		).
		Build()
}
