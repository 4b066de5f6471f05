package donuts

import "fmt"

const (
	matcapBinding = "matcap"
	countBinding  = "donutCount"
)

// ControlPanelModule installs the debug panel, its keyboard driver and,
// when a renderer is present, its overlay.
type ControlPanelModule struct{}

func (ControlPanelModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewControlPanel("Debug"))
	app.UseSystem(
		System(controlPanelInputSystem).
			InStage(Update).
			RunAlways(),
	)
	if Resource[Renderer](app) != nil {
		app.UseSystem(
			System(controlPanelOverlaySystem).
				InStage(PreRender).
				RunAlways(),
		)
	}
}

// bindControlPanel adds the matcap and instance count bindings. Changing the
// matcap swaps the shared material's texture; changing the count
// regenerates the pool.
func bindControlPanel(panel *ControlPanel, cmd *Commands, assets *AssetServer, pool *InstancePool, params *InstanceParams, scene *Scene, limits InstancesConfig) error {
	matcap, err := NewEnumBinding(matcapBinding, assets.MatcapKeys(), scene.Material.Key)
	if err != nil {
		return err
	}
	matcap.OnChange = func(key string) {
		if err := scene.Material.SetMatcap(assets, key); err != nil {
			cmd.Logger().Errorf("%v", err)
			return
		}
		cmd.Logger().Infof("matcap changed to: %s", key)
	}

	count, err := NewRangeBinding(countBinding, limits.Min, limits.Max, limits.Step, pool.Len())
	if err != nil {
		return err
	}
	params.DesiredCount = count.Value()
	if pool.Len() != count.Value() {
		if err := pool.Regenerate(cmd, count.Value(), scene.Torus, scene.Material); err != nil {
			return err
		}
	}
	count.OnChange = func(n int) {
		params.DesiredCount = n
		if err := pool.Regenerate(cmd, n, scene.Torus, scene.Material); err != nil {
			cmd.Logger().Errorf("%v", err)
			return
		}
		cmd.Logger().Infof("donutCount changed to: %d", n)
	}

	panel.AddEnum(matcap)
	panel.AddRange(count)
	panel.Help = []string{
		"1-5 matcap  +/- count (shift x10)",
		"drag to orbit  wheel to zoom",
	}
	return nil
}

var matcapKeys = []int{Key1, Key2, Key3, Key4, Key5, Key6, Key7, Key8, Key9}

func controlPanelInputSystem(panel *ControlPanel, input *Input, cmd *Commands) {
	if matcap := panel.Enum(matcapBinding); matcap != nil {
		for i, key := range matcapKeys {
			if input.JustPressed[key] && i < len(matcap.Options) {
				if err := matcap.SelectIndex(i); err != nil {
					cmd.Logger().Warnf("%v", err)
				}
			}
		}
	}

	if count := panel.Range(countBinding); count != nil {
		if steps := countSteps(input); steps != 0 {
			count.Nudge(steps)
		}
	}
}

// countSteps maps this frame's key presses to count increments.
func countSteps(input *Input) int {
	steps := 0
	if input.JustPressed[KeyUp] || input.JustPressed[KeyEqual] || input.JustPressed[KeyKPPlus] {
		steps++
	}
	if input.JustPressed[KeyDown] || input.JustPressed[KeyMinus] || input.JustPressed[KeyKPMinus] {
		steps--
	}
	if input.Pressed[KeyShift] {
		steps *= 10
	}
	return steps
}

func controlPanelOverlaySystem(panel *ControlPanel, clock *Time, r *Renderer) {
	r.Overlay = append(panel.Lines(), frameLine(clock))
}

func frameLine(clock *Time) string {
	return fmt.Sprintf("frame: %.1f ms", clock.Seconds()*1000)
}
