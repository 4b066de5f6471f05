package donuts

import (
	"math"

	"github.com/gekko3d/donuts/render/core"
	"github.com/go-gl/mathgl/mgl32"
)

type CameraComponent struct {
	Camera core.PerspectiveCamera
}

type OrbitControlsComponent struct {
	Controls core.OrbitControls
}

// OrbitCameraModule spawns the camera and drives it from mouse drags and the
// scroll wheel.
type OrbitCameraModule struct {
	Config CameraConfig
}

func (m OrbitCameraModule) Install(app *App, cmd *Commands) {
	cmd.AddEntity(newOrbitCamera(m.Config)...)

	app.UseSystem(
		System(OrbitCameraInputSystem).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(OrbitCameraControlSystem).
			InStage(Update).
			RunAlways(),
	)
}

func newOrbitCamera(cfg CameraConfig) []any {
	cam := core.NewPerspectiveCamera(cfg.Fov, 1, cfg.Near, cfg.Far)
	cam.Position = mgl32.Vec3(cfg.Position)

	controls := core.NewOrbitControls()
	controls.EnableDamping = cfg.Damping < 1
	controls.DampingFactor = cfg.Damping

	return []any{
		&CameraComponent{Camera: *cam},
		&OrbitControlsComponent{Controls: *controls},
	}
}

// OrbitCameraInputSystem turns a full-height drag into one turn around the
// target and wheel notches into dolly steps.
func OrbitCameraInputSystem(input *Input, win *WindowState, cmd *Commands) {
	height := float32(win.Height)
	if height <= 0 {
		return
	}
	MakeQuery1[OrbitControlsComponent](cmd).Map(func(eid EntityId, orbit *OrbitControlsComponent) bool {
		if input.Dragging() {
			orbit.Controls.Rotate(
				2*math.Pi*float32(input.MouseDeltaX)/height,
				2*math.Pi*float32(input.MouseDeltaY)/height,
			)
		}
		if input.Scroll != 0 {
			orbit.Controls.Zoom(float32(input.Scroll))
		}
		return true
	})
}

// OrbitCameraControlSystem keeps the aspect in step with the window and
// applies pending orbit motion.
func OrbitCameraControlSystem(win *WindowState, cmd *Commands) {
	MakeQuery2[CameraComponent, OrbitControlsComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, orbit *OrbitControlsComponent) bool {
		cam.Camera.SetViewport(win.Width, win.Height)
		orbit.Controls.Update(&cam.Camera)
		return true
	})
}

// ActiveCamera returns the first camera in the world.
func ActiveCamera(cmd *Commands) (*core.PerspectiveCamera, bool) {
	var found *core.PerspectiveCamera
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		found = &cam.Camera
		return false
	})
	return found, found != nil
}
