package donuts

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	Key0 int = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEscape
	KeyTab
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyMinus
	KeyEqual
	KeyKPPlus
	KeyKPMinus
	KeyShift
	KeyControl
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	keyCount
)

type InputModule struct{}

// Input is the per-frame snapshot of keyboard and mouse state.
type Input struct {
	Pressed [keyCount]bool

	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	// Scroll is the wheel offset accumulated since the previous frame.
	Scroll float64

	mouseSeen bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// setButton records the current state of key and derives the edge flags.
func (input *Input) setButton(key int, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

// moveMouse stores the cursor position. The first sample produces no delta.
func (input *Input) moveMouse(x, y float64) {
	if input.mouseSeen {
		input.MouseDeltaX = x - input.MouseX
		input.MouseDeltaY = y - input.MouseY
	}
	input.MouseX, input.MouseY = x, y
	input.mouseSeen = true
}

// Dragging reports whether the left button is held and the cursor moved.
func (input *Input) Dragging() bool {
	return input.Pressed[MouseButtonLeft] && (input.MouseDeltaX != 0 || input.MouseDeltaY != 0)
}

func inputSystem(s *WindowState, input *Input) {
	win := s.windowGlfw

	for key, glfwKey := range keyToGlfw {
		input.setButton(key, win.GetKey(glfwKey) == glfw.Press)
	}
	// Either shift key counts.
	if win.GetKey(glfw.KeyRightShift) == glfw.Press {
		input.Pressed[KeyShift] = true
	}

	for btn, glfwBtn := range mouseToGlfw {
		input.setButton(btn, win.GetMouseButton(glfwBtn) == glfw.Press)
	}

	input.moveMouse(win.GetCursorPos())
	input.Scroll = s.takeScroll()
}

var keyToGlfw = map[int]glfw.Key{
	Key0:       glfw.Key0,
	Key1:       glfw.Key1,
	Key2:       glfw.Key2,
	Key3:       glfw.Key3,
	Key4:       glfw.Key4,
	Key5:       glfw.Key5,
	Key6:       glfw.Key6,
	Key7:       glfw.Key7,
	Key8:       glfw.Key8,
	Key9:       glfw.Key9,
	KeySpace:   glfw.KeySpace,
	KeyEscape:  glfw.KeyEscape,
	KeyTab:     glfw.KeyTab,
	KeyRight:   glfw.KeyRight,
	KeyLeft:    glfw.KeyLeft,
	KeyDown:    glfw.KeyDown,
	KeyUp:      glfw.KeyUp,
	KeyMinus:   glfw.KeyMinus,
	KeyEqual:   glfw.KeyEqual,
	KeyKPPlus:  glfw.KeyKPAdd,
	KeyKPMinus: glfw.KeyKPSubtract,
	KeyShift:   glfw.KeyLeftShift,
	KeyControl: glfw.KeyLeftControl,
}

var mouseToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}
