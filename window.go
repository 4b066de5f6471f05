package donuts

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowState owns the glfw window. Width and Height are the logical window
// size; SurfaceWidth and SurfaceHeight are the pixel size the renderer should
// draw at after the pixel ratio cap.
type WindowState struct {
	windowGlfw *glfw.Window
	Title      string

	Width, Height               int
	SurfaceWidth, SurfaceHeight int
	MaxPixelRatio               float32

	scroll float64
}

func createWindowState(width, height int, title string, maxPixelRatio float32) (*WindowState, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialising glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	s := &WindowState{
		windowGlfw:    win,
		Title:         title,
		MaxPixelRatio: maxPixelRatio,
	}
	win.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		s.scroll += yoff
	})
	s.refreshSize()
	return s, nil
}

// Window exposes the glfw handle for surface creation.
func (s *WindowState) Window() *glfw.Window {
	return s.windowGlfw
}

// refreshSize re-reads the window size and content scale and reports
// whether the surface size changed.
func (s *WindowState) refreshSize() bool {
	s.Width, s.Height = s.windowGlfw.GetSize()
	scale, _ := s.windowGlfw.GetContentScale()
	w, h := surfaceSize(s.Width, s.Height, scale, s.MaxPixelRatio)
	changed := w != s.SurfaceWidth || h != s.SurfaceHeight
	s.SurfaceWidth, s.SurfaceHeight = w, h
	return changed
}

func (s *WindowState) takeScroll() float64 {
	v := s.scroll
	s.scroll = 0
	return v
}

func (s *WindowState) ShouldClose() bool {
	return s.windowGlfw.ShouldClose()
}

// Aspect returns width over height, or 1 for a minimised window.
func (s *WindowState) Aspect() float32 {
	if s.Width <= 0 || s.Height <= 0 {
		return 1
	}
	return float32(s.Width) / float32(s.Height)
}

func (s *WindowState) destroy() {
	if s.windowGlfw == nil {
		return
	}
	s.windowGlfw.Destroy()
	s.windowGlfw = nil
	glfw.Terminate()
}

// surfaceSize scales a logical size by the content scale, capped at
// maxRatio. A non-positive maxRatio means no cap.
func surfaceSize(width, height int, scale, maxRatio float32) (int, int) {
	if scale <= 0 {
		scale = 1
	}
	if maxRatio > 0 && scale > maxRatio {
		scale = maxRatio
	}
	return int(float32(width) * scale), int(float32(height) * scale)
}

// WindowModule provides the shared WindowState resource. Installing it twice
// keeps the first window. glfw must be used from the thread that called
// runtime.LockOSThread.
type WindowModule struct {
	Width         int
	Height        int
	Title         string
	MaxPixelRatio float32
}

func NewWindowModule(cfg WindowConfig) WindowModule {
	return WindowModule{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Title:         cfg.Title,
		MaxPixelRatio: cfg.MaxPixelRatio,
	}
}

func (m WindowModule) Install(app *App, cmd *Commands) {
	if Resource[WindowState](app) != nil {
		return
	}

	ws, err := createWindowState(m.Width, m.Height, m.Title, m.MaxPixelRatio)
	if err != nil {
		panic(err)
	}
	cmd.AddResources(ws)

	app.UseSystem(
		System(windowSystem).
			InStage(Prelude).
			RunAlways(),
	)
	if app.stateful {
		app.UseSystem(
			System(windowReleaseSystem).
				InStage(Finale).
				InState(OnExit(StateStopped)),
		)
	}
}

// windowSystem pumps events and turns a close request into a stop.
func windowSystem(s *WindowState, cmd *Commands) {
	glfw.PollEvents()
	if s.refreshSize() {
		cmd.Logger().Debugf("window: surface %dx%d", s.SurfaceWidth, s.SurfaceHeight)
	}
	if s.ShouldClose() {
		cmd.Logger().Infof("window closed")
		cmd.Stop()
	}
}

func windowReleaseSystem(s *WindowState) {
	s.destroy()
}
