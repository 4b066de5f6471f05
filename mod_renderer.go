package donuts

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/donuts/render/core"
	"github.com/gekko3d/donuts/render/gpu"
)

const overlayMargin = 12

// Renderer owns the GPU side of the app. Systems that want text on screen
// write Overlay; it is redrawn every frame.
type Renderer struct {
	Clear   wgpu.Color
	Overlay []string

	overlayCfg OverlayConfig
	gpu        *gpu.State
	matcap     *gpu.MatcapPass
	text       *gpu.TextPass
	overlay    *core.TextOverlay
}

// Ready reports whether the GPU was initialised.
func (r *Renderer) Ready() bool {
	return r.gpu != nil
}

type RendererModule struct {
	Overlay OverlayConfig
}

func (m RendererModule) Install(app *App, cmd *Commands) {
	r := &Renderer{
		Clear:      wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		overlayCfg: m.Overlay,
	}
	cmd.AddResources(r)

	win := Resource[WindowState](app)
	if win == nil {
		panic("RendererModule requires WindowModule")
	}
	if err := r.init(win); err != nil {
		cmd.Logger().Errorf("renderer: %v", err)
		r.release()
		cmd.Stop()
	}

	app.UseSystem(
		System(rendererResizeSystem).
			InStage(PreRender).
			RunAlways(),
	)
	app.UseSystem(
		System(rendererSystem).
			InStage(Render).
			RunAlways(),
	)
	if app.stateful {
		app.UseSystem(
			System(rendererReleaseSystem).
				InStage(PostRender).
				InState(OnExit(StateStopped)),
		)
	}
}

func (r *Renderer) init(win *WindowState) error {
	state, err := gpu.NewState(win.Window(), win.SurfaceWidth, win.SurfaceHeight)
	if err != nil {
		return err
	}
	r.gpu = state

	r.matcap, err = gpu.NewMatcapPass(state.Device, state.Format())
	if err != nil {
		return err
	}
	return nil
}

// ensureText builds the overlay pass once a font is available.
func (r *Renderer) ensureText(assets *AssetServer) error {
	if r.text != nil || !r.overlayCfg.Enabled {
		return nil
	}
	f := assets.Font()
	if f == nil {
		return nil
	}
	overlay, err := core.NewTextOverlay(f, r.overlayCfg.FontSize)
	if err != nil {
		return err
	}
	text, err := gpu.NewTextPass(r.gpu.Device, r.gpu.Format(), overlay)
	if err != nil {
		return err
	}
	r.overlay, r.text = overlay, text
	return nil
}

// overlayLines anchors the overlay text to the top-right corner.
func (r *Renderer) overlayLines(width int) []core.OverlayLine {
	if r.overlay == nil || len(r.Overlay) == 0 {
		return nil
	}
	w, _ := r.overlay.Measure(r.Overlay)
	x := max(float32(width)-w-overlayMargin, overlayMargin)

	lines := make([]core.OverlayLine, len(r.Overlay))
	for i, text := range r.Overlay {
		lines[i] = core.OverlayLine{
			Text:  text,
			X:     x,
			Y:     overlayMargin + float32(i)*r.overlay.LineHeight(),
			Color: [4]float32{1, 1, 1, 0.9},
		}
	}
	return lines
}

func (r *Renderer) release() {
	if r.text != nil {
		r.text.Release()
		r.text = nil
	}
	if r.matcap != nil {
		r.matcap.Release()
		r.matcap = nil
	}
	if r.gpu != nil {
		r.gpu.Release()
		r.gpu = nil
	}
}

func rendererResizeSystem(r *Renderer, win *WindowState, cmd *Commands) {
	if !r.Ready() {
		return
	}
	if err := r.gpu.Resize(win.SurfaceWidth, win.SurfaceHeight); err != nil {
		cmd.Logger().Errorf("renderer: %v", err)
		cmd.Stop()
	}
}

func rendererSystem(r *Renderer, assets *AssetServer, scene *SceneGraph, cmd *Commands) {
	if !r.Ready() {
		return
	}
	if err := r.draw(cmd, assets, scene); err != nil {
		cmd.Logger().Errorf("renderer: %v", err)
		cmd.Stop()
	}
}

func (r *Renderer) draw(cmd *Commands, assets *AssetServer, scene *SceneGraph) error {
	width, height := r.gpu.Size()
	if width == 0 || height == 0 {
		return nil
	}

	batches := collectBatches(cmd, scene)
	for _, b := range batches {
		if err := r.upload(assets, b); err != nil {
			return err
		}
	}

	if cam, ok := ActiveCamera(cmd); ok {
		r.matcap.UpdateCamera(cam.View(), cam.Projection())
	}
	if err := r.matcap.Prepare(batches); err != nil {
		return err
	}

	if err := r.ensureText(assets); err != nil {
		return err
	}
	if r.text != nil {
		if err := r.text.Prepare(r.overlay.Vertices(r.overlayLines(width), width, height)); err != nil {
			return err
		}
	}

	return r.gpu.Render(gpu.Frame{Clear: r.Clear, Batches: batches}, r.matcap, r.text)
}

// upload sends a batch's mesh and texture to the GPU the first time they
// are drawn.
func (r *Renderer) upload(assets *AssetServer, b gpu.Batch) error {
	if !r.matcap.HasMesh(b.Mesh) {
		mesh, err := assets.Mesh(AssetId(b.Mesh))
		if err != nil {
			return err
		}
		if err := r.matcap.UploadMesh(b.Mesh, mesh.Geometry); err != nil {
			return fmt.Errorf("uploading %s: %w", mesh.Name, err)
		}
	}
	if !r.matcap.HasTexture(b.Texture) {
		tex, err := assets.Texture(AssetId(b.Texture))
		if err != nil {
			return err
		}
		if err := r.matcap.UploadTexture(b.Texture, tex.Image); err != nil {
			return fmt.Errorf("uploading %s: %w", tex.Name, err)
		}
	}
	return nil
}

type batchKey struct {
	mesh, texture AssetId
}

// collectBatches groups every visible mesh by mesh and texture. Batches are
// ordered by key so the draw order is stable between frames.
func collectBatches(cmd *Commands, scene *SceneGraph) []gpu.Batch {
	visible := make(map[EntityId]bool)
	isVisible := func(eid EntityId) bool {
		root := eid
		if p := GetComponent[Parent](cmd, eid); p != nil {
			root = p.Entity
		}
		v, ok := visible[root]
		if !ok {
			v = scene.Visible(cmd, root)
			visible[root] = v
		}
		return v
	}

	groups := make(map[batchKey]*gpu.Batch)
	MakeQuery3[MeshComponent, MaterialComponent, TransformComponent](cmd).Map(func(eid EntityId, mesh *MeshComponent, mat *MaterialComponent, tr *TransformComponent) bool {
		if mat.Material == nil || !isVisible(eid) {
			return true
		}
		key := batchKey{mesh: mesh.Mesh, texture: mat.Material.Texture}
		b, ok := groups[key]
		if !ok {
			b = &gpu.Batch{Mesh: string(key.mesh), Texture: string(key.texture)}
			groups[key] = b
		}
		b.Models = append(b.Models, tr.Matrix())
		return true
	})

	batches := make([]gpu.Batch, 0, len(groups))
	for _, b := range groups {
		batches = append(batches, *b)
	}
	slices.SortFunc(batches, func(a, b gpu.Batch) int {
		return cmp.Or(cmp.Compare(a.Mesh, b.Mesh), cmp.Compare(a.Texture, b.Texture))
	})
	return batches
}

func rendererReleaseSystem(r *Renderer) {
	r.release()
}
