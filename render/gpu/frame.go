package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Frame is one presented image: scene batches first, overlay text on top.
type Frame struct {
	Clear   wgpu.Color
	Batches []Batch
}

// Render encodes and presents a frame. Instance and text data must have been
// prepared on the passes beforehand.
func (s *State) Render(frame Frame, matcap *MatcapPass, text *TextPass) error {
	surfaceTex, err := s.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquiring surface texture: %w", err)
	}
	defer surfaceTex.Release()

	view, err := surfaceTex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("creating surface view: %w", err)
	}
	defer view.Release()

	encoder, err := s.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("creating command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "ScenePass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: frame.Clear,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            s.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if matcap != nil {
		matcap.Draw(pass, frame.Batches)
	}
	if text != nil {
		text.Draw(pass)
	}
	if err := pass.End(); err != nil {
		pass.Release()
		return fmt.Errorf("ending scene pass: %w", err)
	}
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finishing frame: %w", err)
	}
	defer cmd.Release()

	s.Queue.Submit(cmd)
	s.Surface.Present()
	return nil
}
