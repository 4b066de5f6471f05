package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const DepthFormat = wgpu.TextureFormatDepth24Plus

// State owns the device, the window surface and the depth buffer that
// matches the surface size.
type State struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	depthTexture *wgpu.Texture
	DepthView    *wgpu.TextureView
}

// NewState configures a FIFO surface of width x height pixels on window.
func NewState(window *glfw.Window, width, height int) (*State, error) {
	s := &State{}
	s.Instance = wgpu.CreateInstance(nil)
	s.Surface = s.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := s.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: s.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("requesting adapter: %w", err)
	}
	s.Adapter = adapter

	s.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("requesting device: %w", err)
	}
	s.Queue = s.Device.GetQueue()

	caps := s.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		s.Release()
		return nil, fmt.Errorf("surface reports no usable format")
	}
	s.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	s.Surface.Configure(s.Adapter, s.Device, s.Config)

	if err := s.createDepth(); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

func (s *State) Format() wgpu.TextureFormat {
	return s.Config.Format
}

func (s *State) Size() (int, int) {
	return int(s.Config.Width), int(s.Config.Height)
}

// Resize reconfigures the surface and depth buffer. Zero sizes (minimised
// windows) are ignored.
func (s *State) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if uint32(width) == s.Config.Width && uint32(height) == s.Config.Height {
		return nil
	}
	s.Config.Width = uint32(width)
	s.Config.Height = uint32(height)
	s.Surface.Configure(s.Adapter, s.Device, s.Config)
	return s.createDepth()
}

func (s *State) createDepth() error {
	s.releaseDepth()

	tex, err := s.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth",
		Size:          wgpu.Extent3D{Width: s.Config.Width, Height: s.Config.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("creating depth texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("creating depth view: %w", err)
	}
	s.depthTexture, s.DepthView = tex, view
	return nil
}

func (s *State) releaseDepth() {
	if s.DepthView != nil {
		s.DepthView.Release()
		s.DepthView = nil
	}
	if s.depthTexture != nil {
		s.depthTexture.Release()
		s.depthTexture = nil
	}
}

// Release frees everything in reverse creation order. Safe on a partially
// built State.
func (s *State) Release() {
	s.releaseDepth()
	if s.Queue != nil {
		s.Queue.Release()
		s.Queue = nil
	}
	if s.Device != nil {
		s.Device.Release()
		s.Device = nil
	}
	if s.Adapter != nil {
		s.Adapter.Release()
		s.Adapter = nil
	}
	if s.Surface != nil {
		s.Surface.Release()
		s.Surface = nil
	}
	if s.Instance != nil {
		s.Instance.Release()
		s.Instance = nil
	}
}
