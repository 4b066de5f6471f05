package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/donuts/render/core"
	"github.com/gekko3d/donuts/render/shaders"
)

// TextPass draws overlay glyph quads from a single-channel atlas on top of
// the scene.
type TextPass struct {
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Pipeline *wgpu.RenderPipeline

	atlas     *wgpu.Texture
	atlasView *wgpu.TextureView
	sampler   *wgpu.Sampler
	bindGroup *wgpu.BindGroup

	vertexBuffer *wgpu.Buffer
	vertexCount  uint32
}

func NewTextPass(device *wgpu.Device, format wgpu.TextureFormat, overlay *core.TextOverlay) (*TextPass, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "TextShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("compiling text shader: %w", err)
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "TextPipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(core.OverlayVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
			CullMode: wgpu.CullModeNone,
		},
		// Shares the scene pass, so it declares the depth format but never tests or writes.
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront:      keepStencil,
			StencilBack:       keepStencil,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating text pipeline: %w", err)
	}

	p := &TextPass{Device: device, Queue: device.GetQueue(), Pipeline: pipeline}
	if err := p.uploadAtlas(overlay); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *TextPass) uploadAtlas(overlay *core.TextOverlay) error {
	w, h := overlay.Atlas.Bounds().Dx(), overlay.Atlas.Bounds().Dy()
	extent := wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}

	var err error
	p.atlas, err = p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "TextAtlas",
		Size:          extent,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("creating text atlas: %w", err)
	}
	p.Queue.WriteTexture(p.atlas.AsImageCopy(), overlay.Atlas.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(overlay.Atlas.Stride),
		RowsPerImage: uint32(h),
	}, &extent)

	if p.atlasView, err = p.atlas.CreateView(nil); err != nil {
		return fmt.Errorf("creating text atlas view: %w", err)
	}
	p.sampler, err = p.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("creating text sampler: %w", err)
	}
	p.bindGroup, err = p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "TextBG",
		Layout: p.Pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: p.atlasView},
			{Binding: 1, Sampler: p.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("creating text bind group: %w", err)
	}
	return nil
}

// Prepare uploads this frame's glyph quads.
func (p *TextPass) Prepare(vertices []core.OverlayVertex) error {
	p.vertexCount = 0
	if len(vertices) == 0 {
		return nil
	}

	size := uint64(len(vertices)) * uint64(unsafe.Sizeof(core.OverlayVertex{}))
	if p.vertexBuffer == nil || p.vertexBuffer.GetSize() < size {
		if p.vertexBuffer != nil {
			p.vertexBuffer.Release()
			p.vertexBuffer = nil
		}
		buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "TextVertices",
			Size:  size * 2,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("growing text vertex buffer: %w", err)
		}
		p.vertexBuffer = buf
	}
	p.Queue.WriteBuffer(p.vertexBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size))
	p.vertexCount = uint32(len(vertices))
	return nil
}

func (p *TextPass) Draw(pass *wgpu.RenderPassEncoder) {
	if p.vertexCount == 0 {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.SetVertexBuffer(0, p.vertexBuffer, 0, p.vertexBuffer.GetSize())
	pass.Draw(p.vertexCount, 1, 0, 0)
}

func (p *TextPass) Release() {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	if p.sampler != nil {
		p.sampler.Release()
	}
	if p.atlasView != nil {
		p.atlasView.Release()
	}
	if p.atlas != nil {
		p.atlas.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}
