package gpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/donuts/render/core"
	"github.com/gekko3d/donuts/render/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraData matches the Camera uniform in matcap.wgsl.
type CameraData struct {
	ViewProj mgl32.Mat4
	View     mgl32.Mat4
}

// Batch is every instance of one mesh drawn with one matcap texture.
type Batch struct {
	Mesh    string
	Texture string
	Models  []mgl32.Mat4
}

type meshBuffers struct {
	vertices   *wgpu.Buffer
	indices    *wgpu.Buffer
	indexCount uint32
}

type matcapTexture struct {
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	bindGroup *wgpu.BindGroup
}

// MatcapPass draws instanced meshes shaded by a matcap lookup.
type MatcapPass struct {
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Pipeline *wgpu.RenderPipeline

	cameraBuffer    *wgpu.Buffer
	cameraBindGroup *wgpu.BindGroup
	sampler         *wgpu.Sampler

	meshes   map[string]*meshBuffers
	textures map[string]*matcapTexture

	instanceBuffer *wgpu.Buffer
	instanceCap    uint32
	staged         []mgl32.Mat4
}

func NewMatcapPass(device *wgpu.Device, format wgpu.TextureFormat) (*MatcapPass, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "MatcapShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.MatcapWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("compiling matcap shader: %w", err)
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "MatcapPipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(core.Vertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(mgl32.Mat4{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      keepStencil,
			StencilBack:       keepStencil,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating matcap pipeline: %w", err)
	}

	p := &MatcapPass{
		Device:   device,
		Queue:    device.GetQueue(),
		Pipeline: pipeline,
		meshes:   make(map[string]*meshBuffers),
		textures: make(map[string]*matcapTexture),
	}

	p.cameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "MatcapCamera",
		Size:  uint64(unsafe.Sizeof(CameraData{})),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("creating camera buffer: %w", err)
	}
	p.cameraBindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "MatcapCameraBG",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.cameraBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("creating camera bind group: %w", err)
	}

	p.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("creating matcap sampler: %w", err)
	}
	return p, nil
}

var keepStencil = wgpu.StencilFaceState{
	Compare:     wgpu.CompareFunctionAlways,
	FailOp:      wgpu.StencilOperationKeep,
	DepthFailOp: wgpu.StencilOperationKeep,
	PassOp:      wgpu.StencilOperationKeep,
}

func (p *MatcapPass) HasMesh(id string) bool {
	_, ok := p.meshes[id]
	return ok
}

func (p *MatcapPass) HasTexture(id string) bool {
	_, ok := p.textures[id]
	return ok
}

// UploadMesh copies g to the GPU under id, replacing any previous upload.
func (p *MatcapPass) UploadMesh(id string, g *core.Geometry) error {
	if len(g.Vertices) == 0 || len(g.Indices) == 0 {
		return fmt.Errorf("mesh %s is empty", id)
	}
	p.releaseMesh(id)

	vSize := uint64(len(g.Vertices)) * uint64(unsafe.Sizeof(core.Vertex{}))
	vb, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "MeshVertices:" + id,
		Size:  vSize,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating vertex buffer for %s: %w", id, err)
	}
	p.Queue.WriteBuffer(vb, 0, unsafe.Slice((*byte)(unsafe.Pointer(&g.Vertices[0])), vSize))

	iSize := uint64(len(g.Indices)) * 4
	ib, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "MeshIndices:" + id,
		Size:  iSize,
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return fmt.Errorf("creating index buffer for %s: %w", id, err)
	}
	p.Queue.WriteBuffer(ib, 0, unsafe.Slice((*byte)(unsafe.Pointer(&g.Indices[0])), iSize))

	p.meshes[id] = &meshBuffers{vertices: vb, indices: ib, indexCount: uint32(len(g.Indices))}
	return nil
}

// UploadTexture copies an sRGB matcap image to the GPU under id.
func (p *MatcapPass) UploadTexture(id string, img *image.RGBA) error {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return fmt.Errorf("texture %s is empty", id)
	}
	p.releaseTexture(id)

	extent := wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	tex, err := p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Matcap:" + id,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating texture %s: %w", id, err)
	}
	p.Queue.WriteTexture(tex.AsImageCopy(), img.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(img.Stride),
		RowsPerImage: uint32(h),
	}, &extent)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("creating view for texture %s: %w", id, err)
	}
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "MatcapBG:" + id,
		Layout: p.Pipeline.GetBindGroupLayout(1),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: p.sampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("creating bind group for texture %s: %w", id, err)
	}

	p.textures[id] = &matcapTexture{texture: tex, view: view, bindGroup: bg}
	return nil
}

func (p *MatcapPass) UpdateCamera(view, proj mgl32.Mat4) {
	data := CameraData{ViewProj: proj.Mul4(view), View: view}
	p.Queue.WriteBuffer(p.cameraBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&data)), unsafe.Sizeof(data)))
}

// Prepare packs the model matrices of all batches into the instance buffer,
// growing it when needed.
func (p *MatcapPass) Prepare(batches []Batch) error {
	p.staged = p.staged[:0]
	for _, b := range batches {
		p.staged = append(p.staged, b.Models...)
	}
	if len(p.staged) == 0 {
		return nil
	}

	count := uint32(len(p.staged))
	stride := uint64(unsafe.Sizeof(mgl32.Mat4{}))
	if p.instanceBuffer == nil || p.instanceCap < count {
		if p.instanceBuffer != nil {
			p.instanceBuffer.Release()
			p.instanceBuffer = nil
		}
		capacity := count + count/2 + 128
		buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "MatcapInstances",
			Size:  uint64(capacity) * stride,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			p.instanceCap = 0
			return fmt.Errorf("growing instance buffer to %d: %w", capacity, err)
		}
		p.instanceBuffer, p.instanceCap = buf, capacity
	}

	size := uint64(count) * stride
	p.Queue.WriteBuffer(p.instanceBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&p.staged[0])), size))
	return nil
}

// Draw records the batches given to the last Prepare. Batches whose mesh or
// texture hasn't been uploaded are skipped.
func (p *MatcapPass) Draw(pass *wgpu.RenderPassEncoder, batches []Batch) {
	if p.instanceBuffer == nil {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.cameraBindGroup, nil)
	pass.SetVertexBuffer(1, p.instanceBuffer, 0, p.instanceBuffer.GetSize())

	var first uint32
	for _, b := range batches {
		count := uint32(len(b.Models))
		mesh, okMesh := p.meshes[b.Mesh]
		tex, okTex := p.textures[b.Texture]
		if count > 0 && okMesh && okTex {
			pass.SetBindGroup(1, tex.bindGroup, nil)
			pass.SetVertexBuffer(0, mesh.vertices, 0, mesh.vertices.GetSize())
			pass.SetIndexBuffer(mesh.indices, wgpu.IndexFormatUint32, 0, mesh.indices.GetSize())
			pass.DrawIndexed(mesh.indexCount, count, 0, 0, first)
		}
		first += count
	}
}

func (p *MatcapPass) releaseMesh(id string) {
	if m, ok := p.meshes[id]; ok {
		m.vertices.Release()
		m.indices.Release()
		delete(p.meshes, id)
	}
}

func (p *MatcapPass) releaseTexture(id string) {
	if t, ok := p.textures[id]; ok {
		t.bindGroup.Release()
		t.view.Release()
		t.texture.Release()
		delete(p.textures, id)
	}
}

func (p *MatcapPass) Release() {
	for id := range p.meshes {
		p.releaseMesh(id)
	}
	for id := range p.textures {
		p.releaseTexture(id)
	}
	if p.instanceBuffer != nil {
		p.instanceBuffer.Release()
		p.instanceBuffer = nil
	}
	if p.sampler != nil {
		p.sampler.Release()
	}
	if p.cameraBindGroup != nil {
		p.cameraBindGroup.Release()
	}
	if p.cameraBuffer != nil {
		p.cameraBuffer.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}
