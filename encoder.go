package gfxpipe

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PipelineHandle is an opaque per-device hardware pipeline object produced
// by a DeviceEncoder.
type PipelineHandle any

// StateHandle is an opaque per-device hardware state object (MSAA, color
// blend, depth/stencil) produced by a DeviceEncoder.
type StateHandle any

// HardwareTargetDesc is the per-color-target portion of a hardware pipeline
// description.
type HardwareTargetDesc struct {
	Format      gputypes.TextureFormat
	WriteMask   gputypes.ColorWriteMask
	BlendEnable bool

	// BlendSrcAlphaToColor is set when a color blend factor reads source
	// alpha, so the shader must export alpha even for alpha-less formats.
	BlendSrcAlphaToColor bool
}

// HardwareStateDesc is the resolved, encoder-facing pipeline description:
// every fixed-function decision already made, plus the compiled binary.
// Encoders with separate hardware state objects ignore the DepthStencil and
// Blend snapshots and consume the bound objects instead; monolithic-pipeline
// encoders fold the snapshots into the pipeline itself.
type HardwareStateDesc struct {
	Binary      []byte
	ShaderCache ShaderCacheHandle
	Layout      PipelineLayout

	VertexBuffers []gputypes.VertexBufferLayout

	PrimitiveType      PrimitiveType
	Adjacency          bool
	Topology           gputypes.PrimitiveTopology
	PatchControlPoints uint32
	SwitchWinding      bool
	DisableVertexReuse bool

	DepthClipEnable         bool
	RasterizerDiscardEnable bool
	RelaxedRasterOrder      bool
	UserClipPlaneMask       uint32

	NumSamples         uint32
	SamplePatternIndex uint32
	AlphaToCoverage    bool

	LogicOpEnable        bool
	LogicOp              LogicOp
	DualSourceBlend      bool
	Targets              [MaxColorTargets]HardwareTargetDesc
	DepthFormat          gputypes.TextureFormat
	ViewInstancingEnable bool

	Raster       TriangleRasterParams
	DepthStencil DepthStencilStateDesc
	Blend        ColorBlendStateDesc
	SampleMask   uint32
}

// MsaaStateDesc describes a hardware MSAA state object. All sample counts
// are resolved before this struct is built; it is comparable so equal
// descriptions share one hardware object per device.
type MsaaStateDesc struct {
	CoverageSamples         uint32
	ExposedSamples          uint32
	PixelShaderSamples      uint32
	DepthStencilSamples     uint32
	ShaderExportMaskSamples uint32
	SampleClusters          uint32
	AlphaToCoverageSamples  uint32
	OcclusionQuerySamples   uint32
	SampleMask              uint32
}

// BlendTargetParams is the baked blend state for one color target.
type BlendTargetParams struct {
	BlendEnable bool
	SrcColor    gputypes.BlendFactor
	DstColor    gputypes.BlendFactor
	ColorOp     gputypes.BlendOperation
	SrcAlpha    gputypes.BlendFactor
	DstAlpha    gputypes.BlendFactor
	AlphaOp     gputypes.BlendOperation
}

// ColorBlendStateDesc describes a hardware color blend state object.
type ColorBlendStateDesc struct {
	Targets [MaxColorTargets]BlendTargetParams
}

// DepthStencilStateDesc describes a hardware depth/stencil state object.
// Draw-time values (reference, masks) live in StencilRefMasks instead.
type DepthStencilStateDesc struct {
	DepthEnable       bool
	DepthWriteEnable  bool
	DepthFunc         gputypes.CompareFunction
	DepthBoundsEnable bool
	StencilEnable     bool
	Front             hal.StencilFaceState
	Back              hal.StencilFaceState
}

// DeviceEncoder constructs hardware objects for one accelerator of the
// device group. CreatePipeline receives a caller-provided slice of mem,
// sized by PipelineSize, as the object's backing store; a device group
// places all per-device pipelines in one contiguous arena.
type DeviceEncoder interface {
	PipelineSize(desc *HardwareStateDesc) int
	CreatePipeline(desc *HardwareStateDesc, mem []byte) (PipelineHandle, error)
	DestroyPipeline(h PipelineHandle)

	CreateMsaaState(desc *MsaaStateDesc) (StateHandle, error)
	DestroyMsaaState(h StateHandle)
	CreateColorBlendState(desc *ColorBlendStateDesc) (StateHandle, error)
	DestroyColorBlendState(h StateHandle)
	CreateDepthStencilState(desc *DepthStencilStateDesc) (StateHandle, error)
	DestroyDepthStencilState(h StateHandle)
}

// ShaderTuning carries per-bind shader execution hints.
type ShaderTuning struct {
	// WaveLimit caps the number of in-flight waves per shader engine.
	// Zero means no limit.
	WaveLimit uint32
}

// CommandStream is a recording command buffer spanning the device group.
// DeviceMask selects which sub-streams are active; bit i covers device i.
type CommandStream interface {
	DeviceMask() uint32
	SubStream(deviceIndex int) SubStream
}

// SubStream records state-set commands for one device. The binder calls
// these only for state that actually changed since the last bind.
type SubStream interface {
	BindPipeline(h PipelineHandle, tuning ShaderTuning)
	BindMsaaState(h StateHandle)
	BindColorBlendState(h StateHandle)
	BindDepthStencilState(h StateHandle)

	SetInputAssembly(p InputAssemblyParams)
	SetTriangleRaster(p TriangleRasterParams)
	SetPointLineRaster(p PointLineRasterParams)
	SetDepthBias(p DepthBiasParams)
	SetBlendConst(p BlendConstParams)
	SetDepthBounds(p DepthBoundsParams)
	SetViewports(p ViewportParams)
	SetScissors(p ScissorParams)
	SetSamplePattern(p SamplePattern)
	SetStencilState(p StencilRefMasks)
}
