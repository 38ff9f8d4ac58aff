package gfxpipe

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ShaderStage identifies one programmable pipeline stage.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageTessControl
	ShaderStageTessEval
	ShaderStageGeometry
	ShaderStageFragment

	shaderStageCount
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "Vertex"
	case ShaderStageTessControl:
		return "TessControl"
	case ShaderStageTessEval:
		return "TessEval"
	case ShaderStageGeometry:
		return "Geometry"
	case ShaderStageFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// ShaderModule supplies the source or IR of one shader.
// The module is opaque to gfxpipe; only the compiler interprets it.
type ShaderModule interface {
	Code() []byte
}

// SpecConstant overrides one specialization constant at compile time.
type SpecConstant struct {
	ID    uint32
	Value uint32
}

// ShaderStageDesc declares one programmable stage of a pipeline.
type ShaderStageDesc struct {
	Stage          ShaderStage
	Module         ShaderModule
	EntryPoint     string
	Specialization []SpecConstant
}

// VertexInputDesc declares the vertex buffer bindings and attributes.
type VertexInputDesc struct {
	Buffers []gputypes.VertexBufferLayout
}

// InputAssemblyDesc declares primitive assembly.
type InputAssemblyDesc struct {
	Topology      gputypes.PrimitiveTopology
	Adjacency     bool
	RestartEnable bool
}

// TessellationDesc declares the tessellation patch size. A nil block on the
// pipeline description disables tessellation.
type TessellationDesc struct {
	PatchControlPoints uint32
}

// ViewportDesc declares viewports and scissors. When the matching dynamic
// state is declared the arrays may be empty; only the counts are used.
type ViewportDesc struct {
	ViewportCount uint32
	ScissorCount  uint32
	Viewports     []Viewport
	Scissors      []ScissorRect
}

// RasterizationDesc declares the rasterizer state.
type RasterizationDesc struct {
	DepthClampEnable        bool
	RasterizerDiscardEnable bool
	FillMode                FillMode
	CullMode                gputypes.CullMode
	FrontFace               gputypes.FrontFace
	DepthBiasEnable         bool
	DepthBiasConstantFactor float32
	DepthBiasClamp          float32
	DepthBiasSlopeFactor    float32
	LineWidth               float32
	UserClipPlaneMask       uint32
}

// MultisampleDesc declares the multisampling state. A SampleMask of zero
// means all samples enabled.
type MultisampleDesc struct {
	RasterizationSamples  uint32
	SampleShadingEnable   bool
	MinSampleShading      float32
	SampleMask            uint32
	AlphaToCoverageEnable bool
}

// StencilFaceDesc declares one stencil face: the hardware op triple plus the
// draw-time reference and masks.
type StencilFaceDesc struct {
	Ops         hal.StencilFaceState
	Reference   uint32
	CompareMask uint32
	WriteMask   uint32
}

// DepthStencilDesc declares the depth and stencil tests.
type DepthStencilDesc struct {
	DepthTestEnable       bool
	DepthWriteEnable      bool
	DepthCompare          gputypes.CompareFunction
	DepthBoundsTestEnable bool
	StencilTestEnable     bool
	Front                 StencilFaceDesc
	Back                  StencilFaceDesc
	MinDepthBounds        float32
	MaxDepthBounds        float32
}

// LogicOp selects the framebuffer logical operation applied in place of
// blending when enabled.
type LogicOp uint8

const (
	LogicOpClear LogicOp = iota
	LogicOpAnd
	LogicOpAndReverse
	LogicOpCopy
	LogicOpAndInverted
	LogicOpNoOp
	LogicOpXor
	LogicOpOr
	LogicOpNor
	LogicOpEquivalent
	LogicOpInvert
	LogicOpOrReverse
	LogicOpCopyInverted
	LogicOpOrInverted
	LogicOpNand
	LogicOpSet
)

// BlendTargetDesc declares blending for one color target.
type BlendTargetDesc struct {
	BlendEnable    bool
	SrcColorFactor gputypes.BlendFactor
	DstColorFactor gputypes.BlendFactor
	ColorOp        gputypes.BlendOperation
	SrcAlphaFactor gputypes.BlendFactor
	DstAlphaFactor gputypes.BlendFactor
	AlphaOp        gputypes.BlendOperation
	WriteMask      gputypes.ColorWriteMask
}

// ColorBlendDesc declares per-target blending and the blend constants.
type ColorBlendDesc struct {
	LogicOpEnable  bool
	LogicOp        LogicOp
	Targets        []BlendTargetDesc
	BlendConstants [4]float32
}

// RenderTargetDesc declares the attachment formats and sample counts the
// pipeline renders to. Unused color slots hold gputypes.TextureFormatUndefined.
// Zero sample counts fall back along the chain coverage -> color -> depth.
type RenderTargetDesc struct {
	ColorFormats    [MaxColorTargets]gputypes.TextureFormat
	DepthFormat     gputypes.TextureFormat
	CoverageSamples uint32
	ColorSamples    uint32
	DepthSamples    uint32
	MultiviewEnable bool
}

// ExtensionKind tags an extension block. Unrecognized kinds are skipped.
type ExtensionKind uint32

const (
	ExtensionKindRasterizationOrder ExtensionKind = iota + 1
	ExtensionKindTessellationDomainOrigin
	ExtensionKindSampleLocations
)

// ExtensionBlock is one typed block in a description's extension chain.
// Each recognized kind may appear at most once.
type ExtensionBlock interface {
	ExtensionKind() ExtensionKind
}

// RasterizationOrderBlock relaxes the rasterization order guarantee.
type RasterizationOrderBlock struct {
	Relaxed bool
}

func (RasterizationOrderBlock) ExtensionKind() ExtensionKind {
	return ExtensionKindRasterizationOrder
}

// TessellationDomainOriginBlock flips the tessellation domain origin.
// LowerLeft switches the domain winding relative to the upper-left default.
type TessellationDomainOriginBlock struct {
	LowerLeft bool
}

func (TessellationDomainOriginBlock) ExtensionKind() ExtensionKind {
	return ExtensionKindTessellationDomainOrigin
}

// SampleLocationsBlock supplies custom sample locations. When Enable is set
// and the category is static, the pattern is baked into the pipeline.
type SampleLocationsBlock struct {
	Enable  bool
	Pattern SamplePattern
}

func (SampleLocationsBlock) ExtensionKind() ExtensionKind {
	return ExtensionKindSampleLocations
}

// GraphicsPipelineDesc is the full declarative description of a graphics
// pipeline. Optional fixed-function blocks are pointers; a nil block selects
// that block's documented defaults.
type GraphicsPipelineDesc struct {
	Stages        []ShaderStageDesc
	Layout        PipelineLayout
	VertexInput   *VertexInputDesc
	InputAssembly InputAssemblyDesc
	Tessellation  *TessellationDesc
	Viewport      *ViewportDesc
	Rasterization *RasterizationDesc
	Multisample   *MultisampleDesc
	DepthStencil  *DepthStencilDesc
	ColorBlend    *ColorBlendDesc
	DynamicStates []DynamicState
	Target        RenderTargetDesc
	Extensions    []ExtensionBlock

	// DisableOptimization requests a fast, unoptimized compile.
	DisableOptimization bool
}
