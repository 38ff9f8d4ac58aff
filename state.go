package gfxpipe

import (
	"github.com/gogpu/gputypes"
)

// Device-group and fixed-function limits.
const (
	// MaxDeviceGroupSize is the maximum number of accelerators a Device may
	// span. Pipeline creation replicates hardware objects across all of them.
	MaxDeviceGroupSize = 8

	// MaxViewports is the maximum number of simultaneous viewports and
	// scissor rectangles.
	MaxViewports = 16

	// MaxColorTargets is the maximum number of color attachments a pipeline
	// may write.
	MaxColorTargets = 8

	// MaxMsaaSamples is the maximum rasterization sample count.
	MaxMsaaSamples = 16
)

// DynamicState names a fixed-function state category that a pipeline
// description may mark as draw-time-supplied instead of baked at creation.
type DynamicState int

// Core dynamic states. Their ordinal values index the static-state mask.
const (
	DynamicStateViewport DynamicState = iota
	DynamicStateScissor
	DynamicStateLineWidth
	DynamicStateDepthBias
	DynamicStateBlendConstants
	DynamicStateDepthBounds
	DynamicStateStencilCompareMask
	DynamicStateStencilWriteMask
	DynamicStateStencilReference

	// Extended dynamic states follow the core set.
	DynamicStateSampleLocations

	dynamicStateCount
)

func (s DynamicState) String() string {
	switch s {
	case DynamicStateViewport:
		return "Viewport"
	case DynamicStateScissor:
		return "Scissor"
	case DynamicStateLineWidth:
		return "LineWidth"
	case DynamicStateDepthBias:
		return "DepthBias"
	case DynamicStateBlendConstants:
		return "BlendConstants"
	case DynamicStateDepthBounds:
		return "DepthBounds"
	case DynamicStateStencilCompareMask:
		return "StencilCompareMask"
	case DynamicStateStencilWriteMask:
		return "StencilWriteMask"
	case DynamicStateStencilReference:
		return "StencilReference"
	case DynamicStateSampleLocations:
		return "SampleLocations"
	default:
		return "Unknown"
	}
}

// stateMask is a bitset over DynamicState ordinals. A set bit means the
// category is static: its value is baked into the pipeline.
type stateMask uint32

func (m *stateMask) set(s DynamicState)    { *m |= 1 << uint(s) }
func (m stateMask) has(s DynamicState) bool { return m&(1<<uint(s)) != 0 }

// FillMode selects the triangle rasterization mode.
type FillMode uint8

const (
	FillModeSolid FillMode = iota
	FillModeWireframe
	FillModePoint
)

// PrimitiveType is the coarse primitive class derived from the declared
// topology. Patch primitives are selected by the presence of tessellation.
type PrimitiveType uint8

const (
	PrimitiveTypePoint PrimitiveType = iota
	PrimitiveTypeLine
	PrimitiveTypeTriangle
	PrimitiveTypePatch
)

// The value-parameter structs below describe one fixed-function state
// category each. All of them are comparable: they key the token caches and
// the bind-time redundancy filter, so equality must be structural and cheap.

// InputAssemblyParams carries the primitive assembly state.
type InputAssemblyParams struct {
	Topology      gputypes.PrimitiveTopology
	Adjacency     bool
	RestartEnable bool
	RestartIndex  uint32
}

// TriangleRasterParams carries the triangle rasterization state.
type TriangleRasterParams struct {
	FillMode        FillMode
	CullMode        gputypes.CullMode
	FrontFace       gputypes.FrontFace
	DepthBiasEnable bool
}

// PointLineRasterParams carries point size and line width. PointSizeMin and
// PointSizeMax clamp shader-exported point sizes to the device range.
type PointLineRasterParams struct {
	LineWidth    float32
	PointSize    float32
	PointSizeMin float32
	PointSizeMax float32
}

// DepthBiasParams carries the polygon offset state.
type DepthBiasParams struct {
	ConstantFactor float32
	Clamp          float32
	SlopeFactor    float32
}

// BlendConstParams carries the four blend constant components (RGBA).
type BlendConstParams struct {
	Color [4]float32
}

// DepthBoundsParams carries the depth bounds test range.
type DepthBoundsParams struct {
	Min float32
	Max float32
}

// Viewport is one viewport transform.
type Viewport struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

// ViewportParams carries the full viewport array. Count is authoritative;
// entries past Count are zero so equal viewport sets compare equal.
type ViewportParams struct {
	Count     uint32
	Viewports [MaxViewports]Viewport
}

// ScissorRect is one scissor rectangle.
type ScissorRect struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// ScissorParams carries the full scissor array, mirroring ViewportParams.
type ScissorParams struct {
	Count uint32
	Rects [MaxViewports]ScissorRect
}

// SamplePos is one sample location within a pixel, in units of pixels
// relative to the pixel center. Valid coordinates lie in [-0.5, 0.5).
type SamplePos struct {
	X float32
	Y float32
}

// QuadSamplePattern holds per-sample locations for each pixel of a 2x2 quad.
type QuadSamplePattern [4][MaxMsaaSamples]SamplePos

// SamplePattern carries the sample locations for one rasterization sample
// count. Entries past SampleCount are zero.
type SamplePattern struct {
	SampleCount uint32
	Locations   QuadSamplePattern
}

// StencilRefMasks carries the per-face stencil reference, compare mask,
// write mask, and stencil op value. The op value is the operand applied by
// increment/decrement stencil ops; hardware defaults it to 1.
type StencilRefMasks struct {
	FrontRef       uint8
	FrontReadMask  uint8
	FrontWriteMask uint8
	FrontOpValue   uint8
	BackRef        uint8
	BackReadMask   uint8
	BackWriteMask  uint8
	BackOpValue    uint8
}
