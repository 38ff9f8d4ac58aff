package gfxpipe

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Index written when primitive restart is enabled.
const primitiveRestartIndex = 0xFFFFFFFF

// Dual-source blend factors, numbered after the core WebGPU factor set.
// Pipelines using any of them compile with dual-source export enabled and
// are restricted to a single color target by the hardware.
const (
	BlendFactorSrc1 gputypes.BlendFactor = iota + 13
	BlendFactorOneMinusSrc1
	BlendFactorSrc1Alpha
	BlendFactorOneMinusSrc1Alpha
)

// renderParams is the baked fixed-function state a pipeline carries: one
// value struct per category plus the mask saying which of them are static.
type renderParams struct {
	inputAssembly   InputAssemblyParams
	triangleRaster  TriangleRasterParams
	pointLineRaster PointLineRasterParams
	depthBias       DepthBiasParams
	blendConst      BlendConstParams
	depthBounds     DepthBoundsParams
	viewport        ViewportParams
	scissor         ScissorParams
	samplePattern   SamplePattern
	stencil         StencilRefMasks
	staticMask      stateMask
}

// pipelineState is the parser's working state: the baked render parameters
// plus the accumulating hardware descriptions.
type pipelineState struct {
	renderParams

	dynamic [dynamicStateCount]bool

	hw           HardwareStateDesc
	msaa         MsaaStateDesc
	blend        ColorBlendStateDesc
	depthStencil DepthStencilStateDesc

	perSampleShading bool
	blendingEnabled  bool

	customSampleLocations bool
	customPattern         SamplePattern
}

// parseDescription normalizes a pipeline description into a pipelineState:
// every fixed-function decision resolved, static values baked, hardware
// descriptions filled in.
func parseDescription(d *Device, desc *GraphicsPipelineDesc) (*pipelineState, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil description", ErrInvalidDescription)
	}
	hasVertex := false
	for _, st := range desc.Stages {
		if st.Stage < 0 || st.Stage >= shaderStageCount {
			return nil, fmt.Errorf("%w: unknown shader stage %d", ErrInvalidDescription, st.Stage)
		}
		if st.Stage == ShaderStageVertex {
			hasVertex = true
		}
	}
	if !hasVertex {
		return nil, fmt.Errorf("%w: missing vertex stage", ErrInvalidDescription)
	}

	ps := &pipelineState{}
	// Hardware applies 1 as the increment/decrement operand unless told
	// otherwise.
	ps.stencil.FrontOpValue = defaultStencilOpValue
	ps.stencil.BackOpValue = defaultStencilOpValue

	// Dynamic state declarations. Values outside the recognized set are
	// skipped, not rejected.
	for _, s := range desc.DynamicStates {
		if s >= 0 && s < dynamicStateCount {
			ps.dynamic[s] = true
		}
	}

	if err := ps.parseExtensions(desc.Extensions); err != nil {
		return nil, err
	}
	ps.parseInputAssembly(desc)
	if err := ps.parseViewport(desc); err != nil {
		return nil, err
	}
	ps.parseRasterization(d, desc)
	if err := ps.resolveMultisample(desc); err != nil {
		return nil, err
	}
	ps.parseColorBlend(desc)
	ps.parseDepthStencil(desc)

	ps.hw.ViewInstancingEnable = desc.Target.MultiviewEnable
	ps.hw.Layout = desc.Layout
	if desc.VertexInput != nil {
		ps.hw.VertexBuffers = desc.VertexInput.Buffers
	}
	ps.hw.Raster = ps.triangleRaster
	ps.hw.DepthStencil = ps.depthStencil
	ps.hw.Blend = ps.blend
	ps.hw.SampleMask = ps.msaa.SampleMask
	return ps, nil
}

// parseExtensions walks the extension chain. Each recognized kind may appear
// at most once; unrecognized blocks are skipped.
func (ps *pipelineState) parseExtensions(blocks []ExtensionBlock) error {
	seen := make(map[ExtensionKind]bool)
	mark := func(k ExtensionKind) error {
		if seen[k] {
			return fmt.Errorf("%w: duplicate extension block kind %d", ErrInvalidDescription, k)
		}
		seen[k] = true
		return nil
	}
	for _, b := range blocks {
		switch blk := b.(type) {
		case RasterizationOrderBlock:
			if err := mark(blk.ExtensionKind()); err != nil {
				return err
			}
			ps.hw.RelaxedRasterOrder = blk.Relaxed
		case TessellationDomainOriginBlock:
			if err := mark(blk.ExtensionKind()); err != nil {
				return err
			}
			ps.hw.SwitchWinding = blk.LowerLeft
		case SampleLocationsBlock:
			if err := mark(blk.ExtensionKind()); err != nil {
				return err
			}
			ps.customSampleLocations = blk.Enable
			ps.customPattern = blk.Pattern
		default:
			// Unknown kinds are skipped so descriptions built against a
			// newer block set still parse.
		}
	}
	return nil
}

func (ps *pipelineState) parseInputAssembly(desc *GraphicsPipelineDesc) {
	ia := desc.InputAssembly
	ps.inputAssembly = InputAssemblyParams{
		Topology:      ia.Topology,
		Adjacency:     ia.Adjacency,
		RestartEnable: ia.RestartEnable,
	}
	if ia.RestartEnable {
		ps.inputAssembly.RestartIndex = primitiveRestartIndex
	}
	ps.hw.Topology = ia.Topology
	ps.hw.Adjacency = ia.Adjacency
	if desc.Tessellation != nil {
		ps.hw.PrimitiveType = PrimitiveTypePatch
		ps.hw.PatchControlPoints = desc.Tessellation.PatchControlPoints
	} else {
		ps.hw.PrimitiveType = primitiveType(ia.Topology)
	}
}

func primitiveType(t gputypes.PrimitiveTopology) PrimitiveType {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return PrimitiveTypePoint
	case gputypes.PrimitiveTopologyLineList, gputypes.PrimitiveTopologyLineStrip:
		return PrimitiveTypeLine
	default:
		return PrimitiveTypeTriangle
	}
}

// parseViewport bakes the viewport and scissor arrays. Counts are always
// carried, even when the values are dynamic: the binder diffs counts
// separately from values.
func (ps *pipelineState) parseViewport(desc *GraphicsPipelineDesc) error {
	vp := desc.Viewport
	if vp == nil {
		return nil
	}
	if vp.ViewportCount > MaxViewports || vp.ScissorCount > MaxViewports {
		return fmt.Errorf("%w: viewport count %d exceeds limit %d",
			ErrInvalidDescription, max(vp.ViewportCount, vp.ScissorCount), MaxViewports)
	}
	ps.viewport.Count = vp.ViewportCount
	ps.scissor.Count = vp.ScissorCount

	if !ps.dynamic[DynamicStateViewport] {
		if uint32(len(vp.Viewports)) < vp.ViewportCount {
			return fmt.Errorf("%w: %d viewports declared, %d provided",
				ErrInvalidDescription, vp.ViewportCount, len(vp.Viewports))
		}
		for i := uint32(0); i < vp.ViewportCount; i++ {
			ps.viewport.Viewports[i] = vp.Viewports[i]
		}
		ps.staticMask.set(DynamicStateViewport)
	}
	if !ps.dynamic[DynamicStateScissor] {
		if uint32(len(vp.Scissors)) < vp.ScissorCount {
			return fmt.Errorf("%w: %d scissors declared, %d provided",
				ErrInvalidDescription, vp.ScissorCount, len(vp.Scissors))
		}
		for i := uint32(0); i < vp.ScissorCount; i++ {
			ps.scissor.Rects[i] = vp.Scissors[i]
		}
		ps.staticMask.set(DynamicStateScissor)
	}
	return nil
}

func (ps *pipelineState) parseRasterization(d *Device, desc *GraphicsPipelineDesc) {
	rs := desc.Rasterization
	if rs == nil {
		// A description with no rasterizer block renders nothing.
		rs = &RasterizationDesc{
			RasterizerDiscardEnable: true,
			CullMode:                gputypes.CullModeNone,
			LineWidth:               1,
		}
	}

	ps.hw.DepthClipEnable = !rs.DepthClampEnable
	ps.hw.RasterizerDiscardEnable = rs.RasterizerDiscardEnable
	ps.hw.UserClipPlaneMask = rs.UserClipPlaneMask

	ps.triangleRaster = TriangleRasterParams{
		FillMode:        rs.FillMode,
		CullMode:        rs.CullMode,
		FrontFace:       rs.FrontFace,
		DepthBiasEnable: rs.DepthBiasEnable,
	}

	// Depth bias values are baked only when biasing is both enabled and
	// static; a disabled or dynamic bias leaves the category draw-supplied.
	if rs.DepthBiasEnable && !ps.dynamic[DynamicStateDepthBias] {
		ps.depthBias = DepthBiasParams{
			ConstantFactor: rs.DepthBiasConstantFactor,
			Clamp:          rs.DepthBiasClamp,
			SlopeFactor:    rs.DepthBiasSlopeFactor,
		}
		ps.staticMask.set(DynamicStateDepthBias)
	}

	ps.pointLineRaster = PointLineRasterParams{
		LineWidth:    rs.LineWidth,
		PointSize:    defaultPointSize,
		PointSizeMin: d.limits.PointSizeMin,
		PointSizeMax: d.limits.PointSizeMax,
	}
	if ps.pointLineRaster.LineWidth == 0 {
		ps.pointLineRaster.LineWidth = 1
	}
	if !ps.dynamic[DynamicStateLineWidth] {
		ps.staticMask.set(DynamicStateLineWidth)
	}
}

const defaultPointSize = 1.0

func (ps *pipelineState) parseColorBlend(desc *GraphicsPipelineDesc) {
	cb := desc.ColorBlend
	for i := 0; i < MaxColorTargets; i++ {
		format := desc.Target.ColorFormats[i]
		ht := &ps.hw.Targets[i]
		ht.Format = format
		if format == gputypes.TextureFormatUndefined {
			continue
		}
		ht.WriteMask = gputypes.ColorWriteMaskAll
		if cb == nil || i >= len(cb.Targets) {
			continue
		}
		t := cb.Targets[i]
		ht.WriteMask = t.WriteMask
		ht.BlendEnable = t.BlendEnable
		ps.blend.Targets[i] = BlendTargetParams{
			BlendEnable: t.BlendEnable,
			SrcColor:    t.SrcColorFactor,
			DstColor:    t.DstColorFactor,
			ColorOp:     t.ColorOp,
			SrcAlpha:    t.SrcAlphaFactor,
			DstAlpha:    t.DstAlphaFactor,
			AlphaOp:     t.AlphaOp,
		}
		if t.BlendEnable {
			ps.blendingEnabled = true
			ht.BlendSrcAlphaToColor = blendFactorReadsSrcAlpha(t.SrcColorFactor) ||
				blendFactorReadsSrcAlpha(t.DstColorFactor)
			if blendFactorReadsSrc1(t.SrcColorFactor) || blendFactorReadsSrc1(t.DstColorFactor) ||
				blendFactorReadsSrc1(t.SrcAlphaFactor) || blendFactorReadsSrc1(t.DstAlphaFactor) {
				ps.hw.DualSourceBlend = true
			}
		}
	}
	if cb != nil {
		ps.hw.LogicOpEnable = cb.LogicOpEnable
		ps.hw.LogicOp = cb.LogicOp
		// Blend constants matter only if some target actually blends.
		if ps.blendingEnabled && !ps.dynamic[DynamicStateBlendConstants] {
			ps.blendConst = BlendConstParams{Color: cb.BlendConstants}
			ps.staticMask.set(DynamicStateBlendConstants)
		}
	}
}

func blendFactorReadsSrcAlpha(f gputypes.BlendFactor) bool {
	switch f {
	case gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha,
		BlendFactorSrc1Alpha, BlendFactorOneMinusSrc1Alpha:
		return true
	default:
		return false
	}
}

func blendFactorReadsSrc1(f gputypes.BlendFactor) bool {
	switch f {
	case BlendFactorSrc1, BlendFactorOneMinusSrc1,
		BlendFactorSrc1Alpha, BlendFactorOneMinusSrc1Alpha:
		return true
	default:
		return false
	}
}

// parseDepthStencil fills the depth/stencil hardware description and the
// draw-time stencil values. The whole block is inert without a depth
// attachment.
func (ps *pipelineState) parseDepthStencil(desc *GraphicsPipelineDesc) {
	ps.hw.DepthFormat = desc.Target.DepthFormat
	ds := desc.DepthStencil
	if ds == nil || desc.Target.DepthFormat == gputypes.TextureFormatUndefined {
		return
	}

	ps.depthStencil = DepthStencilStateDesc{
		DepthEnable:       ds.DepthTestEnable,
		DepthWriteEnable:  ds.DepthWriteEnable,
		DepthFunc:         ds.DepthCompare,
		DepthBoundsEnable: ds.DepthBoundsTestEnable,
		StencilEnable:     ds.StencilTestEnable,
		Front:             ds.Front.Ops,
		Back:              ds.Back.Ops,
	}

	if ds.DepthBoundsTestEnable && !ps.dynamic[DynamicStateDepthBounds] {
		ps.depthBounds = DepthBoundsParams{Min: ds.MinDepthBounds, Max: ds.MaxDepthBounds}
		ps.staticMask.set(DynamicStateDepthBounds)
	}

	if !ps.dynamic[DynamicStateStencilReference] {
		ps.stencil.FrontRef = uint8(ds.Front.Reference)
		ps.stencil.BackRef = uint8(ds.Back.Reference)
		ps.staticMask.set(DynamicStateStencilReference)
	}
	if !ps.dynamic[DynamicStateStencilCompareMask] {
		ps.stencil.FrontReadMask = uint8(ds.Front.CompareMask)
		ps.stencil.BackReadMask = uint8(ds.Back.CompareMask)
		ps.staticMask.set(DynamicStateStencilCompareMask)
	}
	if !ps.dynamic[DynamicStateStencilWriteMask] {
		ps.stencil.FrontWriteMask = uint8(ds.Front.WriteMask)
		ps.stencil.BackWriteMask = uint8(ds.Back.WriteMask)
		ps.staticMask.set(DynamicStateStencilWriteMask)
	}
}

const defaultStencilOpValue = 1
