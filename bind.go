package gfxpipe

import "github.com/gogpu/gfxpipe/statecache"

// RenderState is the command buffer's view of currently bound
// fixed-function state: the last-emitted viewport and scissor values, the
// bound pipeline identity, and one token per value category for redundancy
// filtering. The zero value is ready to use at the start of a recording.
type RenderState struct {
	Viewport ViewportParams
	Scissor  ScissorParams

	tokens    staticTokens
	boundHash uint64
	hasBound  bool
}

// Reset returns the render state to its start-of-recording condition.
func (rs *RenderState) Reset() {
	*rs = RenderState{}
}

// staticStateDifferent reports whether a pipeline's static token requires an
// emit: the category must be baked (not the dynamic sentinel) and differ
// from what the command buffer last wrote.
func staticStateDifferent(old, next statecache.Token) bool {
	return next != statecache.Dynamic && next != old
}

// forEachDevice invokes fn for every device selected by the mask.
func forEachDevice(mask uint32, fn func(deviceIndex int)) {
	for i := 0; mask != 0; i, mask = i+1, mask>>1 {
		if mask&1 != 0 {
			fn(i)
		}
	}
}

// The dynamic-state setters mirror draw-time state commands: they emit to
// every active sub-stream, update the render state, and invalidate the
// matching static token so the next static pipeline re-emits its value.

// SetViewports sets draw-time viewports.
func (rs *RenderState) SetViewports(cs CommandStream, p ViewportParams) {
	rs.Viewport = p
	rs.tokens.viewport = statecache.Dynamic
	forEachDevice(cs.DeviceMask(), func(i int) { cs.SubStream(i).SetViewports(p) })
}

// SetScissors sets draw-time scissor rectangles.
func (rs *RenderState) SetScissors(cs CommandStream, p ScissorParams) {
	rs.Scissor = p
	rs.tokens.scissor = statecache.Dynamic
	forEachDevice(cs.DeviceMask(), func(i int) { cs.SubStream(i).SetScissors(p) })
}

// SetPointLineRaster sets the draw-time line width state.
func (rs *RenderState) SetPointLineRaster(cs CommandStream, p PointLineRasterParams) {
	rs.tokens.pointLineRaster = statecache.Dynamic
	forEachDevice(cs.DeviceMask(), func(i int) { cs.SubStream(i).SetPointLineRaster(p) })
}

// SetDepthBias sets the draw-time depth bias.
func (rs *RenderState) SetDepthBias(cs CommandStream, p DepthBiasParams) {
	rs.tokens.depthBias = statecache.Dynamic
	forEachDevice(cs.DeviceMask(), func(i int) { cs.SubStream(i).SetDepthBias(p) })
}

// SetBlendConst sets the draw-time blend constants.
func (rs *RenderState) SetBlendConst(cs CommandStream, p BlendConstParams) {
	rs.tokens.blendConst = statecache.Dynamic
	forEachDevice(cs.DeviceMask(), func(i int) { cs.SubStream(i).SetBlendConst(p) })
}

// SetDepthBounds sets the draw-time depth bounds range.
func (rs *RenderState) SetDepthBounds(cs CommandStream, p DepthBoundsParams) {
	rs.tokens.depthBounds = statecache.Dynamic
	forEachDevice(cs.DeviceMask(), func(i int) { cs.SubStream(i).SetDepthBounds(p) })
}

// SetSamplePattern sets the draw-time sample locations.
func (rs *RenderState) SetSamplePattern(cs CommandStream, p SamplePattern) {
	rs.tokens.samplePattern = statecache.Dynamic
	forEachDevice(cs.DeviceMask(), func(i int) { cs.SubStream(i).SetSamplePattern(p) })
}

// BindToCmdBuffer binds the pipeline's state to a recording command stream,
// emitting only the state that differs from what the stream last saw.
func (p *Pipeline) BindToCmdBuffer(cs CommandStream, rs *RenderState, sc *StencilCombiner) {
	p.BindToCmdBufferWithTuning(cs, rs, sc, ShaderTuning{})
}

// BindToCmdBufferWithTuning binds with explicit shader execution hints.
func (p *Pipeline) BindToCmdBufferWithTuning(cs CommandStream, rs *RenderState, sc *StencilCombiner, tuning ShaderTuning) {
	// If the viewport or scissor count changed, the current values must be
	// resent even when the per-value tokens match.
	viewportCountDirty := rs.Viewport.Count != p.state.viewport.Count
	scissorCountDirty := rs.Scissor.Count != p.state.scissor.Count
	rs.Viewport.Count = p.state.viewport.Count
	rs.Scissor.Count = p.state.scissor.Count

	// Old tokens are copied by value: the loop below updates the live set.
	oldTokens := rs.tokens
	newTokens := p.tokens
	mask := cs.DeviceMask()

	// Viewports and scissors broadcast to every device at once.
	if p.setsState(DynamicStateViewport) && staticStateDifferent(oldTokens.viewport, newTokens.viewport) {
		forEachDevice(mask, func(i int) { cs.SubStream(i).SetViewports(p.state.viewport) })
		rs.Viewport = p.state.viewport
		rs.tokens.viewport = newTokens.viewport
		viewportCountDirty = false
	}
	if p.setsState(DynamicStateScissor) && staticStateDifferent(oldTokens.scissor, newTokens.scissor) {
		forEachDevice(mask, func(i int) { cs.SubStream(i).SetScissors(p.state.scissor) })
		rs.Scissor = p.state.scissor
		rs.tokens.scissor = newTokens.scissor
		scissorCountDirty = false
	}

	forEachDevice(mask, func(i int) {
		ss := cs.SubStream(i)

		// Pipeline identity is the content hash, not the object: two
		// pipelines with equal hashes program identical hardware state.
		if !rs.hasBound || rs.boundHash != p.hash {
			ss.BindPipeline(p.handles[i], tuning)
		}

		// State objects are always bound; sub-streams redundancy-check
		// them by handle.
		ss.BindDepthStencilState(p.dsHandles[i])
		ss.BindColorBlendState(p.blendHandles[i])
		ss.BindMsaaState(p.msaaHandles[i])

		if staticStateDifferent(oldTokens.inputAssembly, newTokens.inputAssembly) {
			ss.SetInputAssembly(p.state.inputAssembly)
			rs.tokens.inputAssembly = newTokens.inputAssembly
		}
		if staticStateDifferent(oldTokens.triangleRaster, newTokens.triangleRaster) {
			ss.SetTriangleRaster(p.state.triangleRaster)
			rs.tokens.triangleRaster = newTokens.triangleRaster
		}
		if p.setsState(DynamicStateLineWidth) &&
			staticStateDifferent(oldTokens.pointLineRaster, newTokens.pointLineRaster) {
			ss.SetPointLineRaster(p.state.pointLineRaster)
			rs.tokens.pointLineRaster = newTokens.pointLineRaster
		}
		if p.setsState(DynamicStateDepthBias) &&
			staticStateDifferent(oldTokens.depthBias, newTokens.depthBias) {
			ss.SetDepthBias(p.state.depthBias)
			rs.tokens.depthBias = newTokens.depthBias
		}
		if p.setsState(DynamicStateBlendConstants) &&
			staticStateDifferent(oldTokens.blendConst, newTokens.blendConst) {
			ss.SetBlendConst(p.state.blendConst)
			rs.tokens.blendConst = newTokens.blendConst
		}
		if p.setsState(DynamicStateDepthBounds) &&
			staticStateDifferent(oldTokens.depthBounds, newTokens.depthBounds) {
			ss.SetDepthBounds(p.state.depthBounds)
			rs.tokens.depthBounds = newTokens.depthBounds
		}
		if p.setsState(DynamicStateSampleLocations) &&
			staticStateDifferent(oldTokens.samplePattern, newTokens.samplePattern) {
			ss.SetSamplePattern(p.state.samplePattern)
			rs.tokens.samplePattern = newTokens.samplePattern
		}

		// Reprogram previous viewport/scissor values under a count change
		// the static state above did not already cover. Tokens stay
		// untouched: only the old values are being resent.
		if viewportCountDirty {
			ss.SetViewports(rs.Viewport)
		}
		if scissorCountDirty {
			ss.SetScissors(rs.Scissor)
		}
	})

	rs.boundHash = p.hash
	rs.hasBound = true

	// Stencil state funnels through the combiner, which redundancy-checks
	// full values instead of tokens. The op value always inherits the
	// pipeline's default.
	sc.Set(StencilFrontOpValue, p.state.stencil.FrontOpValue)
	sc.Set(StencilBackOpValue, p.state.stencil.BackOpValue)

	stencilStatic := p.setsState(DynamicStateStencilCompareMask) ||
		p.setsState(DynamicStateStencilWriteMask) ||
		p.setsState(DynamicStateStencilReference)
	if stencilStatic {
		if p.setsState(DynamicStateStencilCompareMask) {
			sc.Set(StencilFrontReadMask, p.state.stencil.FrontReadMask)
			sc.Set(StencilBackReadMask, p.state.stencil.BackReadMask)
		}
		if p.setsState(DynamicStateStencilWriteMask) {
			sc.Set(StencilFrontWriteMask, p.state.stencil.FrontWriteMask)
			sc.Set(StencilBackWriteMask, p.state.stencil.BackWriteMask)
		}
		if p.setsState(DynamicStateStencilReference) {
			sc.Set(StencilFrontRef, p.state.stencil.FrontRef)
			sc.Set(StencilBackRef, p.state.stencil.BackRef)
		}
		sc.Flush(cs)
	}
}

// BindNullPipeline unbinds the graphics pipeline and its companion state
// objects on every device of the group, regardless of the stream's device
// mask.
func (d *Device) BindNullPipeline(cs CommandStream) {
	for i := range d.encoders {
		ss := cs.SubStream(i)
		ss.BindPipeline(nil, ShaderTuning{})
		ss.BindMsaaState(nil)
		ss.BindColorBlendState(nil)
		ss.BindDepthStencilState(nil)
	}
}
