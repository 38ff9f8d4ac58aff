package gfxpipe

import (
	"sync/atomic"

	"github.com/gogpu/gfxpipe/statecache"
)

// staticTokens holds one state token per value category. The dynamic
// sentinel marks categories whose values arrive at draw time.
type staticTokens struct {
	inputAssembly   statecache.Token
	triangleRaster  statecache.Token
	pointLineRaster statecache.Token
	depthBias       statecache.Token
	blendConst      statecache.Token
	depthBounds     statecache.Token
	viewport        statecache.Token
	scissor         statecache.Token
	samplePattern   statecache.Token
}

// Pipeline is a compiled graphics pipeline replicated across a device
// group. It owns one hardware pipeline object per device, shared hardware
// state objects, and the tokens for its baked state.
type Pipeline struct {
	device *Device

	handles []PipelineHandle
	arena   []byte
	binary  CompiledBinary

	state  renderParams
	tokens staticTokens

	msaaDesc         MsaaStateDesc
	blendDesc        ColorBlendStateDesc
	depthStencilDesc DepthStencilStateDesc
	msaaHandles      []StateHandle
	blendHandles     []StateHandle
	dsHandles        []StateHandle

	hash            uint64
	coverageSamples uint32

	destroyed atomic.Bool
}

// ContentHash identifies the pipeline by its compiled binary and resolved
// fixed-function state. Equal hashes mean hardware-identical pipelines.
func (p *Pipeline) ContentHash() uint64 { return p.hash }

// CoverageSamples reports the resolved coverage sample count.
func (p *Pipeline) CoverageSamples() uint32 { return p.coverageSamples }

// Binary returns the compiled hardware binary.
func (p *Pipeline) Binary() CompiledBinary { return p.binary }

// Handle returns the hardware pipeline object for one device.
func (p *Pipeline) Handle(deviceIndex int) PipelineHandle {
	return p.handles[deviceIndex]
}

// setsState reports whether the pipeline bakes the given category.
func (p *Pipeline) setsState(s DynamicState) bool {
	return p.state.staticMask.has(s)
}

// acquireStaticTokens resolves every baked category to a cache token.
// Input assembly and triangle raster state are always baked; the remaining
// categories follow the static-state mask, with the dynamic sentinel for
// draw-supplied ones.
func (p *Pipeline) acquireStaticTokens() {
	c := p.device.cache
	p.tokens.inputAssembly = c.CreateInputAssemblyState(p.state.inputAssembly)
	p.tokens.triangleRaster = c.CreateTriangleRasterState(p.state.triangleRaster)

	if p.setsState(DynamicStateLineWidth) {
		p.tokens.pointLineRaster = c.CreatePointLineRasterState(p.state.pointLineRaster)
	}
	if p.setsState(DynamicStateDepthBias) {
		p.tokens.depthBias = c.CreateDepthBiasState(p.state.depthBias)
	}
	if p.setsState(DynamicStateBlendConstants) {
		p.tokens.blendConst = c.CreateBlendConstState(p.state.blendConst)
	}
	if p.setsState(DynamicStateDepthBounds) {
		p.tokens.depthBounds = c.CreateDepthBoundsState(p.state.depthBounds)
	}
	if p.setsState(DynamicStateViewport) {
		p.tokens.viewport = c.CreateViewportState(p.state.viewport)
	}
	if p.setsState(DynamicStateScissor) {
		p.tokens.scissor = c.CreateScissorState(p.state.scissor)
	}
	if p.setsState(DynamicStateSampleLocations) {
		p.tokens.samplePattern = c.CreateSamplePatternState(p.state.samplePattern)
	}
}

func (p *Pipeline) releaseStaticTokens() {
	c := p.device.cache
	c.DestroyInputAssemblyState(p.state.inputAssembly, p.tokens.inputAssembly)
	c.DestroyTriangleRasterState(p.state.triangleRaster, p.tokens.triangleRaster)
	c.DestroyPointLineRasterState(p.state.pointLineRaster, p.tokens.pointLineRaster)
	c.DestroyDepthBiasState(p.state.depthBias, p.tokens.depthBias)
	c.DestroyBlendConstState(p.state.blendConst, p.tokens.blendConst)
	c.DestroyDepthBoundsState(p.state.depthBounds, p.tokens.depthBounds)
	c.DestroyViewportState(p.state.viewport, p.tokens.viewport)
	c.DestroyScissorState(p.state.scissor, p.tokens.scissor)
	c.DestroySamplePatternState(p.state.samplePattern, p.tokens.samplePattern)
}

// Destroy releases the pipeline's hardware objects, shared state objects,
// and state tokens. Safe to call more than once.
func (p *Pipeline) Destroy() {
	if !p.destroyed.CompareAndSwap(false, true) {
		return
	}
	for i, enc := range p.device.encoders {
		enc.DestroyPipeline(p.handles[i])
	}
	c := p.device.cache
	c.DestroyMsaaState(p.msaaDesc)
	c.DestroyColorBlendState(p.blendDesc)
	c.DestroyDepthStencilState(p.depthStencilDesc)
	p.releaseStaticTokens()
	p.arena = nil
	Logger().Debug("pipeline destroyed", "hash", p.hash)
}
