package gfxpipe

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxpipe/statecache"
)

// objectBundle is one refcounted set of per-device hardware state objects.
type objectBundle struct {
	handles []StateHandle
	refs    int
}

// objectCache deduplicates hardware state objects by description. Equal
// descriptions share one bundle of per-device handles.
type objectCache[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*objectBundle
}

func newObjectCache[K comparable]() *objectCache[K] {
	return &objectCache[K]{entries: make(map[K]*objectBundle)}
}

// acquire returns the shared handles for key, creating them on every
// encoder on first use. Creation is all-or-nothing: a failure on device i
// destroys the objects already created on devices 0..i-1.
func (c *objectCache[K]) acquire(
	d *Device,
	key K,
	create func(DeviceEncoder, *K) (StateHandle, error),
	destroy func(DeviceEncoder, StateHandle),
) ([]StateHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.entries[key]; ok {
		b.refs++
		return b.handles, nil
	}
	handles := make([]StateHandle, len(d.encoders))
	for i, enc := range d.encoders {
		h, err := create(enc, &key)
		if err != nil {
			for j := 0; j < i; j++ {
				destroy(d.encoders[j], handles[j])
			}
			return nil, fmt.Errorf("%w: device %d: %w", ErrHardwareObjectCreation, i, err)
		}
		handles[i] = h
	}
	c.entries[key] = &objectBundle{handles: handles, refs: 1}
	return handles, nil
}

// release drops one reference and destroys the bundle on every encoder when
// the last reference goes away. Unknown keys are ignored.
func (c *objectCache[K]) release(d *Device, key K, destroy func(DeviceEncoder, StateHandle)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return
	}
	b.refs--
	if b.refs > 0 {
		return
	}
	delete(c.entries, key)
	for i, enc := range d.encoders {
		destroy(enc, b.handles[i])
	}
}

func (c *objectCache[K]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RenderStateCache deduplicates baked fixed-function state across all
// pipelines of a device. Value categories map to reference-counted tokens;
// hardware state objects (MSAA, color blend, depth/stencil) map to shared
// per-device object bundles.
type RenderStateCache struct {
	device *Device

	inputAssembly   *statecache.Cache[InputAssemblyParams]
	triangleRaster  *statecache.Cache[TriangleRasterParams]
	pointLineRaster *statecache.Cache[PointLineRasterParams]
	depthBias       *statecache.Cache[DepthBiasParams]
	blendConst      *statecache.Cache[BlendConstParams]
	depthBounds     *statecache.Cache[DepthBoundsParams]
	viewport        *statecache.Cache[ViewportParams]
	scissor         *statecache.Cache[ScissorParams]
	samplePattern   *statecache.Cache[SamplePattern]

	msaa         *objectCache[MsaaStateDesc]
	colorBlend   *objectCache[ColorBlendStateDesc]
	depthStencil *objectCache[DepthStencilStateDesc]
}

func newRenderStateCache(d *Device) *RenderStateCache {
	return &RenderStateCache{
		device:          d,
		inputAssembly:   statecache.New[InputAssemblyParams](),
		triangleRaster:  statecache.New[TriangleRasterParams](),
		pointLineRaster: statecache.New[PointLineRasterParams](),
		depthBias:       statecache.New[DepthBiasParams](),
		blendConst:      statecache.New[BlendConstParams](),
		depthBounds:     statecache.New[DepthBoundsParams](),
		viewport:        statecache.New[ViewportParams](),
		scissor:         statecache.New[ScissorParams](),
		samplePattern:   statecache.New[SamplePattern](),
		msaa:            newObjectCache[MsaaStateDesc](),
		colorBlend:      newObjectCache[ColorBlendStateDesc](),
		depthStencil:    newObjectCache[DepthStencilStateDesc](),
	}
}

// Token acquisition, one pair per value category. Destroy with the dynamic
// sentinel is a no-op so callers can release unconditionally.

func (c *RenderStateCache) CreateInputAssemblyState(p InputAssemblyParams) statecache.Token {
	return c.inputAssembly.Acquire(p)
}

func (c *RenderStateCache) DestroyInputAssemblyState(p InputAssemblyParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.inputAssembly.Release(p)
	}
}

func (c *RenderStateCache) CreateTriangleRasterState(p TriangleRasterParams) statecache.Token {
	return c.triangleRaster.Acquire(p)
}

func (c *RenderStateCache) DestroyTriangleRasterState(p TriangleRasterParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.triangleRaster.Release(p)
	}
}

func (c *RenderStateCache) CreatePointLineRasterState(p PointLineRasterParams) statecache.Token {
	return c.pointLineRaster.Acquire(p)
}

func (c *RenderStateCache) DestroyPointLineRasterState(p PointLineRasterParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.pointLineRaster.Release(p)
	}
}

func (c *RenderStateCache) CreateDepthBiasState(p DepthBiasParams) statecache.Token {
	return c.depthBias.Acquire(p)
}

func (c *RenderStateCache) DestroyDepthBiasState(p DepthBiasParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.depthBias.Release(p)
	}
}

func (c *RenderStateCache) CreateBlendConstState(p BlendConstParams) statecache.Token {
	return c.blendConst.Acquire(p)
}

func (c *RenderStateCache) DestroyBlendConstState(p BlendConstParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.blendConst.Release(p)
	}
}

func (c *RenderStateCache) CreateDepthBoundsState(p DepthBoundsParams) statecache.Token {
	return c.depthBounds.Acquire(p)
}

func (c *RenderStateCache) DestroyDepthBoundsState(p DepthBoundsParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.depthBounds.Release(p)
	}
}

func (c *RenderStateCache) CreateViewportState(p ViewportParams) statecache.Token {
	return c.viewport.Acquire(p)
}

func (c *RenderStateCache) DestroyViewportState(p ViewportParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.viewport.Release(p)
	}
}

func (c *RenderStateCache) CreateScissorState(p ScissorParams) statecache.Token {
	return c.scissor.Acquire(p)
}

func (c *RenderStateCache) DestroyScissorState(p ScissorParams, t statecache.Token) {
	if t != statecache.Dynamic {
		c.scissor.Release(p)
	}
}

func (c *RenderStateCache) CreateSamplePatternState(p SamplePattern) statecache.Token {
	return c.samplePattern.Acquire(p)
}

func (c *RenderStateCache) DestroySamplePatternState(p SamplePattern, t statecache.Token) {
	if t != statecache.Dynamic {
		c.samplePattern.Release(p)
	}
}

// Hardware state object sharing.

func (c *RenderStateCache) CreateMsaaState(desc MsaaStateDesc) ([]StateHandle, error) {
	return c.msaa.acquire(c.device, desc,
		func(enc DeviceEncoder, k *MsaaStateDesc) (StateHandle, error) { return enc.CreateMsaaState(k) },
		DeviceEncoder.DestroyMsaaState)
}

func (c *RenderStateCache) DestroyMsaaState(desc MsaaStateDesc) {
	c.msaa.release(c.device, desc, DeviceEncoder.DestroyMsaaState)
}

func (c *RenderStateCache) CreateColorBlendState(desc ColorBlendStateDesc) ([]StateHandle, error) {
	return c.colorBlend.acquire(c.device, desc,
		func(enc DeviceEncoder, k *ColorBlendStateDesc) (StateHandle, error) {
			return enc.CreateColorBlendState(k)
		},
		DeviceEncoder.DestroyColorBlendState)
}

func (c *RenderStateCache) DestroyColorBlendState(desc ColorBlendStateDesc) {
	c.colorBlend.release(c.device, desc, DeviceEncoder.DestroyColorBlendState)
}

func (c *RenderStateCache) CreateDepthStencilState(desc DepthStencilStateDesc) ([]StateHandle, error) {
	return c.depthStencil.acquire(c.device, desc,
		func(enc DeviceEncoder, k *DepthStencilStateDesc) (StateHandle, error) {
			return enc.CreateDepthStencilState(k)
		},
		DeviceEncoder.DestroyDepthStencilState)
}

func (c *RenderStateCache) DestroyDepthStencilState(desc DepthStencilStateDesc) {
	c.depthStencil.release(c.device, desc, DeviceEncoder.DestroyDepthStencilState)
}

// TokenStats aggregates the live entry counts of every token cache.
func (c *RenderStateCache) TokenStats() map[string]statecache.Stats {
	return map[string]statecache.Stats{
		"inputAssembly":   c.inputAssembly.Stats(),
		"triangleRaster":  c.triangleRaster.Stats(),
		"pointLineRaster": c.pointLineRaster.Stats(),
		"depthBias":       c.depthBias.Stats(),
		"blendConst":      c.blendConst.Stats(),
		"depthBounds":     c.depthBounds.Stats(),
		"viewport":        c.viewport.Stats(),
		"scissor":         c.scissor.Stats(),
		"samplePattern":   c.samplePattern.Stats(),
	}
}

// logLeaks reports entries still live at device teardown.
func (c *RenderStateCache) logLeaks() {
	for name, st := range c.TokenStats() {
		if st.Len != 0 {
			Logger().Warn("state tokens leaked at teardown", "category", name, "count", st.Len)
		}
	}
	for name, n := range map[string]int{
		"msaa":         c.msaa.len(),
		"colorBlend":   c.colorBlend.len(),
		"depthStencil": c.depthStencil.len(),
	} {
		if n != 0 {
			Logger().Warn("state objects leaked at teardown", "kind", name, "count", n)
		}
	}
}
