package gfxpipe

import "fmt"

// CreateGraphicsPipeline builds a pipeline from its description: parse and
// resolve the fixed-function state, compile the shaders once, then
// replicate hardware object creation across the device group. Creation is
// all-or-nothing; on error nothing remains allocated.
func (d *Device) CreateGraphicsPipeline(desc *GraphicsPipelineDesc, cache PipelineCache) (*Pipeline, error) {
	if d.closed.Load() {
		return nil, ErrDeviceClosed
	}

	ps, err := parseDescription(d, desc)
	if err != nil {
		return nil, err
	}

	binary, err := d.compilePipeline(ps, desc, cache)
	if err != nil {
		return nil, err
	}

	handles, arena, err := d.createPerDevicePipelines(ps, binary, cache)
	if err != nil {
		return nil, err
	}

	rollbackPipelines := func() {
		for i, enc := range d.encoders {
			enc.DestroyPipeline(handles[i])
		}
	}

	msaaHandles, err := d.cache.CreateMsaaState(ps.msaa)
	if err != nil {
		rollbackPipelines()
		return nil, err
	}
	blendHandles, err := d.cache.CreateColorBlendState(ps.blend)
	if err != nil {
		d.cache.DestroyMsaaState(ps.msaa)
		rollbackPipelines()
		return nil, err
	}
	dsHandles, err := d.cache.CreateDepthStencilState(ps.depthStencil)
	if err != nil {
		d.cache.DestroyColorBlendState(ps.blend)
		d.cache.DestroyMsaaState(ps.msaa)
		rollbackPipelines()
		return nil, err
	}

	p := &Pipeline{
		device:           d,
		handles:          handles,
		arena:            arena,
		binary:           binary,
		state:            ps.renderParams,
		msaaDesc:         ps.msaa,
		blendDesc:        ps.blend,
		depthStencilDesc: ps.depthStencil,
		msaaHandles:      msaaHandles,
		blendHandles:     blendHandles,
		dsHandles:        dsHandles,
		hash:             hashPipeline(&ps.hw, binary.Code),
		coverageSamples:  ps.msaa.CoverageSamples,
	}
	p.acquireStaticTokens()

	Logger().Debug("graphics pipeline created",
		"hash", p.hash,
		"devices", len(handles),
		"samples", ps.hw.NumSamples,
		"staticMask", uint32(ps.staticMask))
	return p, nil
}

// createPerDevicePipelines sizes every device's pipeline object, places all
// of them in one contiguous arena at sequential offsets, and creates them in
// device order. A failure on device i destroys devices 0..i-1 and frees the
// arena.
func (d *Device) createPerDevicePipelines(ps *pipelineState, binary CompiledBinary, cache PipelineCache) ([]PipelineHandle, []byte, error) {
	n := len(d.encoders)
	hw := ps.hw
	hw.Binary = binary.Code

	sizes := make([]int, n)
	total := 0
	for i, enc := range d.encoders {
		sizes[i] = enc.PipelineSize(&hw)
		total += sizes[i]
	}
	arena := make([]byte, total)

	handles := make([]PipelineHandle, n)
	off := 0
	for i, enc := range d.encoders {
		if cache != nil {
			hw.ShaderCache = cache.ShaderCache(i)
		}
		h, err := enc.CreatePipeline(&hw, arena[off:off+sizes[i]:off+sizes[i]])
		if err != nil {
			for j := 0; j < i; j++ {
				d.encoders[j].DestroyPipeline(handles[j])
			}
			return nil, nil, fmt.Errorf("%w: device %d: %w", ErrHardwareObjectCreation, i, err)
		}
		handles[i] = h
		off += sizes[i]
	}
	return handles, arena, nil
}
