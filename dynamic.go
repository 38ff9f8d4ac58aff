package gfxpipe

import (
	"math"
	"math/bits"
)

// allSamplesMask returns a coverage mask with the low n bits set.
func allSamplesMask(n uint32) uint32 {
	return (1 << n) - 1
}

// nextPow2 rounds v up to the next power of two. Zero stays zero.
func nextPow2(v uint32) uint32 {
	if v <= 1 {
		return v
	}
	return 1 << bits.Len32(v-1)
}

// resolveMultisample derives every hardware sample count from the
// description. Unset attachment sample counts fall back along the chain
// coverage -> color -> depth; the rasterization count drives the sample
// pattern and must be one of {1, 2, 4, 8, 16}.
func (ps *pipelineState) resolveMultisample(desc *GraphicsPipelineDesc) error {
	ms := desc.Multisample
	if ms == nil {
		ms = &MultisampleDesc{RasterizationSamples: 1}
	}
	rasterSamples := ms.RasterizationSamples
	if rasterSamples == 0 {
		rasterSamples = 1
	}
	patternIdx, err := samplePatternIndex(rasterSamples)
	if err != nil {
		return err
	}

	coverage := desc.Target.CoverageSamples
	if coverage == 0 {
		coverage = rasterSamples
	}
	color := desc.Target.ColorSamples
	if color == 0 {
		color = coverage
	}
	// Occlusion queries count depth-test results, so their sample count
	// follows the depth attachment rather than coverage.
	depth := desc.Target.DepthSamples
	if depth == 0 {
		depth = coverage
	}

	// Per-sample shading runs the fragment shader once per covered color
	// sample, padded to a power of two so the hardware can iterate it.
	pixelShaderSamples := uint32(1)
	if ms.SampleShadingEnable && ms.MinSampleShading > 0 {
		shaded := uint32(math.Ceil(float64(color) * float64(ms.MinSampleShading)))
		if shaded == 0 {
			shaded = 1
		}
		pixelShaderSamples = nextPow2(shaded)
		ps.perSampleShading = float32(color)*ms.MinSampleShading > 1
	}

	sampleMask := ms.SampleMask
	if sampleMask == 0 {
		sampleMask = allSamplesMask(rasterSamples)
	}

	ps.msaa = MsaaStateDesc{
		CoverageSamples:         coverage,
		ExposedSamples:          coverage,
		PixelShaderSamples:      pixelShaderSamples,
		DepthStencilSamples:     depth,
		ShaderExportMaskSamples: coverage,
		SampleClusters:          coverage,
		AlphaToCoverageSamples:  coverage,
		OcclusionQuerySamples:   depth,
		SampleMask:              sampleMask,
	}

	ps.hw.NumSamples = rasterSamples
	ps.hw.SamplePatternIndex = patternIdx
	ps.hw.AlphaToCoverage = ms.AlphaToCoverageEnable

	// Sample locations: a static custom pattern is baked as-is, otherwise
	// the built-in pattern for the rasterization count applies. A dynamic
	// declaration leaves the category draw-supplied.
	if !ps.dynamic[DynamicStateSampleLocations] {
		if ps.customSampleLocations {
			ps.samplePattern = ps.customPattern
		} else {
			ps.samplePattern = defaultSamplePatterns[patternIdx]
		}
		ps.staticMask.set(DynamicStateSampleLocations)
	}
	return nil
}
