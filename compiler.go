package gfxpipe

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ShaderCacheHandle is an opaque per-device shader cache reference passed
// through to the compiler and the device encoders.
type ShaderCacheHandle any

// PipelineCache supplies per-device shader cache handles for pipeline
// creation. Implementations are external; the Device only counts them.
type PipelineCache interface {
	ShaderCache(deviceIndex int) ShaderCacheHandle
}

// BindingMapping relates one declared resource binding to a hardware slot.
type BindingMapping struct {
	Set          uint32
	Binding      uint32
	HardwareSlot uint32
	Count        uint32
}

// ResourceMapping is the per-stage resource binding table the compiler
// consumes.
type ResourceMapping struct {
	Bindings []BindingMapping
}

// VertexBindingInfo summarizes the vertex input the layout folded into the
// vertex stage mapping.
type VertexBindingInfo struct {
	BindingCount   uint32
	AttributeCount uint32
}

// PipelineLayout describes the resource interface a pipeline compiles
// against. ScratchSize reports the temporary buffer one BuildResourceMapping
// call needs; the orchestrator allocates it once and reuses it across
// stages.
type PipelineLayout interface {
	ScratchSize() int
	BuildResourceMapping(stage ShaderStage, scratch []byte, vertexInput *VertexInputDesc) (ResourceMapping, *VertexBindingInfo, error)
}

// StageBuildInfo is the compiler input for one shader stage.
type StageBuildInfo struct {
	Stage           ShaderStage
	Code            []byte
	EntryPoint      string
	Specialization  []SpecConstant
	ResourceMapping ResourceMapping
}

// TargetBuildInfo is the per-color-target compiler input.
type TargetBuildInfo struct {
	Format               gputypes.TextureFormat
	BlendEnable          bool
	BlendSrcAlphaToColor bool
}

// BuildInfo is the complete input to one pipeline compile: all stages plus
// the fixed-function facts that influence code generation.
type BuildInfo struct {
	Stages      []StageBuildInfo
	VertexInput *VertexInputDesc
	ShaderCache ShaderCacheHandle

	Topology           gputypes.PrimitiveTopology
	PatchControlPoints uint32
	DisableVertexReuse bool

	DepthClipEnable         bool
	RasterizerDiscardEnable bool
	UserClipPlaneMask       uint32
	PointSizeEnable         bool

	PerSampleShading   bool
	NumSamples         uint32
	SamplePatternIndex uint32
	AlphaToCoverage    bool

	DualSourceBlend bool
	Targets         [MaxColorTargets]TargetBuildInfo

	DisableOptimization bool
}

// CompiledBinary is the single hardware-executable produced per pipeline.
type CompiledBinary struct {
	Code []byte
}

// ShaderCompiler turns a pipeline's stages into one hardware binary.
// Build compiles; Dump writes the inputs to the compiler's dump sink
// without producing a binary.
type ShaderCompiler interface {
	Build(info *BuildInfo) (CompiledBinary, error)
	Dump(info *BuildInfo) error
}

// buildCompileInput assembles the BuildInfo for a parsed pipeline. The
// layout's scratch buffer is allocated once and shared across stages; the
// vertex input description reaches only the vertex stage mapping.
func buildCompileInput(ps *pipelineState, desc *GraphicsPipelineDesc, cache PipelineCache) (*BuildInfo, error) {
	info := &BuildInfo{
		VertexInput:             desc.VertexInput,
		Topology:                ps.hw.Topology,
		PatchControlPoints:      ps.hw.PatchControlPoints,
		DisableVertexReuse:      ps.hw.DisableVertexReuse,
		DepthClipEnable:         ps.hw.DepthClipEnable,
		RasterizerDiscardEnable: ps.hw.RasterizerDiscardEnable,
		UserClipPlaneMask:       ps.hw.UserClipPlaneMask,
		PointSizeEnable:         ps.hw.PrimitiveType == PrimitiveTypePoint,
		PerSampleShading:        ps.perSampleShading,
		NumSamples:              ps.hw.NumSamples,
		SamplePatternIndex:      ps.hw.SamplePatternIndex,
		AlphaToCoverage:         ps.hw.AlphaToCoverage,
		DualSourceBlend:         ps.hw.DualSourceBlend,
		DisableOptimization:     desc.DisableOptimization,
	}
	for i := range ps.hw.Targets {
		t := &ps.hw.Targets[i]
		info.Targets[i] = TargetBuildInfo{
			Format:               t.Format,
			BlendEnable:          t.BlendEnable,
			BlendSrcAlphaToColor: t.BlendSrcAlphaToColor,
		}
	}
	if cache != nil {
		info.ShaderCache = cache.ShaderCache(0)
	}

	var scratch []byte
	if desc.Layout != nil {
		if n := desc.Layout.ScratchSize(); n > 0 {
			scratch = make([]byte, n)
		}
	}
	info.Stages = make([]StageBuildInfo, 0, len(desc.Stages))
	for _, st := range desc.Stages {
		sb := StageBuildInfo{
			Stage:          st.Stage,
			EntryPoint:     st.EntryPoint,
			Specialization: st.Specialization,
		}
		if st.Module != nil {
			sb.Code = st.Module.Code()
		}
		if desc.Layout != nil {
			var vi *VertexInputDesc
			if st.Stage == ShaderStageVertex {
				vi = desc.VertexInput
			}
			mapping, _, err := desc.Layout.BuildResourceMapping(st.Stage, scratch, vi)
			if err != nil {
				return nil, fmt.Errorf("%w: stage %s: %v", ErrCompilerFailure, st.Stage, err)
			}
			sb.ResourceMapping = mapping
		}
		info.Stages = append(info.Stages, sb)
	}
	return info, nil
}

// compilePipeline runs (or dumps) the compile for a parsed pipeline.
// With compilation disabled the dump sink still sees the inputs and the
// pipeline proceeds with an empty binary.
func (d *Device) compilePipeline(ps *pipelineState, desc *GraphicsPipelineDesc, cache PipelineCache) (CompiledBinary, error) {
	info, err := buildCompileInput(ps, desc, cache)
	if err != nil {
		return CompiledBinary{}, err
	}
	if d.settings.dumpPipelines && d.compiler != nil {
		if err := d.compiler.Dump(info); err != nil {
			Logger().Warn("pipeline dump failed", "err", err)
		}
	}
	if d.settings.disableCompilation {
		return CompiledBinary{}, nil
	}
	bin, err := d.compiler.Build(info)
	if err != nil {
		return CompiledBinary{}, fmt.Errorf("%w: %v", ErrCompilerFailure, err)
	}
	return bin, nil
}
