package gfxpipe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Shared test doubles for the pipeline creation and bind paths.

type fakeModule struct{ src string }

func (m fakeModule) Code() []byte { return []byte(m.src) }

type fakeCompiler struct {
	builds    int
	dumps     int
	failBuild error
	lastInfo  *BuildInfo
}

func (c *fakeCompiler) Build(info *BuildInfo) (CompiledBinary, error) {
	c.builds++
	c.lastInfo = info
	if c.failBuild != nil {
		return CompiledBinary{}, c.failBuild
	}
	return CompiledBinary{Code: []byte("fake-binary")}, nil
}

func (c *fakeCompiler) Dump(info *BuildInfo) error {
	c.dumps++
	c.lastInfo = info
	return nil
}

type fakeLayout struct {
	scratch    int
	gotScratch []int
	gotStages  []ShaderStage
	vertexSeen bool
}

func (l *fakeLayout) ScratchSize() int { return l.scratch }

func (l *fakeLayout) BuildResourceMapping(stage ShaderStage, scratch []byte, vertexInput *VertexInputDesc) (ResourceMapping, *VertexBindingInfo, error) {
	l.gotScratch = append(l.gotScratch, len(scratch))
	l.gotStages = append(l.gotStages, stage)
	if vertexInput != nil {
		if stage != ShaderStageVertex {
			return ResourceMapping{}, nil, errors.New("vertex input leaked to non-vertex stage")
		}
		l.vertexSeen = true
	}
	m := ResourceMapping{Bindings: []BindingMapping{{HardwareSlot: uint32(stage), Count: 1}}}
	return m, nil, nil
}

type fakePipelineHandle struct {
	enc  *fakeEncoder
	mem  []byte
	desc HardwareStateDesc
}

type fakeStateHandle struct {
	kind string
}

type fakeEncoder struct {
	size int

	failPipeline bool
	failMsaa     bool
	failBlend    bool
	failDS       bool

	// pipelineErr overrides the default injected pipeline failure.
	pipelineErr error

	pipelinesCreated   int
	pipelinesDestroyed int
	msaaCreated        int
	msaaDestroyed      int
	blendCreated       int
	blendDestroyed     int
	dsCreated          int
	dsDestroyed        int

	shaderCaches []ShaderCacheHandle
	lastPipeline *fakePipelineHandle
}

func (e *fakeEncoder) PipelineSize(*HardwareStateDesc) int { return e.size }

func (e *fakeEncoder) CreatePipeline(desc *HardwareStateDesc, mem []byte) (PipelineHandle, error) {
	if e.failPipeline {
		if e.pipelineErr != nil {
			return nil, e.pipelineErr
		}
		return nil, errors.New("injected pipeline failure")
	}
	e.pipelinesCreated++
	e.shaderCaches = append(e.shaderCaches, desc.ShaderCache)
	h := &fakePipelineHandle{enc: e, mem: mem, desc: *desc}
	e.lastPipeline = h
	return h, nil
}

func (e *fakeEncoder) DestroyPipeline(PipelineHandle) { e.pipelinesDestroyed++ }

func (e *fakeEncoder) CreateMsaaState(*MsaaStateDesc) (StateHandle, error) {
	if e.failMsaa {
		return nil, errors.New("injected msaa failure")
	}
	e.msaaCreated++
	return &fakeStateHandle{kind: "msaa"}, nil
}

func (e *fakeEncoder) DestroyMsaaState(StateHandle) { e.msaaDestroyed++ }

func (e *fakeEncoder) CreateColorBlendState(*ColorBlendStateDesc) (StateHandle, error) {
	if e.failBlend {
		return nil, errors.New("injected blend failure")
	}
	e.blendCreated++
	return &fakeStateHandle{kind: "blend"}, nil
}

func (e *fakeEncoder) DestroyColorBlendState(StateHandle) { e.blendDestroyed++ }

func (e *fakeEncoder) CreateDepthStencilState(*DepthStencilStateDesc) (StateHandle, error) {
	if e.failDS {
		return nil, errors.New("injected depth-stencil failure")
	}
	e.dsCreated++
	return &fakeStateHandle{kind: "ds"}, nil
}

func (e *fakeEncoder) DestroyDepthStencilState(StateHandle) { e.dsDestroyed++ }

// fakeProvider implements gpucontext.DeviceProvider for one group member.
type fakeProvider struct {
	device gpucontext.Device
	format gputypes.TextureFormat
}

func (p *fakeProvider) Device() gpucontext.Device             { return p.device }
func (p *fakeProvider) Queue() gpucontext.Queue               { return nil }
func (p *fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *fakeProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (p *fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

type fakeContextDevice struct{ polled int }

func (d *fakeContextDevice) Poll(wait bool) { d.polled++ }
func (d *fakeContextDevice) Destroy()       {}

type fakeCache struct{ asked []int }

func (c *fakeCache) ShaderCache(deviceIndex int) ShaderCacheHandle {
	c.asked = append(c.asked, deviceIndex)
	return fmt.Sprintf("cache-%d", deviceIndex)
}

// streamOp is one recorded sub-stream command.
type streamOp struct {
	dev int
	op  string
	val any
}

type fakeSubStream struct {
	dev    int
	stream *fakeStream
}

func (s *fakeSubStream) record(op string, val any) {
	s.stream.ops = append(s.stream.ops, streamOp{dev: s.dev, op: op, val: val})
}

func (s *fakeSubStream) BindPipeline(h PipelineHandle, tuning ShaderTuning) {
	s.record("BindPipeline", h)
}
func (s *fakeSubStream) BindMsaaState(h StateHandle)         { s.record("BindMsaaState", h) }
func (s *fakeSubStream) BindColorBlendState(h StateHandle)   { s.record("BindColorBlendState", h) }
func (s *fakeSubStream) BindDepthStencilState(h StateHandle) { s.record("BindDepthStencilState", h) }

func (s *fakeSubStream) SetInputAssembly(p InputAssemblyParams)     { s.record("SetInputAssembly", p) }
func (s *fakeSubStream) SetTriangleRaster(p TriangleRasterParams)   { s.record("SetTriangleRaster", p) }
func (s *fakeSubStream) SetPointLineRaster(p PointLineRasterParams) { s.record("SetPointLineRaster", p) }
func (s *fakeSubStream) SetDepthBias(p DepthBiasParams)             { s.record("SetDepthBias", p) }
func (s *fakeSubStream) SetBlendConst(p BlendConstParams)           { s.record("SetBlendConst", p) }
func (s *fakeSubStream) SetDepthBounds(p DepthBoundsParams)         { s.record("SetDepthBounds", p) }
func (s *fakeSubStream) SetViewports(p ViewportParams)              { s.record("SetViewports", p) }
func (s *fakeSubStream) SetScissors(p ScissorParams)                { s.record("SetScissors", p) }
func (s *fakeSubStream) SetSamplePattern(p SamplePattern)           { s.record("SetSamplePattern", p) }
func (s *fakeSubStream) SetStencilState(p StencilRefMasks)          { s.record("SetStencilState", p) }

type fakeStream struct {
	mask uint32
	ops  []streamOp
	subs map[int]*fakeSubStream
}

func newFakeStream(mask uint32) *fakeStream {
	return &fakeStream{mask: mask, subs: make(map[int]*fakeSubStream)}
}

func (s *fakeStream) DeviceMask() uint32 { return s.mask }

func (s *fakeStream) SubStream(deviceIndex int) SubStream {
	ss, ok := s.subs[deviceIndex]
	if !ok {
		ss = &fakeSubStream{dev: deviceIndex, stream: s}
		s.subs[deviceIndex] = ss
	}
	return ss
}

func (s *fakeStream) reset() { s.ops = nil }

func (s *fakeStream) count(op string) int {
	n := 0
	for _, o := range s.ops {
		if o.op == op {
			n++
		}
	}
	return n
}

func (s *fakeStream) lastVal(op string) (any, bool) {
	for i := len(s.ops) - 1; i >= 0; i-- {
		if s.ops[i].op == op {
			return s.ops[i].val, true
		}
	}
	return nil, false
}

// newTestDevice builds a device group of n fake encoders with a fake
// compiler.
func newTestDevice(t *testing.T, n int, opts ...DeviceOption) (*Device, []*fakeEncoder, *fakeCompiler) {
	t.Helper()
	fakes := make([]*fakeEncoder, n)
	encoders := make([]DeviceEncoder, n)
	for i := range fakes {
		fakes[i] = &fakeEncoder{size: 64}
		encoders[i] = fakes[i]
	}
	comp := &fakeCompiler{}
	opts = append([]DeviceOption{WithCompiler(comp)}, opts...)
	d, err := NewDevice(encoders, opts...)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	return d, fakes, comp
}

// basicDesc returns a minimal valid pipeline description: vertex plus
// fragment stage, one color target, single-sampled, static viewport.
func basicDesc() *GraphicsPipelineDesc {
	desc := &GraphicsPipelineDesc{
		Stages: []ShaderStageDesc{
			{Stage: ShaderStageVertex, Module: fakeModule{src: "vs"}, EntryPoint: "vs_main"},
			{Stage: ShaderStageFragment, Module: fakeModule{src: "fs"}, EntryPoint: "fs_main"},
		},
		Viewport: &ViewportDesc{
			ViewportCount: 1,
			ScissorCount:  1,
			Viewports:     []Viewport{{Width: 640, Height: 480, MaxDepth: 1}},
			Scissors:      []ScissorRect{{Width: 640, Height: 480}},
		},
		Rasterization: &RasterizationDesc{
			CullMode:  gputypes.CullModeNone,
			LineWidth: 1,
		},
	}
	desc.Target.ColorFormats[0] = gputypes.TextureFormatRGBA8Unorm
	return desc
}
