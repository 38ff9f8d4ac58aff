package gfxpipe

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfxpipe/statecache"
)

func mustCreate(t *testing.T, d *Device, desc *GraphicsPipelineDesc) *Pipeline {
	t.Helper()
	p, err := d.CreateGraphicsPipeline(desc, nil)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	t.Cleanup(p.Destroy)
	return p
}

func TestBindFirstEmitsAllStaticState(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)
	p := mustCreate(t, d, basicDesc())

	cs := newFakeStream(0b1)
	var rs RenderState
	var sc StencilCombiner
	p.BindToCmdBuffer(cs, &rs, &sc)

	for _, op := range []string{
		"BindPipeline",
		"BindDepthStencilState", "BindColorBlendState", "BindMsaaState",
		"SetViewports", "SetScissors",
		"SetInputAssembly", "SetTriangleRaster",
		"SetPointLineRaster", "SetSamplePattern",
	} {
		if cs.count(op) != 1 {
			t.Errorf("%s emitted %d times on first bind, want 1", op, cs.count(op))
		}
	}
	// Depth bias, blend constants and depth bounds are not baked by this
	// pipeline and must not be programmed.
	for _, op := range []string{"SetDepthBias", "SetBlendConst", "SetDepthBounds"} {
		if cs.count(op) != 0 {
			t.Errorf("%s emitted for a pipeline that does not bake it", op)
		}
	}

	vp, _ := cs.lastVal("SetViewports")
	if vp.(ViewportParams).Viewports[0].Width != 640 {
		t.Errorf("viewport width = %v, want 640", vp.(ViewportParams).Viewports[0].Width)
	}
}

func TestBindIdenticalPipelineIsMinimal(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)
	p1 := mustCreate(t, d, basicDesc())
	p2 := mustCreate(t, d, basicDesc())

	cs := newFakeStream(0b1)
	var rs RenderState
	var sc StencilCombiner
	p1.BindToCmdBuffer(cs, &rs, &sc)
	cs.reset()
	p2.BindToCmdBuffer(cs, &rs, &sc)

	// Equal content hash: the pipeline itself is not rebound.
	if cs.count("BindPipeline") != 0 {
		t.Error("identical pipeline rebound despite matching content hash")
	}
	// Matching tokens: no value state is re-emitted.
	for _, op := range []string{
		"SetViewports", "SetScissors", "SetInputAssembly", "SetTriangleRaster",
		"SetPointLineRaster", "SetSamplePattern", "SetStencilState",
	} {
		if cs.count(op) != 0 {
			t.Errorf("%s re-emitted on identical bind", op)
		}
	}
	// State objects bind every time; the sub-stream owns their filtering.
	for _, op := range []string{"BindDepthStencilState", "BindColorBlendState", "BindMsaaState"} {
		if cs.count(op) != 1 {
			t.Errorf("%s emitted %d times, want 1", op, cs.count(op))
		}
	}
}

func TestBindReemitsOnlyChangedCategory(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)
	p1 := mustCreate(t, d, basicDesc())

	desc := basicDesc()
	desc.InputAssembly.Topology = gputypes.PrimitiveTopologyLineList
	p2 := mustCreate(t, d, desc)

	cs := newFakeStream(0b1)
	var rs RenderState
	var sc StencilCombiner
	p1.BindToCmdBuffer(cs, &rs, &sc)
	cs.reset()
	p2.BindToCmdBuffer(cs, &rs, &sc)

	if cs.count("SetInputAssembly") != 1 {
		t.Errorf("SetInputAssembly emitted %d times, want 1", cs.count("SetInputAssembly"))
	}
	// The binary differs through the topology, so the pipeline rebinds, but
	// untouched value categories stay quiet.
	if cs.count("BindPipeline") != 1 {
		t.Errorf("BindPipeline emitted %d times, want 1", cs.count("BindPipeline"))
	}
	for _, op := range []string{"SetViewports", "SetScissors", "SetTriangleRaster", "SetPointLineRaster"} {
		if cs.count(op) != 0 {
			t.Errorf("%s re-emitted though unchanged", op)
		}
	}
}

func TestBindDynamicCategoriesNeverEmittedByBinder(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)
	desc := basicDesc()
	desc.DynamicStates = []DynamicState{DynamicStateViewport, DynamicStateScissor, DynamicStateLineWidth}
	p := mustCreate(t, d, desc)

	if p.tokens.viewport != statecache.Dynamic {
		t.Fatal("viewport token not dynamic")
	}

	cs := newFakeStream(0b1)
	// Prime the render state with matching counts so only the token path is
	// in play; the count change on a fresh recording resends regardless.
	rs := RenderState{
		Viewport: ViewportParams{Count: 1},
		Scissor:  ScissorParams{Count: 1},
	}
	var sc StencilCombiner
	p.BindToCmdBuffer(cs, &rs, &sc)

	for _, op := range []string{"SetViewports", "SetScissors", "SetPointLineRaster"} {
		if cs.count(op) != 0 {
			t.Errorf("%s emitted for draw-supplied state", op)
		}
	}
}

func TestBindViewportCountDirtyResendsOldValues(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)

	// Static single-viewport pipeline, then a dynamic-viewport pipeline
	// declaring two viewports: binding the second must reprogram the render
	// state's current values at the new count.
	p1 := mustCreate(t, d, basicDesc())

	desc := basicDesc()
	desc.DynamicStates = []DynamicState{DynamicStateViewport, DynamicStateScissor}
	desc.Viewport = &ViewportDesc{ViewportCount: 2, ScissorCount: 2}
	p2 := mustCreate(t, d, desc)

	cs := newFakeStream(0b1)
	var rs RenderState
	var sc StencilCombiner
	p1.BindToCmdBuffer(cs, &rs, &sc)
	savedToken := rs.tokens.viewport
	cs.reset()
	p2.BindToCmdBuffer(cs, &rs, &sc)

	if cs.count("SetViewports") != 1 {
		t.Fatalf("SetViewports emitted %d times on count change, want 1", cs.count("SetViewports"))
	}
	vp, _ := cs.lastVal("SetViewports")
	got := vp.(ViewportParams)
	if got.Count != 2 {
		t.Errorf("resent viewport count = %d, want 2", got.Count)
	}
	if got.Viewports[0].Width != 640 {
		t.Errorf("resent viewport lost previous values: width = %v", got.Viewports[0].Width)
	}
	// The resend reprograms values only; the token set is untouched.
	if rs.tokens.viewport != savedToken {
		t.Error("count-dirty resend rewrote the viewport token")
	}
}

func TestBindSameCountNoResend(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)
	p1 := mustCreate(t, d, basicDesc())

	desc := basicDesc()
	desc.DynamicStates = []DynamicState{DynamicStateViewport, DynamicStateScissor}
	desc.Viewport = &ViewportDesc{ViewportCount: 1, ScissorCount: 1}
	p2 := mustCreate(t, d, desc)

	cs := newFakeStream(0b1)
	var rs RenderState
	var sc StencilCombiner
	p1.BindToCmdBuffer(cs, &rs, &sc)
	cs.reset()
	p2.BindToCmdBuffer(cs, &rs, &sc)

	if cs.count("SetViewports") != 0 || cs.count("SetScissors") != 0 {
		t.Error("viewport or scissor resent though count did not change")
	}
}

func TestRenderStateSettersInvalidateTokens(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)
	p := mustCreate(t, d, basicDesc())

	cs := newFakeStream(0b1)
	var rs RenderState
	var sc StencilCombiner
	p.BindToCmdBuffer(cs, &rs, &sc)

	// A draw-time override invalidates the token, so rebinding the same
	// static pipeline re-emits just that category.
	rs.SetViewports(cs, ViewportParams{Count: 1, Viewports: [MaxViewports]Viewport{{Width: 320, Height: 240}}})
	cs.reset()
	p.BindToCmdBuffer(cs, &rs, &sc)

	if cs.count("SetViewports") != 1 {
		t.Errorf("SetViewports emitted %d times after override, want 1", cs.count("SetViewports"))
	}
	for _, op := range []string{"SetScissors", "SetInputAssembly", "SetTriangleRaster"} {
		if cs.count(op) != 0 {
			t.Errorf("%s re-emitted though untouched", op)
		}
	}
	vp, _ := cs.lastVal("SetViewports")
	if vp.(ViewportParams).Viewports[0].Width != 640 {
		t.Error("rebind did not restore the pipeline's static viewport")
	}
}

func TestBindMultiDeviceMask(t *testing.T) {
	d, _, _ := newTestDevice(t, 3)
	p := mustCreate(t, d, basicDesc())

	// Devices 0 and 2 active.
	cs := newFakeStream(0b101)
	var rs RenderState
	var sc StencilCombiner
	p.BindToCmdBuffer(cs, &rs, &sc)

	devs := map[int]int{}
	for _, op := range cs.ops {
		if op.op == "BindPipeline" {
			devs[op.dev]++
		}
	}
	if len(devs) != 2 || devs[0] != 1 || devs[2] != 1 || devs[1] != 0 {
		t.Errorf("BindPipeline device distribution = %v, want devices 0 and 2 once each", devs)
	}
	// Each active device receives its own handle.
	for _, op := range cs.ops {
		if op.op == "BindPipeline" && op.val != p.handles[op.dev] {
			t.Errorf("device %d bound a foreign pipeline handle", op.dev)
		}
	}
}

func TestBindNullPipelineIgnoresMask(t *testing.T) {
	d, _, _ := newTestDevice(t, 3)
	cs := newFakeStream(0b001)
	d.BindNullPipeline(cs)

	if cs.count("BindPipeline") != 3 {
		t.Fatalf("BindPipeline emitted %d times, want one per device", cs.count("BindPipeline"))
	}
	// The companion state objects are unbound alongside the pipeline.
	for _, op := range []string{"BindMsaaState", "BindColorBlendState", "BindDepthStencilState"} {
		if cs.count(op) != 3 {
			t.Errorf("%s emitted %d times, want one per device", op, cs.count(op))
		}
	}
	for _, op := range cs.ops {
		if op.val != nil {
			t.Errorf("device %d: null bind carried handle %v", op.dev, op.val)
		}
	}
}

func TestRenderStateReset(t *testing.T) {
	d, _, _ := newTestDevice(t, 1)
	p := mustCreate(t, d, basicDesc())

	cs := newFakeStream(0b1)
	var rs RenderState
	var sc StencilCombiner
	p.BindToCmdBuffer(cs, &rs, &sc)
	rs.Reset()
	cs.reset()
	p.BindToCmdBuffer(cs, &rs, &sc)

	// A fresh recording sees everything again.
	if cs.count("BindPipeline") != 1 || cs.count("SetViewports") != 1 {
		t.Error("reset render state did not force a full re-emit")
	}
}
