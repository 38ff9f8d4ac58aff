// Package halenc implements gfxpipe.DeviceEncoder on top of the wgpu HAL.
// HAL pipelines are monolithic, so the encoder folds the depth/stencil and
// blend snapshots from the hardware description into the pipeline object and
// models the separate state objects as value snapshots.
package halenc

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfxpipe"
)

// Encoder creates HAL pipeline objects for one device of a group.
type Encoder struct {
	device hal.Device
}

// New creates an Encoder over a HAL device.
func New(device hal.Device) *Encoder {
	return &Encoder{device: device}
}

// pipelineObject carries the HAL pipeline plus the shader modules it owns.
type pipelineObject struct {
	pipeline hal.RenderPipeline
	modules  []hal.ShaderModule
}

// PipelineSize reports the encoder-side backing store a pipeline needs.
// HAL objects live on the driver heap, so no client memory is required.
func (e *Encoder) PipelineSize(*gfxpipe.HardwareStateDesc) int { return 0 }

// CreatePipeline decodes the stage container, creates one shader module per
// stage, and builds the HAL render pipeline.
func (e *Encoder) CreatePipeline(desc *gfxpipe.HardwareStateDesc, _ []byte) (gfxpipe.PipelineHandle, error) {
	stages, err := gfxpipe.DecodeStageBinaries(desc.Binary)
	if err != nil {
		return nil, err
	}

	obj := &pipelineObject{}
	cleanup := func() {
		for _, m := range obj.modules {
			e.device.DestroyShaderModule(m)
		}
	}

	var vertex, fragment *stageModule
	for _, st := range stages {
		module, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  fmt.Sprintf("gfxpipe_%s", st.Stage),
			Source: hal.ShaderSource{SPIRV: st.SPIRV},
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("halenc: create %s module: %w", st.Stage, err)
		}
		obj.modules = append(obj.modules, module)
		sm := &stageModule{module: module, entry: st.EntryPoint}
		switch st.Stage {
		case gfxpipe.ShaderStageVertex:
			vertex = sm
		case gfxpipe.ShaderStageFragment:
			fragment = sm
		}
	}
	if vertex == nil {
		cleanup()
		return nil, fmt.Errorf("halenc: pipeline binary has no vertex stage")
	}

	pd := &hal.RenderPipelineDescriptor{
		Label: "gfxpipe_pipeline",
		Vertex: hal.VertexState{
			Module:     vertex.module,
			EntryPoint: vertex.entry,
			Buffers:    desc.VertexBuffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: desc.Raster.FrontFace,
			CullMode:  desc.Raster.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: desc.NumSamples,
			Mask:  uint64(desc.SampleMask),
		},
	}
	if l, ok := desc.Layout.(*Layout); ok {
		pd.Layout = l.halLayout
	}
	if fragment != nil {
		pd.Fragment = &hal.FragmentState{
			Module:     fragment.module,
			EntryPoint: fragment.entry,
			Targets:    colorTargets(desc),
		}
	}
	if desc.DepthFormat != gputypes.TextureFormatUndefined {
		pd.DepthStencil = depthStencil(desc)
	}

	pipeline, err := e.device.CreateRenderPipeline(pd)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("halenc: create render pipeline: %w", err)
	}
	obj.pipeline = pipeline
	return obj, nil
}

type stageModule struct {
	module hal.ShaderModule
	entry  string
}

func colorTargets(desc *gfxpipe.HardwareStateDesc) []gputypes.ColorTargetState {
	var targets []gputypes.ColorTargetState
	for i := range desc.Targets {
		t := &desc.Targets[i]
		if t.Format == gputypes.TextureFormatUndefined {
			continue
		}
		ct := gputypes.ColorTargetState{
			Format:    t.Format,
			WriteMask: t.WriteMask,
		}
		if t.BlendEnable {
			b := &desc.Blend.Targets[i]
			ct.Blend = &gputypes.BlendState{
				Color: gputypes.BlendComponent{
					SrcFactor: b.SrcColor,
					DstFactor: b.DstColor,
					Operation: b.ColorOp,
				},
				Alpha: gputypes.BlendComponent{
					SrcFactor: b.SrcAlpha,
					DstFactor: b.DstAlpha,
					Operation: b.AlphaOp,
				},
			}
		}
		targets = append(targets, ct)
	}
	return targets
}

func depthStencil(desc *gfxpipe.HardwareStateDesc) *hal.DepthStencilState {
	ds := &hal.DepthStencilState{
		Format:            desc.DepthFormat,
		DepthWriteEnabled: desc.DepthStencil.DepthWriteEnable,
		DepthCompare:      desc.DepthStencil.DepthFunc,
		StencilReadMask:   0xFF,
		StencilWriteMask:  0xFF,
	}
	if desc.DepthStencil.StencilEnable {
		ds.StencilFront = desc.DepthStencil.Front
		ds.StencilBack = desc.DepthStencil.Back
	} else {
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		ds.StencilFront = keep
		ds.StencilBack = keep
	}
	return ds
}

// DestroyPipeline releases the HAL pipeline and its shader modules.
func (e *Encoder) DestroyPipeline(h gfxpipe.PipelineHandle) {
	obj, ok := h.(*pipelineObject)
	if !ok || obj == nil {
		return
	}
	if obj.pipeline != nil {
		e.device.DestroyRenderPipeline(obj.pipeline)
	}
	for _, m := range obj.modules {
		e.device.DestroyShaderModule(m)
	}
}

// The HAL has no standalone MSAA, blend, or depth/stencil objects: that
// state is part of the pipeline. The state handles are value snapshots so
// binds stay redundancy-checkable by handle comparison.

func (e *Encoder) CreateMsaaState(desc *gfxpipe.MsaaStateDesc) (gfxpipe.StateHandle, error) {
	return *desc, nil
}

func (e *Encoder) DestroyMsaaState(gfxpipe.StateHandle) {}

func (e *Encoder) CreateColorBlendState(desc *gfxpipe.ColorBlendStateDesc) (gfxpipe.StateHandle, error) {
	return *desc, nil
}

func (e *Encoder) DestroyColorBlendState(gfxpipe.StateHandle) {}

func (e *Encoder) CreateDepthStencilState(desc *gfxpipe.DepthStencilStateDesc) (gfxpipe.StateHandle, error) {
	return *desc, nil
}

func (e *Encoder) DestroyDepthStencilState(gfxpipe.StateHandle) {}
