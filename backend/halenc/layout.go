package halenc

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfxpipe"
)

// Layout implements gfxpipe.PipelineLayout over HAL bind group layouts.
// Hardware slots are assigned sequentially across groups in declaration
// order, so a binding's slot is stable for every stage that sees it.
type Layout struct {
	device    hal.Device
	halLayout hal.PipelineLayout
	groups    []hal.BindGroupLayout
	entries   [][]gputypes.BindGroupLayoutEntry
}

// NewLayout creates the HAL bind group layouts and pipeline layout for the
// given per-group entry lists.
func NewLayout(device hal.Device, groups [][]gputypes.BindGroupLayoutEntry) (*Layout, error) {
	l := &Layout{device: device, entries: groups}
	for i, entries := range groups {
		bgl, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("gfxpipe_group%d", i),
			Entries: entries,
		})
		if err != nil {
			l.Destroy()
			return nil, fmt.Errorf("halenc: create bind group layout %d: %w", i, err)
		}
		l.groups = append(l.groups, bgl)
	}
	halLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gfxpipe_layout",
		BindGroupLayouts: l.groups,
	})
	if err != nil {
		l.Destroy()
		return nil, fmt.Errorf("halenc: create pipeline layout: %w", err)
	}
	l.halLayout = halLayout
	return l, nil
}

// ScratchSize reports the per-call temporary space BuildResourceMapping
// needs. The HAL mapping is built directly in heap slices.
func (l *Layout) ScratchSize() int { return 0 }

// BuildResourceMapping returns the bindings visible to one stage, with
// hardware slots assigned by declaration order across all groups.
func (l *Layout) BuildResourceMapping(stage gfxpipe.ShaderStage, _ []byte, vertexInput *gfxpipe.VertexInputDesc) (gfxpipe.ResourceMapping, *gfxpipe.VertexBindingInfo, error) {
	visibility, ok := stageVisibility(stage)
	if !ok {
		return gfxpipe.ResourceMapping{}, nil, fmt.Errorf("halenc: stage %s not supported by the HAL", stage)
	}

	var mapping gfxpipe.ResourceMapping
	slot := uint32(0)
	for set, entries := range l.entries {
		for _, e := range entries {
			if e.Visibility&visibility != 0 {
				mapping.Bindings = append(mapping.Bindings, gfxpipe.BindingMapping{
					Set:          uint32(set),
					Binding:      e.Binding,
					HardwareSlot: slot,
					Count:        1,
				})
			}
			slot++
		}
	}

	var vb *gfxpipe.VertexBindingInfo
	if stage == gfxpipe.ShaderStageVertex && vertexInput != nil {
		vb = &gfxpipe.VertexBindingInfo{BindingCount: uint32(len(vertexInput.Buffers))}
		for _, buf := range vertexInput.Buffers {
			vb.AttributeCount += uint32(len(buf.Attributes))
		}
	}
	return mapping, vb, nil
}

func stageVisibility(stage gfxpipe.ShaderStage) (gputypes.ShaderStage, bool) {
	switch stage {
	case gfxpipe.ShaderStageVertex:
		return gputypes.ShaderStageVertex, true
	case gfxpipe.ShaderStageFragment:
		return gputypes.ShaderStageFragment, true
	default:
		return 0, false
	}
}

// Destroy releases the HAL layout objects in reverse creation order.
func (l *Layout) Destroy() {
	if l.halLayout != nil {
		l.device.DestroyPipelineLayout(l.halLayout)
		l.halLayout = nil
	}
	for _, g := range l.groups {
		if g != nil {
			l.device.DestroyBindGroupLayout(g)
		}
	}
	l.groups = nil
}
