package gfxpipe

// StencilParam addresses one field of StencilRefMasks for partial updates.
type StencilParam int

const (
	StencilFrontRef StencilParam = iota
	StencilFrontReadMask
	StencilFrontWriteMask
	StencilFrontOpValue
	StencilBackRef
	StencilBackReadMask
	StencilBackWriteMask
	StencilBackOpValue
)

// StencilCombiner accumulates partial stencil updates into one full
// hardware value. Pipelines bake some stencil fields and leave others
// draw-supplied; both sources write through the combiner so a single
// combined value reaches the hardware. Redundant writes do not mark the
// combiner dirty, so a bind that changes nothing emits nothing.
type StencilCombiner struct {
	values StencilRefMasks
	dirty  bool
}

// Set updates one field. The combiner goes dirty only if the value
// actually changed.
func (c *StencilCombiner) Set(p StencilParam, v uint8) {
	var slot *uint8
	switch p {
	case StencilFrontRef:
		slot = &c.values.FrontRef
	case StencilFrontReadMask:
		slot = &c.values.FrontReadMask
	case StencilFrontWriteMask:
		slot = &c.values.FrontWriteMask
	case StencilFrontOpValue:
		slot = &c.values.FrontOpValue
	case StencilBackRef:
		slot = &c.values.BackRef
	case StencilBackReadMask:
		slot = &c.values.BackReadMask
	case StencilBackWriteMask:
		slot = &c.values.BackWriteMask
	case StencilBackOpValue:
		slot = &c.values.BackOpValue
	default:
		return
	}
	if *slot != v {
		*slot = v
		c.dirty = true
	}
}

// Values returns the current combined stencil state.
func (c *StencilCombiner) Values() StencilRefMasks { return c.values }

// Dirty reports whether an unflushed change is pending.
func (c *StencilCombiner) Dirty() bool { return c.dirty }

// Flush emits the combined value to every active sub-stream if anything
// changed since the last flush.
func (c *StencilCombiner) Flush(cs CommandStream) {
	if !c.dirty {
		return
	}
	mask := cs.DeviceMask()
	for i := 0; mask != 0; i, mask = i+1, mask>>1 {
		if mask&1 != 0 {
			cs.SubStream(i).SetStencilState(c.values)
		}
	}
	c.dirty = false
}
