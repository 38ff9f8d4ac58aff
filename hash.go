package gfxpipe

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// hashPipeline computes the content hash identifying a pipeline: the
// compiled binary plus every resolved fixed-function decision. Two
// pipelines with equal hashes program the hardware identically, so the
// binder treats the hash, not the object, as the bound identity.
func hashPipeline(hw *HardwareStateDesc, binary []byte) uint64 {
	h := fnv.New64a()

	hashWriteUint32(h, uint32(len(binary)))
	_, _ = h.Write(binary)

	hashWriteUint32(h, uint32(hw.PrimitiveType))
	hashWriteBool(h, hw.Adjacency)
	hashWriteUint32(h, uint32(hw.Topology))
	hashWriteUint32(h, hw.PatchControlPoints)
	hashWriteBool(h, hw.SwitchWinding)
	hashWriteBool(h, hw.DisableVertexReuse)
	hashWriteBool(h, hw.DepthClipEnable)
	hashWriteBool(h, hw.RasterizerDiscardEnable)
	hashWriteBool(h, hw.RelaxedRasterOrder)
	hashWriteUint32(h, hw.UserClipPlaneMask)
	hashWriteUint32(h, hw.NumSamples)
	hashWriteUint32(h, hw.SampleMask)
	hashWriteUint32(h, hw.SamplePatternIndex)
	hashWriteBool(h, hw.AlphaToCoverage)
	hashWriteBool(h, hw.LogicOpEnable)
	hashWriteUint32(h, uint32(hw.LogicOp))
	hashWriteBool(h, hw.DualSourceBlend)
	for i := range hw.Targets {
		t := &hw.Targets[i]
		hashWriteUint32(h, uint32(t.Format))
		hashWriteUint32(h, uint32(t.WriteMask))
		hashWriteBool(h, t.BlendEnable)
		hashWriteBool(h, t.BlendSrcAlphaToColor)
	}
	hashWriteUint32(h, uint32(hw.DepthFormat))
	hashWriteBool(h, hw.ViewInstancingEnable)
	hashWriteUint32(h, uint32(hw.Raster.FillMode))
	hashWriteUint32(h, uint32(hw.Raster.CullMode))
	hashWriteUint32(h, uint32(hw.Raster.FrontFace))
	hashWriteBool(h, hw.Raster.DepthBiasEnable)

	return h.Sum64()
}

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
