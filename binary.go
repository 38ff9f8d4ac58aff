package gfxpipe

import (
	"encoding/binary"
	"fmt"
)

// The compiled binary is a flat container of per-stage code sections:
//
//	magic   uint32  "GFXB"
//	version uint32
//	count   uint32
//	per stage:
//	  stage  uint32
//	  entry  uint32-prefixed UTF-8 entry point name
//	  words  uint32 count, then count little-endian SPIR-V words
//
// Encoders that consume stage code directly (monolithic-pipeline backends)
// decode the container; linked-binary backends treat the bytes as opaque.

const (
	binaryMagic   = 0x42584647 // "GFXB"
	binaryVersion = 1

	// minStageSize is the smallest encoded stage: tag, entry point length,
	// word count, all empty.
	minStageSize = 12
)

// StageBinary is one compiled shader stage inside a pipeline binary.
type StageBinary struct {
	Stage      ShaderStage
	EntryPoint string
	SPIRV      []uint32
}

// EncodeStageBinaries packs compiled stages into one pipeline binary.
func EncodeStageBinaries(stages []StageBinary) []byte {
	size := 12
	for _, st := range stages {
		size += 4 + 4 + len(st.EntryPoint) + 4 + 4*len(st.SPIRV)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, binaryMagic)
	buf = binary.LittleEndian.AppendUint32(buf, binaryVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(stages)))
	for _, st := range stages {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(st.Stage))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(st.EntryPoint)))
		buf = append(buf, st.EntryPoint...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(st.SPIRV)))
		for _, w := range st.SPIRV {
			buf = binary.LittleEndian.AppendUint32(buf, w)
		}
	}
	return buf
}

// DecodeStageBinaries unpacks a pipeline binary produced by
// EncodeStageBinaries.
func DecodeStageBinaries(code []byte) ([]StageBinary, error) {
	r := byteReader{buf: code}
	magic, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if magic != binaryMagic {
		return nil, fmt.Errorf("gfxpipe: bad pipeline binary magic %#x", magic)
	}
	version, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if version != binaryVersion {
		return nil, fmt.Errorf("gfxpipe: unsupported pipeline binary version %d", version)
	}
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}
	// Each stage occupies at least 12 bytes (stage tag plus two length
	// prefixes), which bounds a plausible count. A forged count must not
	// drive the preallocation.
	if int64(count)*minStageSize > int64(len(code)-r.off) {
		return nil, fmt.Errorf("gfxpipe: pipeline binary stage count %d exceeds container size %d", count, len(code))
	}
	stages := make([]StageBinary, 0, count)
	for i := uint32(0); i < count; i++ {
		stage, err := r.uint32()
		if err != nil {
			return nil, err
		}
		entry, err := r.str()
		if err != nil {
			return nil, err
		}
		words, err := r.words()
		if err != nil {
			return nil, err
		}
		stages = append(stages, StageBinary{
			Stage:      ShaderStage(stage),
			EntryPoint: entry,
			SPIRV:      words,
		})
	}
	return stages, nil
}

type byteReader struct {
	buf []byte
	off int
}

func (r *byteReader) uint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("gfxpipe: truncated pipeline binary at offset %d", r.off)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *byteReader) str() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.buf) {
		return "", fmt.Errorf("gfxpipe: truncated pipeline binary at offset %d", r.off)
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

func (r *byteReader) words() ([]uint32, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if r.off+4*int(n) > len(r.buf) {
		return nil, fmt.Errorf("gfxpipe: truncated pipeline binary at offset %d", r.off)
	}
	words := make([]uint32, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(r.buf[r.off:])
		r.off += 4
	}
	return words, nil
}
