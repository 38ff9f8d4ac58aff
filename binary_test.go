package gfxpipe

import (
	"encoding/binary"
	"reflect"
	"testing"
)

func TestStageBinaryContainerRoundTrip(t *testing.T) {
	stages := []StageBinary{
		{Stage: ShaderStageVertex, EntryPoint: "vs_main", SPIRV: []uint32{0x07230203, 0x10000, 3}},
		{Stage: ShaderStageFragment, EntryPoint: "fs_main", SPIRV: []uint32{0x07230203}},
	}
	code := EncodeStageBinaries(stages)

	got, err := DecodeStageBinaries(code)
	if err != nil {
		t.Fatalf("DecodeStageBinaries: %v", err)
	}
	if !reflect.DeepEqual(got, stages) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, stages)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	stages := []StageBinary{{Stage: ShaderStageVertex, EntryPoint: "main", SPIRV: []uint32{1, 2}}}
	code := EncodeStageBinaries(stages)

	if _, err := DecodeStageBinaries(code[:len(code)-3]); err == nil {
		t.Error("truncated binary accepted")
	}
	if _, err := DecodeStageBinaries(nil); err == nil {
		t.Error("empty binary accepted")
	}

	bad := append([]byte(nil), code...)
	bad[0] ^= 0xFF
	if _, err := DecodeStageBinaries(bad); err == nil {
		t.Error("wrong magic accepted")
	}
	bad = append([]byte(nil), code...)
	bad[4] = 99
	if _, err := DecodeStageBinaries(bad); err == nil {
		t.Error("unknown version accepted")
	}
}

// A forged stage count must fail the size check up front instead of driving
// the slice preallocation.
func TestDecodeRejectsForgedStageCount(t *testing.T) {
	var header []byte
	header = binary.LittleEndian.AppendUint32(header, binaryMagic)
	header = binary.LittleEndian.AppendUint32(header, binaryVersion)
	header = binary.LittleEndian.AppendUint32(header, 0xFFFFFFFF)

	if _, err := DecodeStageBinaries(header); err == nil {
		t.Fatal("forged stage count accepted")
	}

	// A count one past what the payload can hold is rejected too.
	stages := []StageBinary{{Stage: ShaderStageVertex, EntryPoint: "main", SPIRV: []uint32{1}}}
	code := EncodeStageBinaries(stages)
	code[8]++
	if _, err := DecodeStageBinaries(code); err == nil {
		t.Error("stage count past payload accepted")
	}
}
