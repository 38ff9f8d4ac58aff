package gfxpipe

import (
	"errors"
	"testing"
)

func TestDefaultSamplePatternCounts(t *testing.T) {
	for _, n := range []uint32{1, 2, 4, 8, 16} {
		p, err := DefaultSamplePattern(n)
		if err != nil {
			t.Fatalf("DefaultSamplePattern(%d): %v", n, err)
		}
		if p.SampleCount != n {
			t.Errorf("SampleCount = %d, want %d", p.SampleCount, n)
		}
		// Every quad pixel carries the same locations.
		for pixel := 1; pixel < len(p.Locations); pixel++ {
			if p.Locations[pixel] != p.Locations[0] {
				t.Errorf("%dx: quad pixel %d differs from pixel 0", n, pixel)
			}
		}
		// Entries past the count stay zero.
		for s := n; s < MaxMsaaSamples; s++ {
			if p.Locations[0][s] != (SamplePos{}) {
				t.Errorf("%dx: sample %d not zero", n, s)
			}
		}
	}
}

func TestDefaultSamplePatternOffsets(t *testing.T) {
	p, err := DefaultSamplePattern(2)
	if err != nil {
		t.Fatalf("DefaultSamplePattern(2): %v", err)
	}
	// Offsets are stored in sixteenths of a pixel.
	want := [2]SamplePos{{X: -0.25, Y: -0.25}, {X: 0.25, Y: 0.25}}
	if p.Locations[0][0] != want[0] || p.Locations[0][1] != want[1] {
		t.Errorf("2x locations = %v/%v, want %v/%v",
			p.Locations[0][0], p.Locations[0][1], want[0], want[1])
	}

	p16, err := DefaultSamplePattern(16)
	if err != nil {
		t.Fatalf("DefaultSamplePattern(16): %v", err)
	}
	if got := (SamplePos{X: -0.5, Y: 0}); p16.Locations[0][12] != got {
		t.Errorf("16x sample 12 = %v, want %v", p16.Locations[0][12], got)
	}
}

func TestSamplePatternIndexMapping(t *testing.T) {
	want := map[uint32]uint32{1: 0, 2: 1, 4: 2, 8: 3, 16: 4}
	for count, idx := range want {
		got, err := samplePatternIndex(count)
		if err != nil {
			t.Fatalf("samplePatternIndex(%d): %v", count, err)
		}
		if got != idx {
			t.Errorf("samplePatternIndex(%d) = %d, want %d", count, got, idx)
		}
	}
	if _, err := DefaultSamplePattern(3); !errors.Is(err, ErrInvalidSampleCount) {
		t.Errorf("err = %v, want ErrInvalidSampleCount", err)
	}
}
