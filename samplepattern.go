package gfxpipe

import "fmt"

// Default MSAA sample pattern tables, one per supported sample count.
// Offsets are stored in sixteenths of a pixel relative to the pixel center;
// entries past the sample count stay zero.

type samplePos16 struct{ x, y int8 }

var defaultPattern1x = [MaxMsaaSamples]samplePos16{
	{0, 0},
}

var defaultPattern2x = [MaxMsaaSamples]samplePos16{
	{-4, -4}, {4, 4},
}

var defaultPattern4x = [MaxMsaaSamples]samplePos16{
	{-2, -6}, {6, -2}, {-6, 2}, {2, 6},
}

var defaultPattern8x = [MaxMsaaSamples]samplePos16{
	{1, -3}, {-1, 3}, {5, 1}, {-3, -5},
	{-5, 5}, {-7, -1}, {3, 7}, {7, -7},
}

var defaultPattern16x = [MaxMsaaSamples]samplePos16{
	{1, 1}, {-1, -3}, {-3, 2}, {4, -1},
	{-5, -2}, {2, 5}, {5, 3}, {3, 5},
	{-2, 6}, {0, -7}, {-4, -6}, {-6, -6},
	{-8, 0}, {7, -4}, {6, 7}, {-7, -8},
}

// defaultSamplePatterns is indexed by samplePatternIndex.
var defaultSamplePatterns = [...]SamplePattern{
	makeDefaultPattern(1, defaultPattern1x),
	makeDefaultPattern(2, defaultPattern2x),
	makeDefaultPattern(4, defaultPattern4x),
	makeDefaultPattern(8, defaultPattern8x),
	makeDefaultPattern(16, defaultPattern16x),
}

func makeDefaultPattern(count uint32, raw [MaxMsaaSamples]samplePos16) SamplePattern {
	p := SamplePattern{SampleCount: count}
	for pixel := 0; pixel < len(p.Locations); pixel++ {
		for s := uint32(0); s < count; s++ {
			p.Locations[pixel][s] = SamplePos{
				X: float32(raw[s].x) / 16,
				Y: float32(raw[s].y) / 16,
			}
		}
	}
	return p
}

// samplePatternIndex maps a rasterization sample count to its pattern table
// slot. Counts outside {1, 2, 4, 8, 16} are rejected.
func samplePatternIndex(count uint32) (uint32, error) {
	switch count {
	case 1:
		return 0, nil
	case 2:
		return 1, nil
	case 4:
		return 2, nil
	case 8:
		return 3, nil
	case 16:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidSampleCount, count)
	}
}

// DefaultSamplePattern returns the built-in sample locations for the given
// rasterization sample count.
func DefaultSamplePattern(count uint32) (SamplePattern, error) {
	idx, err := samplePatternIndex(count)
	if err != nil {
		return SamplePattern{}, err
	}
	return defaultSamplePatterns[idx], nil
}
