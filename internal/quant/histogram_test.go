package quant

import (
	"testing"

	"pgregory.net/rapid"
)

func TestLatticeIndex_CentersBuckets(t *testing.T) {
	if got := latticeIndex(0, 2); got != 0 {
		t.Errorf("latticeIndex(0,2) = %d, want 0", got)
	}
	if got := latticeIndex(255, 2); got != 0x3f {
		t.Errorf("latticeIndex(255,2) = %d, want %d", got, 0x3f)
	}
}

func TestReconstruct_MaxBucketIsExactly255(t *testing.T) {
	shift := 2
	mask := uint8(0xff) >> uint(shift)
	if got := reconstruct(mask, shift); got != 255 {
		t.Errorf("reconstruct(max,%d) = %d, want 255", shift, got)
	}
}

func TestReconstruct_AlwaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		shift := rapid.IntRange(0, 3).Draw(rt, "shift")
		q := uint8(rapid.IntRange(0, 255).Draw(rt, "q"))
		got := reconstruct(q, shift)
		if got < 0 {
			rt.Fatalf("reconstruct returned negative: %d", got)
		}
	})
}

func TestHistogram_SampleRecordsEntries(t *testing.T) {
	h := NewHistogram(3, LUTPolicyAuto)
	pixels := make([]byte, 100*3)
	for i := 0; i < 100; i++ {
		pixels[i*3] = byte(i)
	}
	h.Sample(pixels, QualityFull)
	if h.Len() == 0 {
		t.Fatal("expected at least one histogram entry")
	}
}

func TestHistogram_ReconstructedRGBInRange(t *testing.T) {
	h := NewHistogram(3, LUTPolicyAuto)
	pixels := []byte{255, 255, 255, 0, 0, 0, 128, 64, 32}
	h.Sample(pixels, QualityFull)
	for i := 0; i < h.Len(); i++ {
		r, g, b := h.ReconstructedRGB(i)
		_ = r
		_ = g
		_ = b
	}
}
