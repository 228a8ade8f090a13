package quant

import "testing"

func TestNewNearestColorFinder_DetectsMonoDarkbg(t *testing.T) {
	palette := []byte{0, 0, 0, 255, 255, 255}
	n := NewNearestColorFinder(palette, 1, true, LUTPolicyAuto)
	if n.mode != LookupMonoDarkbg {
		t.Fatalf("expected LookupMonoDarkbg, got %v", n.mode)
	}
	if idx := n.Nearest(10, 10, 10); idx != 0 {
		t.Errorf("expected dark pixel to map to index 0, got %d", idx)
	}
	if idx := n.Nearest(240, 240, 240); idx != 1 {
		t.Errorf("expected light pixel to map to index 1, got %d", idx)
	}
}

func TestNewNearestColorFinder_DetectsMonoLightbg(t *testing.T) {
	palette := []byte{255, 255, 255, 0, 0, 0}
	n := NewNearestColorFinder(palette, 1, true, LUTPolicyAuto)
	if n.mode != LookupMonoLightbg {
		t.Fatalf("expected LookupMonoLightbg, got %v", n.mode)
	}
}

func TestNearest_LinearScanPicksClosest(t *testing.T) {
	palette := []byte{0, 0, 0, 255, 0, 0, 0, 255, 0, 0, 0, 255}
	n := NewNearestColorFinder(palette, 1, false, LUTPolicyAuto)
	if idx := n.Nearest(200, 0, 0); idx != 1 {
		t.Errorf("expected nearest to red (index 1), got %d", idx)
	}
}

func TestFastLookup_MatchesLinearScan(t *testing.T) {
	palette := make([]byte, 0, 8*3)
	for i := 0; i < 8; i++ {
		palette = append(palette, byte(i*30), byte(255-i*30), byte(i*10))
	}
	fast := NewNearestColorFinder(palette, 1, true, LUTPolicyAuto)
	normal := NewNearestColorFinder(palette, 1, false, LUTPolicyAuto)
	for _, rgb := range [][3]uint8{{10, 200, 5}, {100, 100, 100}, {250, 10, 80}} {
		got := fast.Nearest(rgb[0], rgb[1], rgb[2])
		want := normal.Nearest(rgb[0], rgb[1], rgb[2])
		if got != want {
			t.Errorf("fastLookup(%v) = %d, want %d (linear scan)", rgb, got, want)
		}
	}
}
