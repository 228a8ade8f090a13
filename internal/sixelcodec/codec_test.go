package sixelcodec

import (
	"bytes"
	"testing"

	"github.com/deepteams/sixel/internal/sixelio"
)

func TestEncodeDecode_RoundTripTwoColorCheckerboard(t *testing.T) {
	const w, h = 4, 2
	indices := []int{
		0, 1, 0, 1,
		1, 0, 1, 0,
	}
	palette := []byte{255, 0, 0, 0, 255, 0}

	var buf bytes.Buffer
	sink := sixelio.New(&buf, 0)
	if err := Encode(sink, indices, w, h, palette, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	surf, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if surf.Width < w || surf.Height < h {
		t.Fatalf("decoded surface too small: %dx%d", surf.Width, surf.Height)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := indices[y*w+x]
			got := surf.Indices[y*surf.Width+x]
			if got != want {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestDecode_ScenarioFourFixedStream(t *testing.T) {
	stream := []byte("\x1bP0;0;0q\"1;1;4;2#0;2;100;0;0#1;2;0;100;0#0!4~-#1!4~\x1b\\")
	surf, err := Decode(stream)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// The stream's two bands each set every bit of a 4-wide run, so the
	// first band's six rows are entirely color 0 (red) and the second
	// band's six rows are entirely color 1 (green).
	for x := 0; x < 4; x++ {
		if surf.Indices[x] != 0 {
			t.Errorf("band 0 pixel %d = %d, want 0 (red)", x, surf.Indices[x])
		}
	}
	for x := 0; x < 4; x++ {
		idx := 6*surf.Width + x
		if surf.Indices[idx] != 1 {
			t.Errorf("band 1 pixel %d = %d, want 1 (green)", x, surf.Indices[idx])
		}
	}
	if surf.Palette[0] != 255 || surf.Palette[1] != 0 || surf.Palette[2] != 0 {
		t.Errorf("palette[0] = %v, want red", surf.Palette[0:3])
	}
	if surf.Palette[3] != 0 || surf.Palette[4] != 255 || surf.Palette[5] != 0 {
		t.Errorf("palette[1] = %v, want green", surf.Palette[3:6])
	}
	// The second band's draws reach row 11, past the declared "1;1;4;2"
	// raster; the surface finalizes to the drawn extent (two full 6-row
	// bands), not the smaller declared size.
	if surf.Width != 4 || surf.Height != 12 {
		t.Errorf("surface = %dx%d, want 4x12", surf.Width, surf.Height)
	}
}

func TestDecode_FinalizesToDeclaredRasterWhenLargerThanDrawnExtent(t *testing.T) {
	stream := []byte("\x1bP0;0;0q\"1;1;10;10#0;2;100;0;0#0!4~\x1b\\")
	surf, err := Decode(stream)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if surf.Width != 10 || surf.Height != 10 {
		t.Errorf("surface = %dx%d, want 10x10", surf.Width, surf.Height)
	}
}

func TestExtractBody_SevenBitAndEightBitIntroducers(t *testing.T) {
	body, err := ExtractBody([]byte("\x1bP0;0;0q#0;2;0;0;0\x1b\\"))
	if err != nil {
		t.Fatalf("ExtractBody: %v", err)
	}
	if string(body) != "#0;2;0;0;0" {
		t.Errorf("body = %q, want %q", body, "#0;2;0;0;0")
	}

	body8, err := ExtractBody([]byte("\x900;0;0q#0;2;0;0;0\x9c"))
	if err != nil {
		t.Fatalf("ExtractBody (8-bit): %v", err)
	}
	if string(body8) != "#0;2;0;0;0" {
		t.Errorf("body = %q, want %q", body8, "#0;2;0;0;0")
	}
}

func TestExtractBody_RejectsMissingIntroducerOrTerminator(t *testing.T) {
	if _, err := ExtractBody([]byte("not a sixel stream")); err == nil {
		t.Error("expected error for a stream with no DCS introducer")
	}
	if _, err := ExtractBody([]byte("\x1bP0;0;0qabc")); err == nil {
		t.Error("expected error for a stream with no ST terminator")
	}
}

func TestDecodeParallel_MatchesSerialDecode_AfterExtractBody(t *testing.T) {
	const w, h = 4, 14 // three bands, exercises band-boundary bookkeeping
	indices := make([]int, w*h)
	for i := range indices {
		indices[i] = i % 2
	}
	palette := []byte{10, 20, 30, 200, 210, 220}

	var buf bytes.Buffer
	sink := sixelio.New(&buf, 0)
	if err := Encode(sink, indices, w, h, palette, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	stream := buf.Bytes()

	serial, err := Decode(stream)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	body, err := ExtractBody(stream)
	if err != nil {
		t.Fatalf("ExtractBody: %v", err)
	}
	// nthreads=1 always takes DecodeParallel's ineligible-for-parallel
	// fallback, but that path still runs entirely through ScanBands +
	// decodeBandsSerially, so this still exercises the prescan-based
	// decode the worker-pool path builds on.
	parallel, err := DecodeParallel(body, 0, 0, 0, 1)
	if err != nil {
		t.Fatalf("DecodeParallel: %v", err)
	}

	if serial.Width != parallel.Width || serial.Height != parallel.Height {
		t.Fatalf("dimension mismatch: serial %dx%d, parallel %dx%d", serial.Width, serial.Height, parallel.Width, parallel.Height)
	}
	for i := range serial.Indices {
		if serial.Indices[i] != parallel.Indices[i] {
			t.Fatalf("pixel %d mismatch: serial=%d parallel=%d", i, serial.Indices[i], parallel.Indices[i])
		}
	}
}

func TestEncodeDecode_HLSPaletteRoundTrips(t *testing.T) {
	const w, h = 2, 1
	indices := []int{0, 0}
	palette := []byte{200, 50, 80}

	var buf bytes.Buffer
	sink := sixelio.New(&buf, 0)
	if err := Encode(sink, indices, w, h, palette, EncodeOptions{Palette: sixelio.PaletteHLS}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(";1;")) {
		t.Errorf("expected an HLS (;1;) color definition in %q", buf.Bytes())
	}

	surf, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, want := range []byte{200, 50, 80} {
		got := surf.Palette[i]
		diff := int(got) - int(want)
		if diff < -4 || diff > 4 {
			t.Errorf("palette[%d] = %d, want close to %d", i, got, want)
		}
	}
}

func TestWriteRLE_CoalescesRuns(t *testing.T) {
	var buf bytes.Buffer
	sink := sixelio.New(&buf, 0)
	mask := []byte{5, 5, 5, 5, 5, 7}
	writeRLE(sink, mask, sixelio.PolicyAuto)
	sink.Flush()
	out := buf.String()
	if out[0] != graphicsRepeatIntroducer {
		t.Fatalf("expected RLE-coalesced run, got %q", out)
	}
}

func TestAspectNumerator_TableValues(t *testing.T) {
	cases := map[int]int{0: 2, 1: 2, 2: 5, 3: 4, 4: 4, 5: 3, 6: 3, 7: 2, 8: 2, 9: 1}
	for p1, want := range cases {
		if got := aspectNumerator(p1); got != want {
			t.Errorf("aspectNumerator(%d) = %d, want %d", p1, got, want)
		}
	}
}

func TestResolveThreadCount_CLIOverrideWins(t *testing.T) {
	if got := ResolveThreadCount(4); got != 4 {
		t.Errorf("got %d, want 4", got)
	}
}

func TestResolveThreadCount_DefaultsToOne(t *testing.T) {
	t.Setenv("SIXEL_THREADS", "")
	if got := ResolveThreadCount(0); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestScanBands_OffsetsCoverConsumedLength(t *testing.T) {
	body := []byte("#0!4~-#1!4~")
	p := ScanBands(body, 4, 2)
	if len(p.BandStart) != 2 {
		t.Fatalf("expected 2 bands, got %d", len(p.BandStart))
	}
	total := 0
	for i := range p.BandStart {
		total += p.BandEnd[i] - p.BandStart[i]
	}
	boundaries := len(p.BandStart) - 1 // one '-' byte per boundary
	if total+boundaries != len(body) {
		t.Errorf("band ranges + boundaries = %d, want %d", total+boundaries, len(body))
	}
}

func TestEligibleForParallel_RejectsSmallInput(t *testing.T) {
	p := &Prescan{Width: 10, Height: 10, BandStart: []int{0, 1}, BandEnd: []int{1, 2}}
	if eligibleForParallel(4, 10, p) {
		t.Fatal("expected ineligible for tiny input")
	}
}
