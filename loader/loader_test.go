package loader

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"

	sixel "github.com/deepteams/sixel"
)

func TestIsSixel_DetectsSevenBitAndEightBitIntroducers(t *testing.T) {
	assert.True(t, isSixel([]byte("\x1bPq#0;2;0;0;0\x1b\\")))
	assert.True(t, isSixel([]byte("\x90q#0;2;0;0;0\x9c")))
	assert.False(t, isSixel([]byte("\x1bP;1;0")), "no q within the header window")
	assert.False(t, isSixel([]byte("not sixel at all")))
	assert.False(t, isSixel([]byte("\x1b")), "too short")
}

func TestIsPNM_DetectsMagicNumbers(t *testing.T) {
	for _, k := range []byte{'1', '2', '3', '4', '5', '6'} {
		assert.True(t, isPNM([]byte{'P', k, '\n'}))
	}
	assert.False(t, isPNM([]byte("P7\n")))
	assert.False(t, isPNM([]byte("X")))
}

func TestOrchestrator_DecodesSixelSingleFrame(t *testing.T) {
	stream := []byte("\x1bP0;0;0q\"1;1;4;2#0;2;100;0;0#1;2;0;100;0#0!4~-#1!4~\x1b\\")
	o := New(stream, LoopAuto)
	f, ok, err := o.Next()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, FormatSIXEL, o.DetectedFormat())
	assert.Equal(t, 4, f.Width)

	_, ok, err = o.Next()
	assert.NoError(t, err)
	assert.False(t, ok, "single-frame SIXEL source should not repeat without a multi-frame source")
}

func TestOrchestrator_DecodesPNMAsciiBitmap(t *testing.T) {
	stream := []byte("P1\n2 2\n1 0\n0 1\n")
	o := New(stream, LoopAuto)
	f, ok, err := o.Next()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, FormatPNM, o.DetectedFormat())
	assert.Equal(t, 2, f.Width)
	assert.Equal(t, 2, f.Height)
}

func TestOrchestrator_FallsBackToNativePNG(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.RGBA{byte(x * 10), byte(y * 10), 0, 255})
		}
	}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	o := New(buf.Bytes(), LoopAuto)
	f, ok, err := o.Next()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, FormatNative, o.DetectedFormat())
	assert.Equal(t, 3, f.Width)
	assert.Equal(t, 3, f.Height)
}

func buildTestGIF(t *testing.T, loopCount int) []byte {
	t.Helper()
	pal := color.Palette{color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255}}
	g := &gif.GIF{LoopCount: loopCount}
	for i := 0; i < 3; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
		img.SetColorIndex(0, 0, uint8(i%2))
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("gif.EncodeAll: %v", err)
	}
	return buf.Bytes()
}

func TestOrchestrator_MultiFrameGIF_LoopAutoHonorsInfiniteLoop(t *testing.T) {
	data := buildTestGIF(t, 0) // 0 = infinite, per image/gif convention
	o := New(data, LoopAuto)
	seen := 0
	for i := 0; i < 7; i++ {
		_, ok, err := o.Next()
		assert.NoError(t, err)
		if !ok {
			break
		}
		seen++
	}
	assert.Equal(t, 7, seen, "LoopAuto with LoopCount=0 should loop indefinitely")
}

func TestOrchestrator_MultiFrameGIF_LoopDisablePlaysOnce(t *testing.T) {
	data := buildTestGIF(t, 0)
	o := New(data, LoopDisable)
	seen := 0
	for {
		_, ok, err := o.Next()
		assert.NoError(t, err)
		if !ok {
			break
		}
		seen++
	}
	assert.Equal(t, 3, seen)
}

func TestOrchestrator_MultiFrameGIF_LoopForceIgnoresFiniteCount(t *testing.T) {
	data := buildTestGIF(t, 1) // finite count, would normally play twice total
	o := New(data, LoopForce)
	seen := 0
	for i := 0; i < 10; i++ {
		_, ok, err := o.Next()
		assert.NoError(t, err)
		if !ok {
			break
		}
		seen++
	}
	assert.Equal(t, 10, seen, "LoopForce should keep looping regardless of the source's own count")
}

func TestOrchestrator_VisitFrames_StopsOnCallbackError(t *testing.T) {
	data := buildTestGIF(t, 0)
	o := New(data, LoopDisable)
	stopAfter := errStop{}
	visited := 0
	err := o.VisitFrames(func(f *sixel.Frame) error {
		visited++
		if visited == 2 {
			return stopAfter
		}
		return nil
	})
	assert.Equal(t, stopAfter, err)
	assert.Equal(t, 2, visited)
}

type errStop struct{}

func (errStop) Error() string { return "stop" }

func TestOrchestrator_VisitFrames_VisitsAllFramesInOrder(t *testing.T) {
	data := buildTestGIF(t, 0)
	o := New(data, LoopDisable)
	var indices []int
	err := o.VisitFrames(func(f *sixel.Frame) error {
		indices = append(indices, f.FrameIndex)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, indices)
}
