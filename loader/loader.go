// Package loader implements the core's loader orchestrator (component
// C11): ordered format sniffing (SIXEL, PNM, native fallback), a lazy
// frame iterator, and a visitor adapter for callback-style callers.
//
// Grounded on deepteams-webp's image.RegisterFormat-style callback
// decoding and its animation package's Frames []Frame + loop-count
// model, generalized into an internal lazy iterator per spec.md §9's
// preference for that shape, with VisitFrames as the thin
// callback-style wrapper over it.
package loader

import (
	"bufio"
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/deepteams/sixel/internal/status"

	sixel "github.com/deepteams/sixel"
)

// LoopPolicy controls how a multi-frame source's loop count is honored,
// per spec.md §4.11.
type LoopPolicy int

const (
	LoopAuto LoopPolicy = iota // honor the source's own loop count (0 = infinite)
	LoopForce                  // loop regardless of the source's count
	LoopDisable                // play once
)

// Format identifies which sniffed decoder produced a frame sequence.
type Format int

const (
	FormatUnknown Format = iota
	FormatSIXEL
	FormatPNM
	FormatNative
)

// Orchestrator decodes a chunk of bytes into a sequence of frames,
// sniffing the format in the order spec.md §4.11 specifies: SIXEL, PNM,
// then a native stdlib fallback (PNG/JPEG/GIF).
type Orchestrator struct {
	Loop LoopPolicy

	data    []byte
	format  Format
	started bool

	// native decode state
	nativeFrames []*sixel.Frame
	nativeIdx    int
	loopCount    int

	done bool
}

// New creates an Orchestrator over data. Sniffing happens lazily on the
// first Next call.
func New(data []byte, loop LoopPolicy) *Orchestrator {
	return &Orchestrator{data: data, Loop: loop}
}

// isSixel implements spec.md §9's corrected chunk_is_sixel rule: the
// first two bytes are `\x1bP`, or the first byte is `\x90`, and a `q`
// appears within the DCS header window (bounded, so this never reads
// past the buffer the way the legacy uninitialized-`end`-pointer bug
// did).
func isSixel(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	isDCS7 := data[0] == 0x1b && data[1] == 'P'
	isDCS8 := data[0] == 0x90
	if !isDCS7 && !isDCS8 {
		return false
	}
	window := data
	if len(window) > 32 {
		window = window[:32]
	}
	for _, b := range window {
		if b == 'q' {
			return true
		}
	}
	return false
}

func isPNM(data []byte) bool {
	return len(data) >= 2 && data[0] == 'P' && data[1] >= '1' && data[1] <= '6'
}

// sniff determines the format and decodes the whole input eagerly into
// o.nativeFrames: SIXEL/PNM as a single frame (they are always
// single-frame in this module's scope), native formats via image.Decode,
// or every GIF frame at once via gif.DecodeAll.
func (o *Orchestrator) sniff() error {
	o.started = true
	switch {
	case isSixel(o.data):
		o.format = FormatSIXEL
		return o.decodeSixel()
	case isPNM(o.data):
		o.format = FormatPNM
		return o.decodePNM()
	default:
		o.format = FormatNative
		return o.decodeNative()
	}
}

func (o *Orchestrator) decodeSixel() error {
	frame, err := sixel.Decode(o.data, sixel.DecodeOptions{})
	if err != nil {
		return err
	}
	o.nativeFrames = []*sixel.Frame{frame}
	return nil
}

func (o *Orchestrator) decodePNM() error {
	pixels, w, h, gray, err := decodePNM(bufio.NewReader(bytes.NewReader(o.data)))
	if err != nil {
		return err
	}
	format := sixel.FormatRGB888
	if gray {
		format = sixel.FormatGray8
	}
	frame, err := sixel.Init(pixels, w, h, format, nil, 0)
	if err != nil {
		return err
	}
	o.nativeFrames = []*sixel.Frame{frame}
	return nil
}

// decodeNative is the thin adapter onto the stdlib image package
// (registered for png/jpeg/gif decoding side effects only, per spec.md
// §1's "external loaders are out of scope" boundary: this module does
// not reimplement those formats, it only bridges to the collaborator).
func (o *Orchestrator) decodeNative() error {
	_, format, err := image.DecodeConfig(bytes.NewReader(o.data))
	if err == nil && format == "gif" {
		return o.decodeNativeGIF()
	}
	img, _, err := image.Decode(bytes.NewReader(o.data))
	if err != nil {
		return status.Wrap(err, status.BadInput, "loader: native decode failed")
	}
	frame := sixel.FrameFromImage(img)
	o.nativeFrames = []*sixel.Frame{frame}
	return nil
}

func (o *Orchestrator) decodeNativeGIF() error {
	g, err := gifDecodeAll(bytes.NewReader(o.data))
	if err != nil {
		return status.Wrap(err, status.BadInput, "loader: GIF decode failed")
	}
	frames := make([]*sixel.Frame, len(g.images))
	for i, img := range g.images {
		f := sixel.FrameFromImage(img)
		f.Multiframe = true
		f.DelayTicks = g.delays[i]
		f.FrameIndex = i
		frames[i] = f
	}
	o.nativeFrames = frames
	o.loopCount = g.loopCount
	return nil
}

// Next returns the next decoded frame and true, or (nil, false) when
// the source is exhausted (honoring o.Loop for multi-frame sources).
// This is the internal lazy-iterator API per spec.md §9's stated
// preference; VisitFrames is the callback-style wrapper over it.
func (o *Orchestrator) Next() (*sixel.Frame, bool, error) {
	if o.done {
		return nil, false, nil
	}
	if !o.started {
		if err := o.sniff(); err != nil {
			return nil, false, err
		}
	}
	if len(o.nativeFrames) == 0 {
		o.done = true
		return nil, false, nil
	}
	if o.nativeIdx >= len(o.nativeFrames) {
		if o.shouldLoop() {
			o.nativeIdx = 0
		} else {
			o.done = true
			return nil, false, nil
		}
	}
	f := o.nativeFrames[o.nativeIdx]
	o.nativeIdx++
	return f, true, nil
}

func (o *Orchestrator) shouldLoop() bool {
	if len(o.nativeFrames) <= 1 {
		return false
	}
	switch o.Loop {
	case LoopDisable:
		return false
	case LoopForce:
		return true
	default:
		return o.loopCount == 0
	}
}

// VisitFrames decodes the source and invokes fn once per frame in
// order, stopping at the first error fn returns. A thin visitor
// adapter over Next for callers that prefer a callback over manual
// iteration.
func (o *Orchestrator) VisitFrames(fn func(*sixel.Frame) error) error {
	for {
		f, ok, err := o.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(f); err != nil {
			return err
		}
	}
}

// DetectedFormat returns which sniffed decoder produced the
// orchestrator's frames. Valid only after the first Next/VisitFrames
// call.
func (o *Orchestrator) DetectedFormat() Format { return o.format }
