package sixelcodec

import "github.com/deepteams/sixel/internal/status"

// parseState is the DCS/DECSIXEL/DECGRA/DECGRI/DECGCI state machine's
// current mode, per spec.md §4.9.
type parseState int

const (
	stateGround parseState = iota
	stateESC
	stateDCS
	stateDECSIXEL
	stateDECGRA
	stateDECGRI
	stateDECGCI
)

// Surface is the decoded pixel grid: one palette index per pixel,
// row-major, plus the RGB palette table the decoder has built.
type Surface struct {
	Width, Height int
	Indices       []int
	Palette       []byte // ncolors*3
	Background    int
}

func newSurface(width, height, background int) *Surface {
	s := &Surface{Width: width, Height: height, Background: background}
	s.Indices = make([]int, width*height)
	for i := range s.Indices {
		s.Indices[i] = background
	}
	return s
}

// growTo reallocates the surface to the smallest power of two covering
// (w, h), copying existing rows and filling new area with the
// background index, per spec.md §4.9's surface-growth rule.
func (s *Surface) growTo(w, h int) {
	nw, nh := nextPow2(max(w, s.Width)), nextPow2(max(h, s.Height))
	if nw == s.Width && nh == s.Height {
		return
	}
	indices := make([]int, nw*nh)
	for i := range indices {
		indices[i] = s.Background
	}
	for y := 0; y < s.Height; y++ {
		copy(indices[y*nw:y*nw+s.Width], s.Indices[y*s.Width:(y+1)*s.Width])
	}
	s.Indices = indices
	s.Width, s.Height = nw, nh
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (s *Surface) ensurePalette(idx int) {
	for len(s.Palette)/3 <= idx {
		s.Palette = append(s.Palette, 0, 0, 0)
	}
}

// finalize crops (or, in principle, pads) the surface's backing
// allocation down to its true logical extent. growTo only ever rounds
// up to a power of two while drawing; finalize is the one point where
// Width/Height stop meaning "backing capacity" and start meaning the
// image's real dimensions, matching what ScanBands computes for the
// band-parallel path.
func (s *Surface) finalize(width, height int) {
	if width == s.Width && height == s.Height {
		return
	}
	indices := make([]int, width*height)
	for i := range indices {
		indices[i] = s.Background
	}
	copyW, copyH := width, height
	if s.Width < copyW {
		copyW = s.Width
	}
	if s.Height < copyH {
		copyH = s.Height
	}
	for y := 0; y < copyH; y++ {
		copy(indices[y*width:y*width+copyW], s.Indices[y*s.Width:y*s.Width+copyW])
	}
	s.Indices = indices
	s.Width, s.Height = width, height
}

// finalDims computes the logical width/height Decode's state machine
// should report, per ScanBands' own width/height formula: the greater
// of the drawn extent and the declared raster attributes.
func finalDims(ctx *decodeCtx) (width, height int) {
	width = ctx.maxPosX
	if ctx.ph > width {
		width = ctx.ph
	}
	if width < 1 {
		width = 1
	}
	height = ctx.bandCount * 6
	if ctx.pv > height {
		height = ctx.pv
	}
	return width, height
}

// decodeCtx holds one decoder's mutable parse state, shared by Decode
// (full stream) and decodeRange (a single prescanned band resuming from a
// ParamState snapshot).
type decodeCtx struct {
	state  parseState
	params []int
	cur    int
	hasCur bool

	posX, posY int
	repeat     int
	colorIdx   int

	pan, pad, ph, pv int
	background       bool

	maxColorIndex int

	// maxPosX/bandCount track the logical image extent Decode finalizes
	// to, separately from the surface's power-of-two backing allocation
	// (growTo). bandCount starts at 1 (the band before any DECGNL).
	maxPosX   int
	bandCount int
}

func newDecodeCtx() *decodeCtx {
	return &decodeCtx{pan: 1, pad: 1, repeat: 1, bandCount: 1}
}

// ExtractBody strips a SIXEL DCS stream's envelope (the 7-bit "ESC P" or
// 8-bit 0x90 introducer through the "q", and the trailing ST terminator,
// "ESC \" or 0x9c) and returns the body in between: the same byte range
// Decode's own state machine hands to drawSixel, and the shape
// DecodeParallel/ScanBands expect (they have no ESC/DCS/GROUND handling
// of their own and would otherwise mis-parse envelope bytes as sixel
// data).
func ExtractBody(stream []byte) ([]byte, error) {
	i := 0
	switch {
	case len(stream) > 0 && stream[0] == 0x90:
		i = 1
	case len(stream) > 1 && stream[0] == 0x1b && stream[1] == 'P':
		i = 2
	default:
		return nil, status.New(status.BadInput, "sixelcodec: stream has no DCS introducer")
	}
	for i < len(stream) && stream[i] != 'q' {
		i++
	}
	if i >= len(stream) {
		return nil, status.New(status.BadInput, "sixelcodec: stream has no DCS \"q\"")
	}
	start := i + 1
	for i = start; i < len(stream); i++ {
		if stream[i] == 0x9c {
			return stream[start:i], nil
		}
		if stream[i] == 0x1b && i+1 < len(stream) && stream[i+1] == '\\' {
			return stream[start:i], nil
		}
	}
	return nil, status.New(status.BadInput, "sixelcodec: stream ended without ST terminator")
}

// Decode parses a complete SIXEL DCS stream (including the envelope) and
// returns the decoded Surface, per spec.md §4.9.
func Decode(stream []byte) (*Surface, error) {
	ctx := newDecodeCtx()
	surf := newSurface(1, 6, 0)
	i := 0
	for i < len(stream) {
		b := stream[i]
		switch ctx.state {
		case stateGround:
			switch b {
			case 0x1b:
				ctx.state = stateESC
			case 0x90:
				ctx.state = stateDCS
				ctx.params, ctx.cur, ctx.hasCur = nil, 0, false
			}
		case stateESC:
			switch b {
			case 'P':
				ctx.state = stateDCS
				ctx.params, ctx.cur, ctx.hasCur = nil, 0, false
			case '\\':
				surf.finalize(finalDims(ctx))
				return surf, nil
			default:
				ctx.state = stateGround
			}
		case stateDCS:
			switch {
			case isDigit(b):
				ctx.cur = ctx.cur*10 + int(b-'0')
				ctx.hasCur = true
			case b == ';':
				ctx.params = append(ctx.params, ctx.cur)
				ctx.cur, ctx.hasCur = 0, false
			case b == 'q':
				if ctx.hasCur {
					ctx.params = append(ctx.params, ctx.cur)
				}
				p1 := 0
				if len(ctx.params) > 0 {
					p1 = ctx.params[0]
				}
				_ = aspectNumerator(p1)
				if len(ctx.params) > 1 {
					ctx.background = ctx.params[1] == 1
				}
				ctx.state = stateDECSIXEL
			default:
				ctx.state = stateGround
			}
		case stateDECSIXEL:
			switch b {
			case rasterAttributeIntroducer:
				ctx.state = stateDECGRA
				ctx.params, ctx.cur, ctx.hasCur = nil, 0, false
			case graphicsRepeatIntroducer:
				ctx.state = stateDECGRI
				ctx.params, ctx.cur, ctx.hasCur = nil, 0, false
			case graphicsColorIntroducer:
				ctx.state = stateDECGCI
				ctx.params, ctx.cur, ctx.hasCur = nil, 0, false
			case graphicsCarriageReturn:
				ctx.posX = 0
			case graphicsNextLine:
				ctx.posX = 0
				ctx.posY += 6
				ctx.bandCount++
			case 0x1b:
				ctx.state = stateESC
			case 0x9c:
				surf.finalize(finalDims(ctx))
				return surf, nil
			default:
				if b >= 0x3f && b <= 0x7e {
					drawSixel(surf, ctx, b-sixelValueOffset)
					ctx.posX += ctx.repeat
					ctx.repeat = 1
					if ctx.posX > ctx.maxPosX {
						ctx.maxPosX = ctx.posX
					}
				}
			}
		case stateDECGRA:
			switch {
			case isDigit(b):
				ctx.cur = ctx.cur*10 + int(b-'0')
				ctx.hasCur = true
			case b == ';':
				ctx.params = append(ctx.params, ctx.cur)
				ctx.cur, ctx.hasCur = 0, false
			default:
				if ctx.hasCur {
					ctx.params = append(ctx.params, ctx.cur)
				}
				applyRasterAttributes(surf, ctx)
				ctx.state = stateDECSIXEL
				i-- // reprocess b as a DECSIXEL token
			}
		case stateDECGRI:
			switch {
			case isDigit(b):
				ctx.cur = ctx.cur*10 + int(b-'0')
				ctx.hasCur = true
			default:
				if ctx.hasCur {
					ctx.params = append(ctx.params, ctx.cur)
				}
				n := 0
				if len(ctx.params) > 0 {
					n = ctx.params[0]
				}
				if n < 1 {
					n = 1
				}
				if n > 65535 {
					n = 65535
				}
				ctx.repeat = n
				ctx.state = stateDECSIXEL
				i-- // reprocess b: it's the sixel data byte the repeat applies to
			}
		case stateDECGCI:
			switch {
			case isDigit(b):
				ctx.cur = ctx.cur*10 + int(b-'0')
				ctx.hasCur = true
			case b == ';':
				ctx.params = append(ctx.params, ctx.cur)
				ctx.cur, ctx.hasCur = 0, false
			default:
				if ctx.hasCur {
					ctx.params = append(ctx.params, ctx.cur)
				}
				applyColorIntroducer(surf, ctx)
				ctx.state = stateDECSIXEL
				i--
			}
		}
		i++
	}
	return nil, status.New(status.BadInput, "sixelcodec: stream ended without ST terminator")
}

func applyRasterAttributes(surf *Surface, ctx *decodeCtx) {
	pan, pad, ph, pv := 1, 1, 0, 0
	if len(ctx.params) > 0 {
		pan = ctx.params[0]
	}
	if len(ctx.params) > 1 {
		pad = ctx.params[1]
	}
	if len(ctx.params) > 2 {
		ph = ctx.params[2]
	}
	if len(ctx.params) > 3 {
		pv = ctx.params[3]
	}
	ctx.pan, ctx.pad, ctx.ph, ctx.pv = pan, pad, ph, pv
	if ph > surf.Width || pv > surf.Height {
		surf.growTo(ph, pv)
	}
}

func applyColorIntroducer(surf *Surface, ctx *decodeCtx) {
	if len(ctx.params) == 0 {
		return
	}
	idx := ctx.params[0]
	ctx.colorIdx = idx
	if idx > ctx.maxColorIndex {
		ctx.maxColorIndex = idx
	}
	surf.ensurePalette(idx)
	if len(ctx.params) < 5 {
		return
	}
	system := ctx.params[1]
	c1, c2, c3 := ctx.params[2], ctx.params[3], ctx.params[4]
	var r, g, b byte
	switch system {
	case 1: // HLS: c1=hue(0..360), c2=lightness(0..100), c3=saturation(0..100)
		r, g, b = hlsToRGB(c1, c2, c3)
	case 2: // RGB: each component 0..100
		r, g, b = rgbScale100(c1), rgbScale100(c2), rgbScale100(c3)
	default:
		return
	}
	surf.Palette[idx*3] = r
	surf.Palette[idx*3+1] = g
	surf.Palette[idx*3+2] = b
}

// drawSixel paints six vertical pixels at (ctx.posX, ctx.posY) for bits,
// coalescing vertically-adjacent set bits into one fill span, per
// spec.md §4.9.
func drawSixel(surf *Surface, ctx *decodeCtx, bits byte) {
	if bits == 0 {
		return
	}
	needW, needH := ctx.posX+ctx.repeat, ctx.posY+6
	if needW > surf.Width || needH > surf.Height {
		surf.growTo(needW, needH)
	}
	row := 0
	for row < 6 {
		if bits&(1<<uint(row)) == 0 {
			row++
			continue
		}
		span := 1
		for row+span < 6 && bits&(1<<uint(row+span)) != 0 {
			span++
		}
		fillRect(surf, ctx.posX, ctx.posY+row, ctx.repeat, span, ctx.colorIdx)
		row += span
	}
}

func fillRect(surf *Surface, x0, y0, w, h, colorIdx int) {
	for y := y0; y < y0+h && y < surf.Height; y++ {
		base := y * surf.Width
		for x := x0; x < x0+w && x < surf.Width; x++ {
			surf.Indices[base+x] = colorIdx
		}
	}
}
