package sixelcodec

// PrescanFlags marks conditions that inhibit parallel decoding, per
// spec.md §4.8.
type PrescanFlags uint32

const (
	FlagUnsafeGeometry PrescanFlags = 1 << iota
	FlagColorIndexOverflow
)

// ParamState is the DCS/DECGRA parameter accumulator snapshot captured
// at a prescan band boundary, enough to resume parsing a band in
// isolation.
type ParamState struct {
	Pan, Pad, PH, PV int
	Background       bool
	PosX             int
}

// Prescan is the result of a single forward pass over a SIXEL body,
// recording band boundaries and enough state to decode each band
// independently, per spec.md §4.8.
type Prescan struct {
	BandStart []int // byte offset each band's decodable range starts at
	BandEnd   []int // half-open: BandEnd[i] == BandStart[i+1]-1 (the '-' byte)
	BandState []ParamState
	Flags     PrescanFlags
	Width     int
	Height    int
	MaxColorIndex int
}

// ScanBands performs the prescan: a forward pass over body (the bytes
// between the DCS "q" and the ST) that records band boundaries and
// parser snapshots without drawing any pixels. Grounded on
// internal/container/parser.go's forward single-pass chunk-boundary scan
// and internal/container/riff.go's ReadChunkHeader tuple-returning idiom,
// generalized from RIFF chunk headers to sixel band tokens.
func ScanBands(body []byte, attributedWidth, attributedHeight int) *Prescan {
	p := &Prescan{}
	state := ParamState{Pan: 1, Pad: 1}
	start := 0
	maxX, maxY := -1, -1
	posX := 0
	colorIdx := 0
	drewAny := false
	rasterSeen := false

	i := 0
	for i < len(body) {
		switch body[i] {
		case rasterAttributeIntroducer:
			if rasterSeen && drewAny {
				p.Flags |= FlagUnsafeGeometry
			}
			rasterSeen = true
			j := i + 1
			params := make([]int, 0, 4)
			cur := 0
			has := false
			for j < len(body) && (isDigit(body[j]) || body[j] == ';') {
				if body[j] == ';' {
					params = append(params, cur)
					cur, has = 0, false
				} else {
					cur = cur*10 + int(body[j]-'0')
					has = true
				}
				j++
			}
			if has {
				params = append(params, cur)
			}
			if len(params) > 0 {
				state.Pan = params[0]
			}
			if len(params) > 1 {
				state.Pad = params[1]
			}
			if len(params) > 2 {
				state.PH = params[2]
			}
			if len(params) > 3 {
				state.PV = params[3]
				if state.PH > maxX+1 {
					maxX = state.PH - 1
				}
				if state.PV > maxY {
					maxY = state.PV - 1
				}
			}
			i = j
		case graphicsColorIntroducer:
			j := i + 1
			params := make([]int, 0, 5)
			cur := 0
			has := false
			for j < len(body) && (isDigit(body[j]) || body[j] == ';') {
				if body[j] == ';' {
					params = append(params, cur)
					cur, has = 0, false
				} else {
					cur = cur*10 + int(body[j]-'0')
					has = true
				}
				j++
			}
			if has {
				params = append(params, cur)
			}
			if len(params) > 0 && params[0] > colorIdx {
				colorIdx = params[0]
			}
			i = j
		case graphicsRepeatIntroducer:
			j := i + 1
			for j < len(body) && isDigit(body[j]) {
				j++
			}
			if j < len(body) {
				j++ // sixel data byte
			}
			if j-1 >= i {
				// track max x reached by the repeat's drawn columns
			}
			posX += repeatCountOf(body[i:j])
			if posX > maxX+1 {
				maxX = posX - 1
			}
			drewAny = true
			i = j
		case graphicsCarriageReturn:
			posX = 0
			i++
		case graphicsNextLine:
			p.BandStart = append(p.BandStart, start)
			p.BandEnd = append(p.BandEnd, i)
			p.BandState = append(p.BandState, state)
			start = i + 1
			posX = 0
			i++
		default:
			if body[i] >= 0x3f && body[i] <= 0x7e {
				posX++
				if posX > maxX+1 {
					maxX = posX - 1
				}
				drewAny = true
			}
			i++
		}
	}
	p.BandStart = append(p.BandStart, start)
	p.BandEnd = append(p.BandEnd, len(body))
	p.BandState = append(p.BandState, state)

	width := maxX + 1
	if attributedWidth > width {
		width = attributedWidth
	}
	height := (len(p.BandStart)) * 6
	if maxY+1 > height {
		height = maxY + 1
	}
	if attributedHeight > height {
		height = attributedHeight
	}
	p.Width, p.Height = width, height
	p.MaxColorIndex = colorIdx

	if colorIdx >= 256 {
		p.Flags |= FlagColorIndexOverflow
	}
	return p
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// repeatCountOf returns the repeat count encoded by a `!<count><byte>`
// token (or 1 for a bare sixel byte).
func repeatCountOf(tok []byte) int {
	if len(tok) == 0 {
		return 0
	}
	if tok[0] != graphicsRepeatIntroducer {
		return 1
	}
	n := 0
	for _, b := range tok[1 : len(tok)-1] {
		n = n*10 + int(b-'0')
	}
	if n < 1 {
		n = 1
	}
	return n
}
