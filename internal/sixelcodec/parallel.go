package sixelcodec

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/deepteams/sixel/internal/workerpool"
)

// eligibility thresholds from spec.md §4.10's eight guard clauses.
const (
	minInputLen          = 2048
	minBandCount         = 2
	minPixelCount        = 4096
	minPixelsPerThread   = 16384
	minBandsPerThread    = 4
	minAvgBandLenBytes   = 512
)

// ResolveThreadCount implements spec.md §4.10's resolution order: an
// explicit CLI override wins; otherwise SIXEL_THREADS (a positive
// integer, or "auto" for runtime.NumCPU()); otherwise 1.
func ResolveThreadCount(cliOverride int) int {
	if cliOverride > 0 {
		return cliOverride
	}
	if v := os.Getenv("SIXEL_THREADS"); v != "" {
		if strings.EqualFold(v, "auto") {
			return runtime.NumCPU()
		}
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// eligibleForParallel checks spec.md §4.10's eight guard clauses.
func eligibleForParallel(nthreads int, inputLen int, p *Prescan) bool {
	nbands := len(p.BandStart)
	if nthreads < 2 {
		return false
	}
	if inputLen < minInputLen {
		return false
	}
	if nbands < minBandCount {
		return false
	}
	if p.Flags != 0 {
		return false
	}
	pixelCount := p.Width * p.Height
	if pixelCount < minPixelCount {
		return false
	}
	if pixelCount/nthreads < minPixelsPerThread {
		return false
	}
	if nbands/nthreads < minBandsPerThread {
		return false
	}
	total := 0
	for i := range p.BandStart {
		total += p.BandEnd[i] - p.BandStart[i]
	}
	if nbands == 0 || total/nbands < minAvgBandLenBytes {
		return false
	}
	return true
}

// DecodeParallel decodes body (the prescanned SIXEL body, i.e. the bytes
// between the DCS "q" and ST) using up to nthreads band workers when
// spec.md §4.10's eligibility guard clauses all hold; otherwise it falls
// back to the serial decoder (C9) via Decode-equivalent per-band
// sequential replay. Grounded on internal/lossy/encode_parallel.go's
// pooled-per-worker-state pattern (reused here for per-band decode
// workspaces) and internal/workerpool.Pool (C4) as the executor, so no
// goroutine management is duplicated here.
func DecodeParallel(body []byte, attributedWidth, attributedHeight, background, nthreads int) (*Surface, error) {
	prescan := ScanBands(body, attributedWidth, attributedHeight)

	if !eligibleForParallel(nthreads, len(body), prescan) {
		return decodeBandsSerially(body, prescan, background)
	}

	surf := newSurface(prescan.Width, prescan.Height, background)
	maxIdx := make([]int, len(prescan.BandStart))

	pool := workerpool.New(nthreads, len(prescan.BandStart), 0, func(job workerpool.Job, userdata any, _ []byte) error {
		i := int(job)
		ctx := newDecodeCtx()
		applyBandState(ctx, prescan.BandState[i])
		ctx.posY = i * 6
		decodeRange(surf, ctx, body[prescan.BandStart[i]:prescan.BandEnd[i]])
		maxIdx[i] = ctx.maxColorIndex
		return nil
	}, nil)
	for i := range prescan.BandStart {
		if err := pool.Push(workerpool.Job(i)); err != nil {
			return nil, err
		}
	}
	if err := pool.Finish(); err != nil {
		return nil, err
	}

	finalMax := 0
	for _, m := range maxIdx {
		if m > finalMax {
			finalMax = m
		}
	}
	surf.ensurePalette(finalMax)
	surf.Palette = surf.Palette[:(finalMax+1)*3]
	return surf, nil
}

func applyBandState(ctx *decodeCtx, s ParamState) {
	ctx.pan, ctx.pad, ctx.ph, ctx.pv = s.Pan, s.Pad, s.PH, s.PV
	ctx.background = s.Background
	ctx.posX = s.PosX
	ctx.state = stateDECSIXEL
}

// decodeRange runs the DECSIXEL-state token loop over a single band's
// byte range against a shared surface, without touching DCS/ESC/GROUND
// transitions (the band is already known to be pure sixel data).
func decodeRange(surf *Surface, ctx *decodeCtx, band []byte) {
	i := 0
	for i < len(band) {
		b := band[i]
		switch ctx.state {
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
			default:
				if b >= 0x3f && b <= 0x7e {
					drawSixel(surf, ctx, b-sixelValueOffset)
					ctx.posX += ctx.repeat
					ctx.repeat = 1
				}
			}
		case stateDECGRA:
			if isDigit(b) {
				ctx.cur = ctx.cur*10 + int(b-'0')
				ctx.hasCur = true
			} else if b == ';' {
				ctx.params = append(ctx.params, ctx.cur)
				ctx.cur, ctx.hasCur = 0, false
			} else {
				if ctx.hasCur {
					ctx.params = append(ctx.params, ctx.cur)
				}
				applyRasterAttributes(surf, ctx)
				ctx.state = stateDECSIXEL
				i--
			}
		case stateDECGRI:
			if isDigit(b) {
				ctx.cur = ctx.cur*10 + int(b-'0')
				ctx.hasCur = true
			} else {
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
				i--
			}
		case stateDECGCI:
			if isDigit(b) {
				ctx.cur = ctx.cur*10 + int(b-'0')
				ctx.hasCur = true
			} else if b == ';' {
				ctx.params = append(ctx.params, ctx.cur)
				ctx.cur, ctx.hasCur = 0, false
			} else {
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
}

// decodeBandsSerially replays every prescanned band through decodeRange
// sequentially; DecodeParallel uses it as the ineligible-for-parallel
// fallback. DecodeParallel's eligible path runs the same decodeRange per
// band on pool workers, so the two differ only in scheduling. The serial
// Decode has its own token loop and does not go through decodeRange.
func decodeBandsSerially(body []byte, prescan *Prescan, background int) (*Surface, error) {
	surf := newSurface(prescan.Width, prescan.Height, background)
	ctx := newDecodeCtx()
	ctx.state = stateDECSIXEL
	for i := range prescan.BandStart {
		decodeRange(surf, ctx, body[prescan.BandStart[i]:prescan.BandEnd[i]])
		if i < len(prescan.BandStart)-1 {
			ctx.posX = 0
			ctx.posY += 6
		}
	}
	surf.ensurePalette(ctx.maxColorIndex)
	surf.Palette = surf.Palette[:(ctx.maxColorIndex+1)*3]
	return surf, nil
}
