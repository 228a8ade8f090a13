package quant

// LookupMode selects the nearest-color strategy, auto-detected by
// NewNearestColorFinder per spec.md §4.5.3.
type LookupMode int

const (
	LookupNormal LookupMode = iota
	LookupFast
	LookupMonoDarkbg
	LookupMonoLightbg
)

// NearestColorFinder maps an RGB sample to a palette index under one of
// the three spec.md §4.5.3 lookup modes.
type NearestColorFinder struct {
	palette    []byte // ncolors*3
	ncolors    int
	complexion int
	mode       LookupMode
	shift      int // lattice shift for the fast-path cache key

	cache []int32 // 2^18 entries, 0 = uncached, else palette_index+1
}

// NewNearestColorFinder builds a finder for the given palette. mode
// LookupNormal auto-upgrades to LookupFast when depth==3 and the caller
// requested the fast path, or to one of the monochrome modes when the
// palette is exactly {black,white} or {white,black}.
func NewNearestColorFinder(palette []byte, complexion int, allowFast bool, policy LUTPolicy) *NearestColorFinder {
	n := &NearestColorFinder{
		palette:    palette,
		ncolors:    len(palette) / 3,
		complexion: complexion,
		shift:      policy.shiftFor(3),
	}
	if n.complexion < 1 {
		n.complexion = 1
	}
	if mono, darkbg := detectMono(palette); mono {
		if darkbg {
			n.mode = LookupMonoDarkbg
		} else {
			n.mode = LookupMonoLightbg
		}
		return n
	}
	if allowFast {
		n.mode = LookupFast
		n.cache = make([]int32, 1<<18)
	} else {
		n.mode = LookupNormal
	}
	return n
}

func detectMono(palette []byte) (mono, darkbg bool) {
	if len(palette) != 6 {
		return false, false
	}
	black := palette[0] == 0 && palette[1] == 0 && palette[2] == 0
	white := palette[3] == 255 && palette[4] == 255 && palette[5] == 255
	if black && white {
		return true, true
	}
	whiteFirst := palette[0] == 255 && palette[1] == 255 && palette[2] == 255
	blackSecond := palette[3] == 0 && palette[4] == 0 && palette[5] == 0
	if whiteFirst && blackSecond {
		return true, false
	}
	return false, false
}

// Nearest returns the palette index closest to (r,g,b).
func (n *NearestColorFinder) Nearest(r, g, b uint8) int {
	switch n.mode {
	case LookupMonoDarkbg, LookupMonoLightbg:
		sum := int(r) + int(g) + int(b)
		threshold := 128 * n.ncolors
		white := sum >= threshold
		if n.mode == LookupMonoDarkbg {
			if white {
				return 1
			}
			return 0
		}
		if white {
			return 0
		}
		return 1
	case LookupFast:
		return n.fastLookup(r, g, b)
	default:
		return n.linearScan(r, g, b)
	}
}

func (n *NearestColorFinder) fastLookup(r, g, b uint8) int {
	lr := latticeIndex(r, n.shift)
	lg := latticeIndex(g, n.shift)
	lb := latticeIndex(b, n.shift)
	bits := 18 / 3
	key := (int(lr)<<(2*bits) | int(lg)<<bits | int(lb)) & (1<<18 - 1)
	if v := n.cache[key]; v != 0 {
		return int(v - 1)
	}
	idx := n.linearScan(r, g, b)
	n.cache[key] = int32(idx + 1)
	return idx
}

// linearScan computes the complexion-corrected squared distance
// Δr²·complexion + Δg² + Δb² against every palette entry.
func (n *NearestColorFinder) linearScan(r, g, b uint8) int {
	best, bestDist := 0, -1
	for i := 0; i < n.ncolors; i++ {
		pr := int(n.palette[i*3])
		pg := int(n.palette[i*3+1])
		pb := int(n.palette[i*3+2])
		dr := int(r) - pr
		dg := int(g) - pg
		db := int(b) - pb
		dist := dr*dr*n.complexion + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			bestDist, best = dist, i
		}
	}
	return best
}
