package quant

// carryScaleShift and friends implement the Q20.12 fixed-point error
// accumulator original_source/src/quant.c calls VARERR_SCALE_SHIFT/
// VARERR_SCALE/VARERR_ROUND/VARERR_MAX_VALUE: error too small to affect
// an 8-bit sample this row still nudges future rows instead of vanishing
// to rounding, per spec.md §4.5.3's carry-mode description.
const (
	carryScaleShift = 12
	carryRound      = 1 << (carryScaleShift - 1)
	carryMaxValue   = 255 << carryScaleShift
)

// carryRows holds the three pending-error row buffers (current row,
// next row, two rows down) a carry-mode diffusion pass threads through,
// one int32 slot per (x, channel) pair. Rows rotate after each scanline:
// curr becomes next, next becomes far, far is zeroed.
type carryRows struct {
	curr, next, far []int32
}

func newCarryRows(width, depth int) *carryRows {
	n := width * depth
	return &carryRows{
		curr: make([]int32, n),
		next: make([]int32, n),
		far:  make([]int32, n),
	}
}

func (c *carryRows) rotate() {
	c.curr, c.next, c.far = c.next, c.far, c.curr
	for i := range c.curr {
		c.far[i] = 0
	}
}

func diffuseFixedTerm(errVal int32, num, den int) int32 {
	delta := int64(errVal) * int64(num)
	if delta >= 0 {
		delta = (delta + int64(den)/2) / int64(den)
	} else {
		delta = (delta - int64(den)/2) / int64(den)
	}
	return int32(delta)
}

// ApplyPaletteFixedCarry is ApplyPaletteFixed's carry-mode counterpart:
// diffused error accumulates in Q20.12 fixed point across three
// scanlines instead of truncating into the 8-bit sample each step, per
// spec.md §4.5.3 and original_source/src/quant.c's *_carry family.
func ApplyPaletteFixedCarry(pixels []byte, width, height, depth int, finder *NearestColorFinder, method DiffuseMethod, order ScanOrder, indices []int) {
	k := kernelFor(method)
	rows := newCarryRows(width, depth)

	for y := 0; y < height; y++ {
		start, end, step, direction := scanlineParams(order, y, width)
		for x := start; x != end; x += step {
			pos := y*width + x
			off := pos * depth
			carryOff := x * depth
			var sample [3]byte
			var work [3]int64
			for c := 0; c < 3; c++ {
				accum := int64(pixels[off+c])<<carryScaleShift + int64(rows.curr[carryOff+c])
				rows.curr[carryOff+c] = 0
				clamped := accum
				if clamped < 0 {
					clamped = 0
				} else if clamped > carryMaxValue {
					clamped = carryMaxValue
				}
				work[c] = clamped
				sample[c] = clampByte(int((clamped + carryRound) >> carryScaleShift))
			}
			idx := finder.Nearest(sample[0], sample[1], sample[2])
			indices[pos] = idx
			if method == DiffuseNone {
				continue
			}
			pr, pg, pb := finder.palette[idx*3], finder.palette[idx*3+1], finder.palette[idx*3+2]
			errs := [3]int32{
				int32(work[0] - int64(pr)<<carryScaleShift),
				int32(work[1] - int64(pg)<<carryScaleShift),
				int32(work[2] - int64(pb)<<carryScaleShift),
			}
			for _, t := range k.taps {
				dx := t.dx
				if direction < 0 {
					dx = -dx
				}
				nx := x + dx
				if nx < 0 || nx >= width {
					continue
				}
				target := rowForDY(rows, t.dy)
				if target == nil {
					continue
				}
				base := nx * depth
				for c := 0; c < 3; c++ {
					target[base+c] += diffuseFixedTerm(errs[c], t.num, k.den)
				}
			}
		}
		rows.rotate()
	}
}

func rowForDY(rows *carryRows, dy int) []int32 {
	switch dy {
	case 0:
		return rows.curr
	case 1:
		return rows.next
	case 2:
		return rows.far
	default:
		return nil
	}
}
