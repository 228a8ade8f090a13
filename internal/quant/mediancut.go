package quant

import "sort"

// AxisMode selects how median cut picks the largest axis to split a box
// on, per spec.md §4.5.2.
type AxisMode int

const (
	AxisAuto AxisMode = iota
	AxisNorm
	AxisLum
)

// lumWeights are the luminance weights spec.md §4.5.2 specifies for the
// LUM axis-selection mode.
var lumWeights = [3]float64{0.2989, 0.5866, 0.1145}

// RepresentativeMode selects how median cut derives one output color from
// a box's member entries, per spec.md §4.5.2.
type RepresentativeMode int

const (
	RepresentativeAuto RepresentativeMode = iota // AUTO chooses center
	RepresentativeCenter
	RepresentativeAverage
	RepresentativeWeightedAverage
)

// box is one median-cut partition: a contiguous (after sorting) run of
// histogram entries and their total pixel weight.
type box struct {
	members []entry
	weight  int
}

func newBox(members []entry) box {
	b := box{members: members}
	for _, m := range members {
		b.weight += m.count
	}
	return b
}

// channelRange returns (min, max) of channel axis (0=r,1=g,2=b) for the
// member entries.
func (b box) channelRange(axis int) (lo, hi uint8) {
	lo, hi = 255, 0
	for _, m := range b.members {
		v := channelOf(m.c, axis)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return
}

func channelOf(c color, axis int) uint8 {
	switch axis {
	case 0:
		return c.r
	case 1:
		return c.g
	default:
		return c.b
	}
}

// largestAxis picks the split axis per the NORM or LUM rule.
func (b box) largestAxis(mode AxisMode) int {
	best, bestRange := 0, -1.0
	for axis := 0; axis < 3; axis++ {
		lo, hi := b.channelRange(axis)
		r := float64(hi) - float64(lo)
		if mode == AxisLum {
			r *= lumWeights[axis]
		}
		if r > bestRange {
			bestRange, best = r, axis
		}
	}
	return best
}

// splittable reports whether the box contains more than one distinct
// color (a single-color box cannot be split further).
func (b box) splittable() bool {
	if len(b.members) < 2 {
		return false
	}
	first := b.members[0].c
	for _, m := range b.members[1:] {
		if m.c != first {
			return true
		}
	}
	return false
}

// split partitions the box along axis at the pixel-count median (not the
// color-count median), per spec.md §4.5.2.
func (b box) split(axis int) (box, box) {
	members := make([]entry, len(b.members))
	copy(members, b.members)
	sort.Slice(members, func(i, j int) bool {
		return channelOf(members[i].c, axis) < channelOf(members[j].c, axis)
	})
	half := b.weight / 2
	acc, cut := 0, 1
	for i, m := range members {
		acc += m.count
		if acc >= half {
			cut = i + 1
			break
		}
	}
	if cut >= len(members) {
		cut = len(members) - 1
	}
	if cut < 1 {
		cut = 1
	}
	return newBox(members[:cut]), newBox(members[cut:])
}

// representative derives one output RGB color for the box under mode.
func (b box) representative(mode RepresentativeMode, h *Histogram) (r, g, bl uint8) {
	if mode == RepresentativeAuto {
		mode = RepresentativeCenter
	}
	switch mode {
	case RepresentativeCenter:
		var lo, hi [3]uint8
		for axis := 0; axis < 3; axis++ {
			lo[axis], hi[axis] = b.channelRange(axis)
		}
		return reconstruct(uint8((int(lo[0])+int(hi[0]))/2), h.shift),
			reconstruct(uint8((int(lo[1])+int(hi[1]))/2), h.shift),
			reconstruct(uint8((int(lo[2])+int(hi[2]))/2), h.shift)
	case RepresentativeAverage:
		var sr, sg, sb, n int
		for _, m := range b.members {
			sr += int(m.c.r)
			sg += int(m.c.g)
			sb += int(m.c.b)
			n++
		}
		return reconstruct(uint8(sr/n), h.shift), reconstruct(uint8(sg/n), h.shift), reconstruct(uint8(sb/n), h.shift)
	default: // RepresentativeWeightedAverage
		var sr, sg, sb, w int
		for _, m := range b.members {
			sr += int(m.c.r) * m.count
			sg += int(m.c.g) * m.count
			sb += int(m.c.b) * m.count
			w += m.count
		}
		if w == 0 {
			w = 1
		}
		return reconstruct(uint8(sr/w), h.shift), reconstruct(uint8(sg/w), h.shift), reconstruct(uint8(sb/w), h.shift)
	}
}

// MedianCut builds at most reqcolors output palette colors from the
// histogram via repeated most-populous-box splitting, per spec.md §4.5.2.
// Returns a tight RGB palette (3 bytes per color).
func MedianCut(h *Histogram, reqcolors int, axis AxisMode, rep RepresentativeMode) []byte {
	if reqcolors < 1 {
		reqcolors = 1
	}
	if h.Len() == 0 {
		return nil
	}
	boxes := []box{newBox(append([]entry(nil), h.entries...))}

	for len(boxes) < reqcolors {
		// Pick the most-populous splittable box.
		best := -1
		for i, bx := range boxes {
			if !bx.splittable() {
				continue
			}
			if best < 0 || bx.weight > boxes[best].weight {
				best = i
			}
		}
		if best < 0 {
			break // no splittable box remains
		}
		bx := boxes[best]
		a := bx.largestAxis(axis)
		left, right := bx.split(a)
		boxes[best] = left
		boxes = append(boxes, right)
	}

	palette := make([]byte, 0, len(boxes)*3)
	for _, bx := range boxes {
		r, g, b := bx.representative(rep, h)
		palette = append(palette, r, g, b)
	}
	return palette
}
