package sixelcodec

import (
	"fmt"

	"github.com/deepteams/sixel/internal/sixelio"
)

// EncodeOptions configures the band-layout RLE encoder.
type EncodeOptions struct {
	Policy  sixelio.EncodePolicy
	Control sixelio.ControlMode
	Palette sixelio.PaletteType
	SkipDCS bool
}

// Encode writes indices (one palette index per pixel, row-major,
// width*height long) against palette (RGB triplets) to sink as a
// complete SIXEL DCS stream, per spec.md §4.7. Output is produced in one
// strictly sequential pass; spec.md §5 forbids parallelizing the
// encoder itself.
func Encode(sink *sixelio.Sink, indices []int, width, height int, palette []byte, opts EncodeOptions) error {
	if len(indices) != width*height {
		return fmt.Errorf("sixelcodec: indices length %d != width*height %d", len(indices), width*height)
	}
	ncolors := len(palette) / 3

	if !opts.SkipDCS {
		sink.Control = opts.Control
		sink.WriteString(sink.DCSIntroducer())
		sink.WriteString("0;0;0q")
		sink.WriteString(fmt.Sprintf("%c1;1;%d;%d", rasterAttributeIntroducer, width, height))
	}

	for i := 0; i < ncolors; i++ {
		writePaletteEntry(sink, i, palette, opts.Palette)
	}

	nbands := (height + 5) / 6
	for band := 0; band < nbands; band++ {
		if band > 0 {
			sink.WriteByte(graphicsNextLine)
		}
		encodeBand(sink, indices, width, height, band*6, ncolors, opts.Policy)
	}

	if !opts.SkipDCS {
		sink.WriteString(sink.STTerminator())
	}
	return sink.Flush()
}

func writePaletteEntry(sink *sixelio.Sink, i int, palette []byte, kind sixelio.PaletteType) {
	r, g, b := palette[i*3], palette[i*3+1], palette[i*3+2]
	if kind == sixelio.PaletteHLS {
		h, l, s := rgbToHLS(r, g, b)
		sink.WriteString(fmt.Sprintf("%c%d;1;%d;%d;%d", graphicsColorIntroducer, i, h, l, s))
		return
	}
	sink.WriteString(fmt.Sprintf("%c%d;2;%d;%d;%d", graphicsColorIntroducer, i, rgbTo100(r), rgbTo100(g), rgbTo100(b)))
}

// encodeBand emits one six-row band: for each palette index present,
// build its column-mask vector in a pooled OutputNode and RLE-encode
// it, per spec.md §4.7.2-3.
func encodeBand(sink *sixelio.Sink, indices []int, width, height, baseY int, ncolors int, policy sixelio.EncodePolicy) {
	present := collectPresentPalettes(indices, width, height, baseY, ncolors)
	if len(present) == 0 {
		return
	}

	nodes := make([]*sixelio.OutputNode, len(present))
	for i, p := range present {
		n := sink.GetNode()
		n.PaletteIndex = p
		n.Map = columnMask(indices, width, height, baseY, p, n.Map)
		n.StartCol, n.EndCol = firstLastNonZero(n.Map)
		nodes[i] = n
	}

	order := orderPalettes(nodes)

	for i, n := range order {
		if i > 0 {
			sink.WriteByte(graphicsCarriageReturn)
		}
		sink.WriteString(fmt.Sprintf("%c%d", graphicsColorIntroducer, n.PaletteIndex))
		writeRLE(sink, n.Map, policy)
	}

	for _, n := range nodes {
		sink.PutNode(n)
	}
}

func collectPresentPalettes(indices []int, width, height, baseY, ncolors int) []int {
	seen := make([]bool, ncolors)
	order := make([]int, 0, ncolors)
	for k := 0; k < 6; k++ {
		y := baseY + k
		if y >= height {
			break
		}
		for x := 0; x < width; x++ {
			p := indices[y*width+x]
			if !seen[p] {
				seen[p] = true
				order = append(order, p)
			}
		}
	}
	return order
}

// columnMask builds the band's 6-bit draw mask for palette index p: bit
// k is set iff pixel (x, baseY+k) has index p. reuse, if it has enough
// capacity, is zeroed and reused in place instead of allocating.
func columnMask(indices []int, width, height, baseY, p int, reuse []byte) []byte {
	var mask []byte
	if cap(reuse) >= width {
		mask = reuse[:width]
		for i := range mask {
			mask[i] = 0
		}
	} else {
		mask = make([]byte, width)
	}
	for k := 0; k < 6; k++ {
		y := baseY + k
		if y >= height {
			break
		}
		bit := byte(1) << uint(k)
		for x := 0; x < width; x++ {
			if indices[y*width+x] == p {
				mask[x] |= bit
			}
		}
	}
	return mask
}

// orderPalettes picks the palette emission order for one band. The
// default is first-appearance order (always correct); when the band
// has enough palettes to plausibly benefit, a greedy "last-used-
// soonest-again" heuristic groups palettes whose masks have adjacent
// non-empty column ranges, which tends to shorten the carriage-return
// overhead between palettes. Ties fall back to first-appearance order.
func orderPalettes(nodes []*sixelio.OutputNode) []*sixelio.OutputNode {
	if len(nodes) <= 2 {
		return nodes
	}
	// Greedy nearest-neighbor chain by column-range adjacency, starting
	// from first appearance so ties preserve it exactly.
	used := make([]bool, len(nodes))
	order := make([]*sixelio.OutputNode, 0, len(nodes))
	cur := 0
	used[0] = true
	order = append(order, nodes[0])
	for len(order) < len(nodes) {
		best, bestDist := -1, -1
		for i, n := range nodes {
			if used[i] {
				continue
			}
			d := columnGap(nodes[cur], n)
			if best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		used[best] = true
		order = append(order, nodes[best])
		cur = best
	}
	return order
}

func firstLastNonZero(mask []byte) (start, end int) {
	start, end = -1, -1
	for i, b := range mask {
		if b != 0 {
			if start < 0 {
				start = i
			}
			end = i
		}
	}
	return
}

func columnGap(a, b *sixelio.OutputNode) int {
	if a.EndCol < b.StartCol {
		return b.StartCol - a.EndCol
	}
	if b.EndCol < a.StartCol {
		return a.StartCol - b.EndCol
	}
	return 0
}

// writeRLE encodes mask as a run-length sequence of sixel bytes, coalescing
// runs of length >= minRunLengthAuto (AUTO/SIZE) or always when policy is
// FAST and a run reaches length 2, per spec.md §4.7.3.
func writeRLE(sink *sixelio.Sink, mask []byte, policy sixelio.EncodePolicy) {
	threshold := minRunLengthAuto
	if policy == sixelio.PolicyFast {
		threshold = 2
	}
	i := 0
	for i < len(mask) {
		run := 1
		for i+run < len(mask) && mask[i+run] == mask[i] {
			run++
		}
		writeRun(sink, mask[i], run, threshold)
		i += run
	}
}

func writeRun(sink *sixelio.Sink, value byte, count, threshold int) {
	b := sixelValueOffset + value
	if count < threshold {
		for n := 0; n < count; n++ {
			sink.WriteByte(b)
		}
		return
	}
	for count > 255 {
		sink.WriteString(fmt.Sprintf("%c255%c", graphicsRepeatIntroducer, b))
		count -= 255
	}
	if count > 0 {
		sink.WriteString(fmt.Sprintf("%c%d%c", graphicsRepeatIntroducer, count, b))
	}
}
