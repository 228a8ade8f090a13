// Package quant implements the core's quantizer (spec component C5):
// histogram sampling, median-cut palette selection, and palette
// application with positional/error-diffusion/carry dithering.
//
// Grounded on internal/lossless/encode_histogram.go's Histogram shape
// (NewHistogram/Clear/AddSingle-style accumulation) and
// internal/dsp/cliptables.go's precomputed-offset-table idiom for the
// nearest-color fast path.
package quant

// Quality controls how many pixels the histogram samples, per spec.md
// §4.5.1.
type Quality int

const (
	QualityFull Quality = iota
	QualityHigh
	QualityLow
)

// sampleCap returns the bounded sample count for a quality mode.
func (q Quality) sampleCap() int {
	switch q {
	case QualityHigh:
		return 1118383
	case QualityLow:
		return 18383
	default:
		return 4003079
	}
}

// color is a lattice-quantized RGB triplet, used as a histogram key.
type color struct{ r, g, b uint8 }

// entry is one histogram bucket: a lattice color, its pixel count, and
// its first-insertion order (so distinct colors survive deduplication in
// output order, per spec.md §4.5.1's "refmap").
type entry struct {
	c     color
	count int
	order int
}

// Histogram counts lattice-quantized pixel occurrences.
type Histogram struct {
	depth  int
	shift  int
	policy LUTPolicy
	index  map[color]int // color -> index into entries
	entries []entry
}

// NewHistogram creates a Histogram for pixel data with the given channel
// depth (3 for RGB, more for RGBA-and-beyond inputs where extra channels
// are ignored by the quantizer) and LUT policy.
func NewHistogram(depth int, policy LUTPolicy) *Histogram {
	return &Histogram{
		depth:  depth,
		shift:  policy.shiftFor(depth),
		policy: policy,
		index:  make(map[color]int),
	}
}

// latticeIndex centers the sample in its bucket rather than truncating to
// the bucket's lower edge, per spec.md §4.5.1.
func latticeIndex(sample uint8, shift int) uint8 {
	if shift == 0 {
		return sample
	}
	half := uint16(1) << uint(shift-1)
	v := (uint16(sample) + half) >> uint(shift)
	mask := uint16(0xff) >> uint(shift)
	if v > mask {
		v = mask
	}
	return uint8(v)
}

// reconstruct maps a lattice-quantized channel value back to a
// representative 8-bit value: quantized<<shift | 2^(shift-1), except the
// maximum bucket reconstructs to exactly 255 (spec.md §4.5.1 and §8's
// "the bucket for a pure-255 channel reconstructs as exactly 255").
func reconstruct(quantized uint8, shift int) uint8 {
	if shift == 0 {
		return quantized
	}
	mask := uint8(0xff) >> uint(shift)
	if quantized == mask {
		return 255
	}
	half := uint8(1) << uint(shift-1)
	return quantized<<uint(shift) | half
}

// Sample decimates pixels (packed depth-channel samples, RGB first three
// channels used) to the quality mode's bounded sample count at
// stride = max(1, length/depth/cap), quantizing each sampled pixel to the
// lattice and accumulating counts.
func (h *Histogram) Sample(pixels []byte, quality Quality) {
	npixels := len(pixels) / h.depth
	if npixels == 0 {
		return
	}
	stride := npixels / quality.sampleCap()
	if stride < 1 {
		stride = 1
	}
	for p := 0; p < npixels; p += stride {
		off := p * h.depth
		c := color{
			r: latticeIndex(pixels[off], h.shift),
			g: latticeIndex(pixels[off+1], h.shift),
			b: latticeIndex(pixels[off+2], h.shift),
		}
		h.add(c)
	}
}

func (h *Histogram) add(c color) {
	if idx, ok := h.index[c]; ok {
		h.entries[idx].count++
		return
	}
	h.index[c] = len(h.entries)
	h.entries = append(h.entries, entry{c: c, count: 1, order: len(h.entries)})
}

// Len returns the number of distinct lattice colors observed.
func (h *Histogram) Len() int { return len(h.entries) }

// ReconstructedRGB returns the output-palette RGB triplet for entry i,
// mapping each lattice channel back through reconstruct.
func (h *Histogram) ReconstructedRGB(i int) (r, g, b uint8) {
	c := h.entries[i].c
	return reconstruct(c.r, h.shift), reconstruct(c.g, h.shift), reconstruct(c.b, h.shift)
}
