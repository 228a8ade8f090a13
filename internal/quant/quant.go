package quant

import "github.com/deepteams/sixel/internal/status"

// CarryMode selects whether palette application keeps its running error
// in the pixel buffer (classic libsixel behavior) or in fixed-point
// carry rows spanning three scanlines (spec.md §4.5.3).
type CarryMode int

const (
	CarryDisabled CarryMode = iota
	CarryEnabled
)

// Options configures a Quantizer run end to end: histogram sampling,
// median-cut box selection, and palette application.
type Options struct {
	ReqColors      int
	Quality        Quality
	LUTPolicy      LUTPolicy
	Axis           AxisMode
	Representative RepresentativeMode
	Diffuse        DiffuseMethod
	Scan           ScanOrder
	Carry          CarryMode
	Complexion     int
	AllowFastPath  bool
	OptimizePalette bool
}

// Result is the output of a full quantize-and-apply pass: a tight RGB
// palette and one index per pixel into it.
type Result struct {
	Palette []byte // ncolors*3
	NColors int
	Indices []int // one per pixel, row-major
}

// Quantize builds a palette for pixels (RGB triplets, row-major,
// width*height*3 bytes) and applies it, producing per-pixel indices. It
// ties together Histogram, MedianCut, NearestColorFinder and the
// ApplyPalette* family per spec.md §4.5 end to end.
func Quantize(pixels []byte, width, height int, opts Options) (*Result, error) {
	if opts.ReqColors < 1 {
		return nil, status.New(status.BadArgument, "quant: reqcolors must be >= 1")
	}
	if width <= 0 || height <= 0 {
		return nil, status.New(status.BadArgument, "quant: width and height must be positive")
	}
	if len(pixels) < width*height*3 {
		return nil, status.New(status.BadArgument, "quant: pixel buffer shorter than width*height*3")
	}

	h := NewHistogram(3, opts.LUTPolicy)
	h.Sample(pixels, opts.Quality)
	if h.Len() == 0 {
		return nil, status.New(status.BadInput, "quant: no pixels to sample")
	}

	palette := MedianCut(h, opts.ReqColors, opts.Axis, opts.Representative)
	if len(palette) == 0 {
		return nil, status.New(status.RuntimeError, "quant: median cut produced no palette")
	}
	ncolors := len(palette) / 3

	complexion := opts.Complexion
	if complexion < 1 {
		complexion = 1
	}
	finder := NewNearestColorFinder(palette, complexion, opts.AllowFastPath, opts.LUTPolicy)

	indices := make([]int, width*height)
	applyPalette(pixels, width, height, finder, opts, indices)

	res := &Result{Palette: palette, NColors: ncolors, Indices: indices}
	if opts.OptimizePalette {
		trimmed, n := OptimizePalette(indices, palette)
		res.Palette = trimmed
		res.NColors = n
	}
	return res, nil
}

// ApplyFixedPalette applies a caller-supplied palette (e.g. a built-in
// terminal palette, spec.md §6's `-b` flag) to pixels without running
// the histogram/median-cut stages, reusing the same dithering code
// paths Quantize uses. NColors is always len(palette)/3 since a fixed
// palette is never trimmed by OptimizePalette.
func ApplyFixedPalette(pixels []byte, width, height int, palette []byte, opts Options) (*Result, error) {
	if width <= 0 || height <= 0 {
		return nil, status.New(status.BadArgument, "quant: width and height must be positive")
	}
	if len(pixels) < width*height*3 {
		return nil, status.New(status.BadArgument, "quant: pixel buffer shorter than width*height*3")
	}
	if len(palette) == 0 || len(palette)%3 != 0 {
		return nil, status.New(status.BadArgument, "quant: fixed palette must be a non-empty multiple of 3 bytes")
	}

	complexion := opts.Complexion
	if complexion < 1 {
		complexion = 1
	}
	finder := NewNearestColorFinder(palette, complexion, opts.AllowFastPath, opts.LUTPolicy)

	indices := make([]int, width*height)
	applyPalette(pixels, width, height, finder, opts, indices)

	return &Result{Palette: palette, NColors: len(palette) / 3, Indices: indices}, nil
}

// applyPalette dispatches to the positional, fixed-kernel or
// variable-coefficient code path, per spec.md §4.5.3's three-way split.
// Only the fixed-kernel path honours opts.Carry; the positional and
// variable-coefficient paths run without carry mode whatever it is set to.
func applyPalette(pixels []byte, width, height int, finder *NearestColorFinder, opts Options, indices []int) {
	const depth = 3
	switch {
	case opts.Diffuse == DiffuseADither || opts.Diffuse == DiffuseXDither:
		ApplyPalettePositional(pixels, width, height, depth, finder, opts.Diffuse, opts.Scan, indices)
	case opts.Diffuse == DiffuseLSO2 || opts.Diffuse == DiffuseLSO3:
		ApplyPaletteVariable(pixels, width, height, depth, finder, opts.Diffuse, opts.Scan, indices)
	case opts.Carry == CarryEnabled:
		ApplyPaletteFixedCarry(pixels, width, height, depth, finder, opts.Diffuse, opts.Scan, indices)
	default:
		ApplyPaletteFixed(pixels, width, height, depth, finder, opts.Diffuse, opts.Scan, indices)
	}
}
