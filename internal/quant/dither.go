package quant

// ScanOrder selects whether palette application sweeps every row left to
// right (Normal) or alternates direction per row (Serpentine), per
// spec.md §4.5.3.
type ScanOrder int

const (
	ScanNormal ScanOrder = iota
	ScanSerpentine
)

// DiffuseMethod selects the error-propagation strategy palette application
// uses, per spec.md §4.5.3.
type DiffuseMethod int

const (
	DiffuseNone DiffuseMethod = iota
	DiffuseFS
	DiffuseAtkinson
	DiffuseJaJuNi
	DiffuseStucki
	DiffuseBurkes
	DiffuseLSO1
	DiffuseLSO2
	DiffuseLSO3
	DiffuseADither
	DiffuseXDither
)

// kernelTap is one (dx, dy, numerator) weighted neighbor offset a
// fixed-kernel diffusion method deposits error into. Offsets are mirrored
// horizontally on right-to-left serpentine rows.
type kernelTap struct {
	dx, dy int
	num    int
}

// kernel bundles a fixed diffusion method's taps and common denominator.
type kernel struct {
	taps []kernelTap
	den  int
}

// Kernels grounded on original_source/src/quant.c's diffuse_fs,
// diffuse_atkinson, diffuse_jajuni, diffuse_stucki, diffuse_burkes and
// diffuse_lso1 (the last is libsixel's own RLE-friendly kernel, not a
// published method).
var (
	kernelFS = kernel{den: 16, taps: []kernelTap{
		{1, 0, 7},
		{-1, 1, 3}, {0, 1, 5}, {1, 1, 1},
	}}
	kernelAtkinson = kernel{den: 8, taps: []kernelTap{
		{1, 0, 1}, {2, 0, 1},
		{-1, 1, 1}, {0, 1, 1}, {1, 1, 1},
		{0, 2, 1},
	}}
	kernelJaJuNi = kernel{den: 48, taps: []kernelTap{
		{1, 0, 7}, {2, 0, 5},
		{-2, 1, 3}, {-1, 1, 5}, {0, 1, 7}, {1, 1, 5}, {2, 1, 3},
		{-2, 2, 1}, {-1, 2, 3}, {0, 2, 5}, {1, 2, 3}, {2, 2, 1},
	}}
	kernelStucki = kernel{den: 48, taps: []kernelTap{
		{1, 0, 8}, {2, 0, 4},
		{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
		{-2, 2, 1}, {-1, 2, 2}, {0, 2, 4}, {1, 2, 2}, {2, 2, 1},
	}}
	kernelBurkes = kernel{den: 16, taps: []kernelTap{
		{1, 0, 4}, {2, 0, 2},
		{-2, 1, 1}, {-1, 1, 2}, {0, 1, 4}, {1, 1, 2}, {2, 1, 1},
	}}
	kernelLSO1 = kernel{den: 8, taps: []kernelTap{
		{-1, 1, 1}, {0, 1, 4}, {1, 1, 1},
		{0, 2, 2},
	}}
)

func kernelFor(m DiffuseMethod) kernel {
	switch m {
	case DiffuseFS:
		return kernelFS
	case DiffuseAtkinson:
		return kernelAtkinson
	case DiffuseJaJuNi:
		return kernelJaJuNi
	case DiffuseStucki:
		return kernelStucki
	case DiffuseBurkes:
		return kernelBurkes
	case DiffuseLSO1:
		return kernelLSO1
	default:
		return kernel{}
	}
}

// maskA and maskX are the positional (ordered) dither masks from
// original_source/src/quant.c's mask_a/mask_x, scaled to roughly [-1,1)
// and then by 32 at the call site to match the original's "+/- 32 levels"
// perturbation.
func maskA(x, y, c int) float64 {
	return float64((((x+c*67)+y*236)*119)&255)/128.0 - 1.0
}

func maskX(x, y, c int) float64 {
	return float64((((x+c*29)^(y*149))*1234)&511)/256.0 - 1.0
}

// scanlineParams mirrors original_source/src/quant.c's scanline_params:
// on odd rows under serpentine scanning, the sweep runs right-to-left and
// kernel taps mirror horizontally (direction < 0).
func scanlineParams(order ScanOrder, y, width int) (start, end, step, direction int) {
	if order == ScanSerpentine && y%2 == 1 {
		return width - 1, -1, -1, -1
	}
	return 0, width, 1, 1
}

// ApplyPaletteFixed quantizes pixels (depth channels per pixel, row-major)
// against palette using a fixed-kernel or no-op diffusion method and
// writes one palette index per pixel into indices. depth is normally 3
// (RGB); callers with alpha or grayscale data pre-expand to RGB before
// calling. This implements spec.md §4.5.3's non-variable-coefficient,
// non-positional path (apply_palette_fixed in the original).
func ApplyPaletteFixed(pixels []byte, width, height, depth int, finder *NearestColorFinder, method DiffuseMethod, order ScanOrder, indices []int) {
	k := kernelFor(method)
	work := make([]byte, len(pixels))
	copy(work, pixels)

	for y := 0; y < height; y++ {
		start, end, step, direction := scanlineParams(order, y, width)
		for x := start; x != end; x += step {
			pos := y*width + x
			off := pos * depth
			r, g, b := work[off], work[off+1], work[off+2]
			idx := finder.Nearest(r, g, b)
			indices[pos] = idx

			pr, pg, pb := finder.palette[idx*3], finder.palette[idx*3+1], finder.palette[idx*3+2]
			errs := [3]int{int(r) - int(pr), int(g) - int(pg), int(b) - int(pb)}
			if method == DiffuseNone {
				continue
			}
			for _, t := range k.taps {
				dx := t.dx
				if direction < 0 {
					dx = -dx
				}
				nx, ny := x+dx, y+t.dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				npos := (ny*width + nx) * depth
				for c := 0; c < 3; c++ {
					v := int(work[npos+c]) + diffuseTerm(errs[c], t.num, k.den)
					work[npos+c] = clampByte(v)
				}
			}
		}
	}
}

// ApplyPalettePositional quantizes pixels against palette using one of
// the ordered-dither masks (A_DITHER/X_DITHER): each channel is perturbed
// by mask(x,y,channel)*32 before the nearest-color lookup, with no error
// carried to neighboring pixels. Grounded on
// original_source/src/quant.c's apply_palette_positional.
func ApplyPalettePositional(pixels []byte, width, height, depth int, finder *NearestColorFinder, method DiffuseMethod, order ScanOrder, indices []int) {
	var f func(x, y, c int) float64
	if method == DiffuseADither {
		f = maskA
	} else {
		f = maskX
	}
	var tmp [3]byte
	for y := 0; y < height; y++ {
		start, end, step, _ := scanlineParams(order, y, width)
		for x := start; x != end; x += step {
			pos := y*width + x
			off := pos * depth
			for c := 0; c < 3; c++ {
				v := int(pixels[off+c]) + int(f(x, y, c)*32)
				tmp[c] = clampByte(v)
			}
			indices[pos] = finder.Nearest(tmp[0], tmp[1], tmp[2])
		}
	}
}

// diffuseTerm scales error by num/den with rounding toward zero, matching
// original_source/src/quant.c's error_diffuse_normal (integer truncation,
// not rounding).
func diffuseTerm(errVal, num, den int) int {
	return errVal * num / den
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
