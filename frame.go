package sixel

import (
	"image"
	"image/color"
	"math"

	"github.com/deepteams/sixel/internal/status"
	"golang.org/x/image/draw"
)

// PixelFormat identifies the memory layout of a Frame's pixel buffer.
type PixelFormat int

const (
	FormatRGB888 PixelFormat = iota
	FormatRGBA8888
	FormatBGR888
	FormatBGRA8888
	FormatARGB8888
	FormatGray1
	FormatGray2
	FormatGray4
	FormatGray8
	FormatPaletted1
	FormatPaletted2
	FormatPaletted4
	FormatPaletted8
)

// BytesPerPixel returns the in-memory stride contribution of one pixel.
// Sub-byte grayscale/paletted formats are stored unpacked, one byte per
// pixel sample, so bytes-per-pixel is 1 for every 1/2/4/8-bit format; the
// BitDepth method records the semantic value range separately.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGB888, FormatBGR888:
		return 3
	case FormatRGBA8888, FormatBGRA8888, FormatARGB8888:
		return 4
	default:
		return 1
	}
}

// IsPaletted reports whether the format indexes into Frame.Palette.
func (f PixelFormat) IsPaletted() bool {
	switch f {
	case FormatPaletted1, FormatPaletted2, FormatPaletted4, FormatPaletted8:
		return true
	default:
		return false
	}
}

// IsGray reports whether the format is a grayscale (non-paletted,
// non-color) format.
func (f PixelFormat) IsGray() bool {
	switch f {
	case FormatGray1, FormatGray2, FormatGray4, FormatGray8:
		return true
	default:
		return false
	}
}

// BitDepth returns the semantic bit depth of one pixel sample: 1, 2, 4, or
// 8 for grayscale/paletted formats, 8 for true-color formats.
func (f PixelFormat) BitDepth() int {
	switch f {
	case FormatGray1, FormatPaletted1:
		return 1
	case FormatGray2, FormatPaletted2:
		return 2
	case FormatGray4, FormatPaletted4:
		return 4
	default:
		return 8
	}
}

// Frame owns a pixel buffer plus the metadata spec.md §3 requires: width,
// height, pixel format, an optional palette, transparent index, and
// animation bookkeeping (multiframe flag, delay, frame index, loop
// index). It is the handoff type between external loaders, the quantizer,
// the encoder, and the decoder.
type Frame struct {
	Width, Height int
	Format        PixelFormat
	Pixels        []byte // width*height*Format.BytesPerPixel() bytes

	Palette         []byte // ncolors*3 bytes (R,G,B), only if Format.IsPaletted()
	NColors         int
	TransparentIdx  int // -1 if none
	Multiframe      bool
	DelayTicks      int // 10ms ticks
	FrameIndex      int
	LoopIndex       int

	colorspaceTag Colorspace
}

// New allocates an empty Frame of the given dimensions and format, with a
// zero-filled pixel buffer (and, for paletted formats, a zero-filled
// palette of ncolors entries).
func New(width, height int, format PixelFormat, ncolors int) *Frame {
	f := &Frame{
		Width:          width,
		Height:         height,
		Format:         format,
		Pixels:         make([]byte, width*height*format.BytesPerPixel()),
		TransparentIdx: -1,
	}
	if format.IsPaletted() {
		if ncolors <= 0 {
			ncolors = 1 << uint(format.BitDepth())
		}
		f.NColors = ncolors
		f.Palette = make([]byte, ncolors*3)
	}
	return f
}

// Init populates a Frame in place from caller-supplied pixel data,
// validating the invariants spec.md §3 requires: pixel_bytes must equal
// width*height*bytes_per_pixel(format); paletted formats must have
// ncolors in [1, 256] and every index byte must be < ncolors.
func Init(pixels []byte, width, height int, format PixelFormat, palette []byte, ncolors int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, status.New(status.BadArgument, "non-positive dimensions %dx%d", width, height)
	}
	want := width * height * format.BytesPerPixel()
	if len(pixels) != want {
		return nil, status.New(status.BadArgument,
			"pixel buffer length %d does not match %dx%d at %d bytes/pixel (want %d)",
			len(pixels), width, height, format.BytesPerPixel(), want)
	}
	f := &Frame{
		Width:          width,
		Height:         height,
		Format:         format,
		Pixels:         pixels,
		TransparentIdx: -1,
	}
	if format.IsPaletted() {
		if ncolors <= 0 || ncolors > 256 {
			return nil, status.New(status.BadArgument, "ncolors %d out of range [1,256]", ncolors)
		}
		if len(palette) != ncolors*3 {
			return nil, status.New(status.BadArgument,
				"palette length %d does not match ncolors %d at 3 bytes/color", len(palette), ncolors)
		}
		for _, b := range pixels {
			if int(b) >= ncolors {
				return nil, status.New(status.BadInput, "pixel index %d >= ncolors %d", b, ncolors)
			}
		}
		f.NColors = ncolors
		f.Palette = palette
	}
	return f, nil
}

// Resampler selects the interpolation kernel Resize uses, matching the
// CLI's `-r` flag (spec.md §6).
type Resampler int

const (
	ResamplerNearest Resampler = iota
	ResamplerBilinear
	ResamplerBicubic
	ResamplerCatmullRom
	ResamplerLanczos
)

func (r Resampler) kernel() draw.Interpolator {
	switch r {
	case ResamplerNearest:
		return draw.NearestNeighbor
	case ResamplerBilinear:
		return draw.ApproxBiLinear
	case ResamplerBicubic:
		return draw.BiLinear // x/image ships no separate bicubic; approximate with BiLinear.
	case ResamplerCatmullRom:
		return draw.CatmullRom
	case ResamplerLanczos:
		return &lanczos3Kernel
	default:
		return draw.ApproxBiLinear
	}
}

// lanczos3Kernel approximates a Lanczos-3 resampling kernel; x/image does
// not ship one, so this composes draw.Kernel with a hand-rolled sinc
// weighting function per spec.md §6's "-r <resampler>" options.
var lanczos3Kernel = draw.Kernel{
	Support: 3,
	At:      lanczosAt,
}

func lanczosAt(x float64) float64 {
	const a = 3.0
	if x == 0 {
		return 1
	}
	if x < -a || x > a {
		return 0
	}
	px := math.Pi * x
	return a * math.Sin(px) * math.Sin(px/a) / (px * px)
}

// Resize scales the Frame to the given dimensions using the requested
// resampler. Always produces an RGBA8888 frame, since x/image/draw's
// scalers operate on image.Image.
func (f *Frame) Resize(width, height int, r Resampler) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, status.New(status.BadArgument, "non-positive resize target %dx%d", width, height)
	}
	src := f.ToImage()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	r.kernel().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return FrameFromImage(dst), nil
}

// Clip extracts the width x height sub-rectangle starting at (x, y).
func (f *Frame) Clip(x, y, width, height int) (*Frame, error) {
	if x < 0 || y < 0 || width <= 0 || height <= 0 || x+width > f.Width || y+height > f.Height {
		return nil, status.New(status.BadArgument, "clip rect (%d,%d %dx%d) out of bounds %dx%d",
			x, y, width, height, f.Width, f.Height)
	}
	bpp := f.Format.BytesPerPixel()
	out := New(width, height, f.Format, f.NColors)
	out.Palette = f.Palette
	out.NColors = f.NColors
	out.TransparentIdx = f.TransparentIdx
	srcStride := f.Width * bpp
	dstStride := width * bpp
	for row := 0; row < height; row++ {
		srcOff := (y+row)*srcStride + x*bpp
		dstOff := row * dstStride
		copy(out.Pixels[dstOff:dstOff+dstStride], f.Pixels[srcOff:srcOff+dstStride])
	}
	return out, nil
}

// StripAlpha composites the Frame over bgColor (default opaque black) and
// drops the alpha channel, producing an RGB888 frame. No-op (returns f
// itself) if the Frame carries no alpha channel.
func (f *Frame) StripAlpha(bgColor color.NRGBA) *Frame {
	if f.Format != FormatRGBA8888 && f.Format != FormatBGRA8888 && f.Format != FormatARGB8888 {
		return f
	}
	out := New(f.Width, f.Height, FormatRGB888, 0)
	for i := 0; i < f.Width*f.Height; i++ {
		r, g, b, a := f.pixelRGBA(i)
		ia := 255 - a
		or := (uint16(r)*uint16(a) + uint16(bgColor.R)*uint16(ia)) / 255
		og := (uint16(g)*uint16(a) + uint16(bgColor.G)*uint16(ia)) / 255
		ob := (uint16(b)*uint16(a) + uint16(bgColor.B)*uint16(ia)) / 255
		out.Pixels[i*3+0] = byte(or)
		out.Pixels[i*3+1] = byte(og)
		out.Pixels[i*3+2] = byte(ob)
	}
	return out
}

func (f *Frame) pixelRGBA(i int) (r, g, b, a byte) {
	switch f.Format {
	case FormatRGBA8888:
		p := f.Pixels[i*4 : i*4+4]
		return p[0], p[1], p[2], p[3]
	case FormatBGRA8888:
		p := f.Pixels[i*4 : i*4+4]
		return p[2], p[1], p[0], p[3]
	case FormatARGB8888:
		p := f.Pixels[i*4 : i*4+4]
		return p[1], p[2], p[3], p[0]
	default:
		return 0, 0, 0, 255
	}
}

// EnsureColorspace converts between gamma-encoded (sRGB) and linear RGB
// representations in place, using the same lookup-table approach the
// teacher's sharpyuv gamma tables used, reduced to the sRGB transfer
// function only (the core has no need for the full H.273 enumeration).
func (f *Frame) EnsureColorspace(target Colorspace) error {
	if f.Format.IsPaletted() || f.Format.IsGray() {
		return status.New(status.BadArgument, "EnsureColorspace requires a true-color format")
	}
	if target == f.colorspace() {
		return nil
	}
	var lut *[256]byte
	if target == ColorspaceLinear {
		lut = &gammaToLinearLUT
	} else {
		lut = &linearToGammaLUT
	}
	bpp := f.Format.BytesPerPixel()
	for i := 0; i < len(f.Pixels); i += bpp {
		for c := 0; c < 3; c++ {
			// Alpha (if present) is never gamma-encoded; only convert the
			// three color channels, wherever they sit for this format.
			if bpp == 4 && f.Format == FormatARGB8888 {
				f.Pixels[i+1+c] = lut[f.Pixels[i+1+c]]
			} else {
				f.Pixels[i+c] = lut[f.Pixels[i+c]]
			}
		}
	}
	f.colorspaceTag = target
	return nil
}

// Colorspace distinguishes gamma-encoded (sRGB) from linear RGB.
type Colorspace int

const (
	ColorspaceSRGB Colorspace = iota
	ColorspaceLinear
)

func (f *Frame) colorspace() Colorspace { return f.colorspaceTag }

// ToImage converts the Frame to a standard image.Image, the boundary type
// the core shares with x/image and other image.Image consumers (Resize
// uses it). Loaders go the other way, through FrameFromImage.
func (f *Frame) ToImage() image.Image {
	if f.Format.IsPaletted() {
		pal := make(color.Palette, f.NColors)
		for i := 0; i < f.NColors; i++ {
			pal[i] = color.RGBA{f.Palette[i*3], f.Palette[i*3+1], f.Palette[i*3+2], 255}
		}
		img := image.NewPaletted(image.Rect(0, 0, f.Width, f.Height), pal)
		copy(img.Pix, f.Pixels)
		return img
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		r, g, b, a := f.pixelRGBA(i)
		if f.Format == FormatRGB888 || f.Format == FormatBGR888 {
			a = 255
			if f.Format == FormatRGB888 {
				r, g, b = f.Pixels[i*3], f.Pixels[i*3+1], f.Pixels[i*3+2]
			} else {
				b, g, r = f.Pixels[i*3], f.Pixels[i*3+1], f.Pixels[i*3+2]
			}
		}
		img.Pix[i*4+0] = r
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = b
		img.Pix[i*4+3] = a
	}
	return img
}

// FrameFromImage converts a standard image.Image into a Frame, the
// counterpart boundary conversion ToImage provides.
func FrameFromImage(img image.Image) *Frame {
	if p, ok := img.(*image.Paletted); ok {
		w, h := p.Rect.Dx(), p.Rect.Dy()
		f := New(w, h, FormatPaletted8, len(p.Palette))
		for i, c := range p.Palette {
			r, g, b, _ := c.RGBA()
			f.Palette[i*3+0] = byte(r >> 8)
			f.Palette[i*3+1] = byte(g >> 8)
			f.Palette[i*3+2] = byte(b >> 8)
		}
		for y := 0; y < h; y++ {
			srcOff := (y+p.Rect.Min.Y)*p.Stride + p.Rect.Min.X
			copy(f.Pixels[y*w:(y+1)*w], p.Pix[srcOff:srcOff+w])
		}
		return f
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f := New(w, h, FormatRGBA8888, 0)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			f.Pixels[i*4+0] = byte(r >> 8)
			f.Pixels[i*4+1] = byte(g >> 8)
			f.Pixels[i*4+2] = byte(bl >> 8)
			f.Pixels[i*4+3] = byte(a >> 8)
			i++
		}
	}
	return f
}
