package sixel

import (
	"io"

	"github.com/deepteams/sixel/internal/palettes"
	"github.com/deepteams/sixel/internal/quant"
	"github.com/deepteams/sixel/internal/sixelcodec"
	"github.com/deepteams/sixel/internal/sixelio"
	"github.com/deepteams/sixel/internal/status"
)

// EncodeOptions configures a full Frame-to-SIXEL-stream encode: the
// quantizer (when the frame is not already paletted), the output sink's
// control/palette/policy flags, and the band encoder.
type EncodeOptions struct {
	// Builtin, when non-empty, selects one of internal/palettes' fixed
	// terminal palettes instead of running the median-cut quantizer;
	// ReqColors/Axis/Representative are ignored in that case.
	Builtin palettes.Name

	// Quantizer options, used only when the frame is true-color.
	ReqColors      int
	Quality        quant.Quality
	LUTPolicy      quant.LUTPolicy
	Axis           quant.AxisMode
	Representative quant.RepresentativeMode
	Diffuse        quant.DiffuseMethod
	Scan           quant.ScanOrder
	Carry          quant.CarryMode
	Complexion     int
	AllowFastPath  bool
	OptimizePalette bool

	// Output sink / encoder options.
	Control   sixelio.ControlMode
	Palette   sixelio.PaletteType
	Policy    sixelio.EncodePolicy
	SkipDCS   bool
	Penetrate bool
}

// DefaultEncodeOptions returns the options spec.md §6's CLI defaults to
// when no flags override them: 256 colors, full-quality sampling, and
// Floyd-Steinberg diffusion.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		ReqColors:     256,
		Quality:       quant.QualityFull,
		Diffuse:       quant.DiffuseFS,
		Complexion:    1,
		AllowFastPath: true,
	}
}

// Encode writes f to w as a SIXEL DCS stream. True-color frames are
// quantized first (per opts); already-paletted frames are encoded
// as-is, ignoring the quantizer fields of opts.
func Encode(w io.Writer, f *Frame, opts EncodeOptions) error {
	indices, palette, err := frameToIndices(f, opts)
	if err != nil {
		return err
	}

	sink := sixelio.New(w, f.Width*f.Height)
	sink.Control = opts.Control
	sink.Palette = opts.Palette
	sink.Policy = opts.Policy
	sink.Penetrate = opts.Penetrate

	return sixelcodec.Encode(sink, indices, f.Width, f.Height, palette, sixelcodec.EncodeOptions{
		Policy:  opts.Policy,
		Control: opts.Control,
		Palette: opts.Palette,
		SkipDCS: opts.SkipDCS,
	})
}

// frameToIndices produces a palette + per-pixel index buffer for f,
// quantizing true-color frames and passing paletted frames through.
func frameToIndices(f *Frame, opts EncodeOptions) ([]int, []byte, error) {
	if f.Format.IsPaletted() {
		indices := make([]int, f.Width*f.Height)
		for i, b := range f.Pixels {
			indices[i] = int(b)
		}
		return indices, f.Palette, nil
	}
	if f.Format.IsGray() || f.Format.BytesPerPixel() < 3 {
		return nil, nil, status.New(status.BadArgument, "sixel: Encode requires an RGB/paletted frame, got %v", f.Format)
	}

	rgb := toRGB24(f)

	if opts.Builtin != "" {
		fixed, err := palettes.Lookup(opts.Builtin)
		if err != nil {
			return nil, nil, err
		}
		result, err := quant.ApplyFixedPalette(rgb, f.Width, f.Height, fixed, quant.Options{
			Diffuse:       opts.Diffuse,
			Scan:          opts.Scan,
			Carry:         opts.Carry,
			Complexion:    opts.Complexion,
			AllowFastPath: opts.AllowFastPath,
		})
		if err != nil {
			return nil, nil, err
		}
		return result.Indices, result.Palette, nil
	}

	reqColors := opts.ReqColors
	if reqColors < 1 {
		reqColors = 256
	}
	result, err := quant.Quantize(rgb, f.Width, f.Height, quant.Options{
		ReqColors:       reqColors,
		Quality:         opts.Quality,
		LUTPolicy:       opts.LUTPolicy,
		Axis:            opts.Axis,
		Representative:  opts.Representative,
		Diffuse:         opts.Diffuse,
		Scan:            opts.Scan,
		Carry:           opts.Carry,
		Complexion:      opts.Complexion,
		AllowFastPath:   opts.AllowFastPath,
		OptimizePalette: opts.OptimizePalette,
	})
	if err != nil {
		return nil, nil, err
	}
	return result.Indices, result.Palette, nil
}

// toRGB24 converts any true-color Frame format into a tight RGB888
// buffer, the shape the quantizer operates on.
func toRGB24(f *Frame) []byte {
	if f.Format == FormatRGB888 {
		return f.Pixels
	}
	out := make([]byte, f.Width*f.Height*3)
	bpp := f.Format.BytesPerPixel()
	for i := 0; i < f.Width*f.Height; i++ {
		p := f.Pixels[i*bpp : i*bpp+bpp]
		var r, g, b byte
		switch f.Format {
		case FormatBGR888:
			b, g, r = p[0], p[1], p[2]
		case FormatRGBA8888:
			r, g, b = p[0], p[1], p[2]
		case FormatBGRA8888:
			b, g, r = p[0], p[1], p[2]
		case FormatARGB8888:
			r, g, b = p[1], p[2], p[3]
		}
		out[i*3+0], out[i*3+1], out[i*3+2] = r, g, b
	}
	return out
}
