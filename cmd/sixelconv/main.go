// Command sixelconv encodes PNM/PNG/JPEG/GIF images to SIXEL, the way
// img2sixel does. It has a single mode (image -> SIXEL) so, unlike the
// teacher's enc/dec/info subcommands, there is no subcommand dispatch:
// just one flat flag set.
//
// Usage:
//
//	sixelconv [options] <input>   image -> SIXEL (use "-" for stdin)
package main

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	sixel "github.com/deepteams/sixel"
	"github.com/deepteams/sixel/internal/palettes"
	"github.com/deepteams/sixel/internal/quant"
	"github.com/deepteams/sixel/internal/sixelio"
	"github.com/deepteams/sixel/loader"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sixelconv: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("sixelconv", pflag.ContinueOnError)

	colors := fs.IntP("colors", "p", 256, "number of colors (min 2)")
	_ = fs.StringP("map", "m", "", "palette map file")
	mono := fs.BoolP("monochrome", "e", false, "monochrome output")
	hicolor := fs.BoolP("hicolor", "I", false, "disable the fast nearest-color cache (output still uses a palette)")
	builtin := fs.StringP("builtin", "b", "", "built-in palette: xterm16|xterm256|vt340mono|vt340color")
	diffuse := fs.StringP("diffuse", "d", "auto", "diffusion: auto|none|fs|atkinson|jajuni|stucki|burkes|lso1|lso2|lso3|a_dither|x_dither")
	axis := fs.StringP("axis", "f", "auto", "largest-axis selection: auto|norm|lum")
	representative := fs.StringP("representative", "s", "auto", "representative color: auto|center|average|histogram")
	crop := fs.StringP("crop", "c", "", "crop WxH+X+Y")
	width := fs.StringP("width", "w", "", "resize width: pixels, N%%, or auto")
	height := fs.StringP("height", "h", "", "resize height: pixels, N%%, or auto")
	resampler := fs.StringP("resampler", "r", "bilinear", "resampler: nearest|bilinear|bicubic|catmullrom|lanczos")
	quality := fs.StringP("quality", "q", "auto", "histogram sample quality: auto|high|low|full")
	_ = fs.StringP("loop", "l", "auto", "loop control: auto|force|disable")
	paletteType := fs.StringP("palette-type", "t", "auto", "palette type: auto|hls|rgb")
	bgcolor := fs.StringP("bgcolor", "B", "", "background color #rrggbb or rgb:r,g,b, composited under alpha before quantizing")
	_ = fs.BoolP("invert", "i", false, "invert monochrome")
	_ = fs.BoolP("macro", "u", false, "macro packaging")
	_ = fs.IntP("macro-number", "n", -1, "fixed macro number")
	sevenBit := fs.Bool("7", false, "7-bit control sequences (default)")
	eightBit := fs.Bool("8", false, "8-bit control sequences")
	penetrate := fs.BoolP("penetrate", "P", false, "tmux/screen passthrough flag (recorded; output is not wrapped)")
	encodePolicy := fs.StringP("encode-policy", "E", "auto", "encode policy: auto|fast|size")
	complexion := fs.IntP("complexion", "C", 1, "complexion score")
	pipeMode := fs.BoolP("pipe", "D", false, "pipe mode: read one image from stdin")
	output := fs.StringP("output", "o", "", `output path (default: stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 && !*pipeMode {
		return fmt.Errorf("missing input file\nUsage: sixelconv [options] <input>")
	}

	opts, err := buildEncodeOptions(encodeFlags{
		colors:         *colors,
		mono:           *mono,
		hicolor:        *hicolor,
		builtin:        *builtin,
		diffuse:        *diffuse,
		axis:           *axis,
		representative: *representative,
		quality:        *quality,
		paletteType:    *paletteType,
		sevenBit:       *sevenBit,
		eightBit:       *eightBit,
		penetrate:      *penetrate,
		encodePolicy:   *encodePolicy,
		complexion:     *complexion,
	})
	if err != nil {
		return err
	}

	rf := resizeFlags{crop: *crop, width: *width, height: *height, resampler: *resampler, bgcolor: *bgcolor}

	out, closeOut, err := openOutput(*output)
	if err != nil {
		return err
	}
	defer closeOut()

	if *pipeMode {
		return runPipeMode(out, opts, rf)
	}

	in, closeIn, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	defer closeIn()

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return convertOne(data, out, opts, rf)
}

func convertOne(data []byte, out io.Writer, opts sixel.EncodeOptions, rf resizeFlags) error {
	orch := loader.New(data, loader.LoopAuto)
	frame, ok, err := orch.Next()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no frames decoded from input")
	}
	frame, err = processFrame(frame, rf)
	if err != nil {
		return err
	}
	return sixel.Encode(out, frame, opts)
}

// runPipeMode implements -D: read one image's worth of bytes from
// stdin and encode it, reusing convertOne so the pipe path can never
// diverge from the single-file path's option handling.
func runPipeMode(out io.Writer, opts sixel.EncodeOptions, rf resizeFlags) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return convertOne(data, out, opts, rf)
}

func processFrame(f *sixel.Frame, rf resizeFlags) (*sixel.Frame, error) {
	if rf.bgcolor != "" {
		bg, err := parseBGColor(rf.bgcolor)
		if err != nil {
			return nil, err
		}
		f = f.StripAlpha(bg)
	}
	if rf.crop != "" {
		w, h, x, y, err := parseCropSpec(rf.crop)
		if err != nil {
			return nil, err
		}
		clipped, err := f.Clip(x, y, w, h)
		if err != nil {
			return nil, err
		}
		f = clipped
	}
	if rf.width != "" || rf.height != "" {
		w, h, err := resolveDimensions(f.Width, f.Height, rf.width, rf.height)
		if err != nil {
			return nil, err
		}
		resized, err := f.Resize(w, h, parseResampler(rf.resampler))
		if err != nil {
			return nil, err
		}
		f = resized
	}
	return f, nil
}

// resolveDimensions implements spec.md §6's -w/-h grammar: a bare
// integer is pixels, a trailing "%" scales the source dimension, and
// "auto" (or an omitted flag) derives that axis from the other one to
// preserve aspect ratio.
func resolveDimensions(srcW, srcH int, wSpec, hSpec string) (int, int, error) {
	w, wAuto, err := resolveDimension(srcW, wSpec)
	if err != nil {
		return 0, 0, err
	}
	h, hAuto, err := resolveDimension(srcH, hSpec)
	if err != nil {
		return 0, 0, err
	}
	switch {
	case wAuto && hAuto:
		return srcW, srcH, nil
	case wAuto:
		w = srcW * h / srcH
	case hAuto:
		h = srcH * w / srcW
	}
	return w, h, nil
}

func resolveDimension(src int, spec string) (value int, isAuto bool, err error) {
	if spec == "" || strings.EqualFold(spec, "auto") {
		return src, true, nil
	}
	if strings.HasSuffix(spec, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(spec, "%"))
		if err != nil {
			return 0, false, fmt.Errorf("invalid dimension %q", spec)
		}
		return src * pct / 100, false, nil
	}
	n, err := strconv.Atoi(spec)
	if err != nil {
		return 0, false, fmt.Errorf("invalid dimension %q", spec)
	}
	return n, false, nil
}

func parseResampler(s string) sixel.Resampler {
	switch strings.ToLower(s) {
	case "nearest":
		return sixel.ResamplerNearest
	case "bicubic":
		return sixel.ResamplerBicubic
	case "catmullrom":
		return sixel.ResamplerCatmullRom
	case "lanczos":
		return sixel.ResamplerLanczos
	default:
		return sixel.ResamplerBilinear
	}
}

func parseCropSpec(spec string) (w, h, x, y int, err error) {
	var rest string
	n, err := fmt.Sscanf(spec, "%dx%d%s", &w, &h, &rest)
	if n < 2 || err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid crop spec %q", spec)
	}
	parts := strings.FieldsFunc(rest, func(r rune) bool { return r == '+' })
	if len(parts) == 2 {
		x, _ = strconv.Atoi(parts[0])
		y, _ = strconv.Atoi(parts[1])
	}
	return w, h, x, y, nil
}

type resizeFlags struct {
	crop, width, height, resampler, bgcolor string
}

type encodeFlags struct {
	colors                                                                      int
	builtin, diffuse, axis, representative, quality, paletteType, encodePolicy string
	mono, hicolor, sevenBit, eightBit, penetrate                                bool
	complexion                                                                  int
}

func buildEncodeOptions(f encodeFlags) (sixel.EncodeOptions, error) {
	opts := sixel.DefaultEncodeOptions()
	if f.colors < 2 {
		return opts, fmt.Errorf("colors must be >= 2, got %d", f.colors)
	}
	opts.ReqColors = f.colors
	if f.mono {
		opts.ReqColors = 2
	}
	if f.builtin != "" {
		name, err := parseBuiltinPalette(f.builtin)
		if err != nil {
			return opts, err
		}
		opts.Builtin = name
	}

	d, err := parseDiffuse(f.diffuse)
	if err != nil {
		return opts, err
	}
	opts.Diffuse = d

	a, err := parseAxis(f.axis)
	if err != nil {
		return opts, err
	}
	opts.Axis = a

	rep, err := parseRepresentative(f.representative)
	if err != nil {
		return opts, err
	}
	opts.Representative = rep

	q, err := parseQuality(f.quality)
	if err != nil {
		return opts, err
	}
	opts.Quality = q

	pt, err := parsePaletteType(f.paletteType)
	if err != nil {
		return opts, err
	}
	opts.Palette = pt

	ep, err := parseEncodePolicy(f.encodePolicy)
	if err != nil {
		return opts, err
	}
	opts.Policy = ep

	if f.eightBit {
		opts.Control = sixelio.Control8Bit
	} else {
		opts.Control = sixelio.Control7Bit
	}
	opts.Penetrate = f.penetrate
	opts.Complexion = f.complexion
	opts.AllowFastPath = !f.hicolor

	return opts, nil
}

func parseBuiltinPalette(s string) (palettes.Name, error) {
	switch strings.ToLower(s) {
	case "xterm16":
		return palettes.Xterm16, nil
	case "xterm256":
		return palettes.Xterm256, nil
	case "vt340mono":
		return palettes.VT340Mono, nil
	case "vt340color":
		return palettes.VT340Color, nil
	default:
		return "", fmt.Errorf("unknown built-in palette %q", s)
	}
}

func parseDiffuse(s string) (quant.DiffuseMethod, error) {
	switch strings.ToLower(s) {
	case "auto", "fs":
		return quant.DiffuseFS, nil
	case "none":
		return quant.DiffuseNone, nil
	case "atkinson":
		return quant.DiffuseAtkinson, nil
	case "jajuni":
		return quant.DiffuseJaJuNi, nil
	case "stucki":
		return quant.DiffuseStucki, nil
	case "burkes":
		return quant.DiffuseBurkes, nil
	case "lso1":
		return quant.DiffuseLSO1, nil
	case "lso2":
		return quant.DiffuseLSO2, nil
	case "lso3":
		return quant.DiffuseLSO3, nil
	case "a_dither":
		return quant.DiffuseADither, nil
	case "x_dither":
		return quant.DiffuseXDither, nil
	default:
		return 0, fmt.Errorf("unknown diffusion method %q", s)
	}
}

func parseAxis(s string) (quant.AxisMode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return quant.AxisAuto, nil
	case "norm":
		return quant.AxisNorm, nil
	case "lum":
		return quant.AxisLum, nil
	default:
		return 0, fmt.Errorf("unknown axis mode %q", s)
	}
}

func parseRepresentative(s string) (quant.RepresentativeMode, error) {
	switch strings.ToLower(s) {
	case "auto":
		return quant.RepresentativeAuto, nil
	case "center":
		return quant.RepresentativeCenter, nil
	case "average":
		return quant.RepresentativeAverage, nil
	case "histogram":
		return quant.RepresentativeWeightedAverage, nil
	default:
		return 0, fmt.Errorf("unknown representative mode %q", s)
	}
}

func parseQuality(s string) (quant.Quality, error) {
	switch strings.ToLower(s) {
	case "auto", "full":
		return quant.QualityFull, nil
	case "high":
		return quant.QualityHigh, nil
	case "low":
		return quant.QualityLow, nil
	default:
		return 0, fmt.Errorf("unknown quality mode %q", s)
	}
}

func parsePaletteType(s string) (sixelio.PaletteType, error) {
	switch strings.ToLower(s) {
	case "auto", "rgb":
		return sixelio.PaletteRGB, nil
	case "hls":
		return sixelio.PaletteHLS, nil
	default:
		return 0, fmt.Errorf("unknown palette type %q", s)
	}
}

func parseEncodePolicy(s string) (sixelio.EncodePolicy, error) {
	switch strings.ToLower(s) {
	case "auto":
		return sixelio.PolicyAuto, nil
	case "fast":
		return sixelio.PolicyFast, nil
	case "size":
		return sixelio.PolicySize, nil
	default:
		return 0, fmt.Errorf("unknown encode policy %q", s)
	}
}

// parseBGColor parses "#rrggbb" or "rgb:r,g,b" per spec.md §6's -B flag.
func parseBGColor(s string) (color.NRGBA, error) {
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid bgcolor %q", s)
		}
		return color.NRGBA{R: byte(v >> 16), G: byte(v >> 8), B: byte(v), A: 255}, nil
	}
	if strings.HasPrefix(s, "rgb:") {
		parts := strings.Split(s[4:], ",")
		if len(parts) != 3 {
			return color.NRGBA{}, fmt.Errorf("invalid bgcolor %q", s)
		}
		var out [3]byte
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("invalid bgcolor %q", s)
			}
			out[i] = byte(n)
		}
		return color.NRGBA{R: out[0], G: out[1], B: out[2], A: 255}, nil
	}
	return color.NRGBA{}, fmt.Errorf("invalid bgcolor %q", s)
}

func openInput(path string) (io.ReadCloser, func(), error) {
	if path == "-" || path == "" {
		return io.NopCloser(os.Stdin), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
