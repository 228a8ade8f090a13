package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sixel "github.com/deepteams/sixel"
	"github.com/deepteams/sixel/internal/palettes"
	"github.com/deepteams/sixel/internal/quant"
	"github.com/deepteams/sixel/internal/sixelio"
)

func TestBuildEncodeOptions_DefaultsAndOverrides(t *testing.T) {
	opts, err := buildEncodeOptions(encodeFlags{
		colors:         64,
		diffuse:        "stucki",
		axis:           "lum",
		representative: "average",
		quality:        "high",
		paletteType:    "hls",
		encodePolicy:   "size",
		eightBit:       true,
		complexion:     2,
	})
	assert.NoError(t, err)
	assert.Equal(t, 64, opts.ReqColors)
	assert.Equal(t, quant.DiffuseStucki, opts.Diffuse)
	assert.Equal(t, quant.AxisLum, opts.Axis)
	assert.Equal(t, quant.RepresentativeAverage, opts.Representative)
	assert.Equal(t, quant.QualityHigh, opts.Quality)
	assert.Equal(t, sixelio.PaletteHLS, opts.Palette)
	assert.Equal(t, sixelio.PolicySize, opts.Policy)
	assert.Equal(t, sixelio.Control8Bit, opts.Control)
	assert.Equal(t, 2, opts.Complexion)
}

func TestBuildEncodeOptions_MonochromeForcesTwoColors(t *testing.T) {
	opts, err := buildEncodeOptions(encodeFlags{colors: 256, mono: true, diffuse: "auto", axis: "auto", representative: "auto", quality: "auto", paletteType: "auto", encodePolicy: "auto"})
	assert.NoError(t, err)
	assert.Equal(t, 2, opts.ReqColors)
}

func TestBuildEncodeOptions_RejectsTooFewColors(t *testing.T) {
	_, err := buildEncodeOptions(encodeFlags{colors: 1})
	assert.Error(t, err)
}

func TestBuildEncodeOptions_WiresBuiltinPalette(t *testing.T) {
	opts, err := buildEncodeOptions(encodeFlags{colors: 16, builtin: "xterm16", diffuse: "auto", axis: "auto", representative: "auto", quality: "auto", paletteType: "auto", encodePolicy: "auto"})
	assert.NoError(t, err)
	assert.Equal(t, palettes.Xterm16, opts.Builtin)
}

func TestBuildEncodeOptions_RejectsUnknownBuiltinPalette(t *testing.T) {
	_, err := buildEncodeOptions(encodeFlags{colors: 16, builtin: "not-a-palette"})
	assert.Error(t, err)
}

func TestBuildEncodeOptions_RejectsUnknownDiffuseMode(t *testing.T) {
	_, err := buildEncodeOptions(encodeFlags{colors: 16, diffuse: "bogus"})
	assert.Error(t, err)
}

func TestParseCropSpec_ParsesWidthHeightOffset(t *testing.T) {
	w, h, x, y, err := parseCropSpec("100x50+10+20")
	assert.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
	assert.Equal(t, 10, x)
	assert.Equal(t, 20, y)
}

func TestParseCropSpec_RejectsMalformedSpec(t *testing.T) {
	_, _, _, _, err := parseCropSpec("not-a-crop")
	assert.Error(t, err)
}

func TestResolveDimensions_BothAutoKeepsSource(t *testing.T) {
	w, h, err := resolveDimensions(200, 100, "", "")
	assert.NoError(t, err)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
}

func TestResolveDimensions_WidthAutoDerivesFromHeight(t *testing.T) {
	w, h, err := resolveDimensions(200, 100, "auto", "50")
	assert.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestResolveDimensions_PercentScalesSource(t *testing.T) {
	w, h, err := resolveDimensions(200, 100, "50%", "50%")
	assert.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestParseBGColor_HexAndRGBForms(t *testing.T) {
	c, err := parseBGColor("#ff0080")
	assert.NoError(t, err)
	assert.Equal(t, byte(0xff), c.R)
	assert.Equal(t, byte(0x00), c.G)
	assert.Equal(t, byte(0x80), c.B)

	c2, err := parseBGColor("rgb:10,20,30")
	assert.NoError(t, err)
	assert.Equal(t, byte(10), c2.R)
	assert.Equal(t, byte(20), c2.G)
	assert.Equal(t, byte(30), c2.B)

	_, err = parseBGColor("not-a-color")
	assert.Error(t, err)
}

func TestParseResampler_KnownNamesAndFallback(t *testing.T) {
	assert.Equal(t, sixel.ResamplerNearest, parseResampler("nearest"))
	assert.Equal(t, sixel.ResamplerLanczos, parseResampler("lanczos"))
	assert.Equal(t, sixel.ResamplerBilinear, parseResampler("unknown"))
}

func TestProcessFrame_BGColorStripsAlphaBeforeResize(t *testing.T) {
	f := sixel.New(2, 2, sixel.FormatRGBA8888, 0)
	for i := range f.Pixels {
		f.Pixels[i] = 0x80
	}

	out, err := processFrame(f, resizeFlags{bgcolor: "#000000"})
	assert.NoError(t, err)
	assert.Equal(t, sixel.FormatRGB888, out.Format)
}

func TestProcessFrame_NoBGColorLeavesAlphaFrameUntouched(t *testing.T) {
	f := sixel.New(2, 2, sixel.FormatRGBA8888, 0)

	out, err := processFrame(f, resizeFlags{})
	assert.NoError(t, err)
	assert.Equal(t, sixel.FormatRGBA8888, out.Format)
}
