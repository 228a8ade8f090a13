// Package sixelcodec implements the SIXEL wire encoder and decoder
// (components C7-C10): DCS framing, band-layout RLE encoding, a
// single-pass prescan, a serial state-machine decoder, and a
// band-parallel decoder built on internal/workerpool.
package sixelcodec

// Wire-format constants grounded on
// other_examples/919bd2c2_jdevoo-gen__sixel.go.go's SixelIntroducer /
// GraphicsNextLine / GraphicsCarriageReturn / GraphicsColorIntroducer /
// GraphicsRepeatIntroducer / SixelValueOffset constants, generalized to
// also expose the 8-bit C1 forms spec.md §6 requires.
const (
	sixelValueOffset = 0x3f // sixel_byte = 0x3F + bits

	graphicsCarriageReturn = '$' // DECGCR: row advance within a band
	graphicsNextLine       = '-' // DECGNL: band advance
	graphicsColorIntroducer = '#'
	graphicsRepeatIntroducer = '!'
	rasterAttributeIntroducer = '"'

	minRunLengthAuto = 3 // AUTO/SIZE policy: RLE from run length >= 3
)

// aspectNumerator implements the DEC aspect-ratio table from spec.md
// §4.9: P1 selects a numerator used by terminals to stretch rows; the
// core only needs it for round-tripping DCS parameters, not for pixel
// geometry (the decoder always treats one sixel row as six pixel rows).
func aspectNumerator(p1 int) int {
	switch p1 {
	case 0, 1:
		return 2
	case 2:
		return 5
	case 3, 4:
		return 4
	case 5, 6:
		return 3
	case 7, 8:
		return 2
	case 9:
		return 1
	default:
		return 2
	}
}

// hlsToRGB converts a DEC HLS triplet (hue in degrees 0..360, lightness
// and saturation 0..100) to 0..255 RGB, per spec.md §4.9's "hue offset by
// +240 degrees" rule (the DEC HLS color wheel's zero point is blue, not
// red). Grounded on the standard HSL->RGB conversion; the table/lookup
// flavor the original C source uses is replaced with the equivalent
// direct formula, which is the idiomatic Go rendition of the same
// computation.
func hlsToRGB(hue, lightness, saturation int) (r, g, b byte) {
	h := float64(((hue+240)%360+360)%360) / 360.0
	l := float64(lightness) / 100.0
	s := float64(saturation) / 100.0

	if s == 0 {
		v := byte(l * 255)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	r = byte(hueToRGB(p, q, h+1.0/3.0) * 255)
	g = byte(hueToRGB(p, q, h) * 255)
	b = byte(hueToRGB(p, q, h-1.0/3.0) * 255)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

// rgbToHLS is hlsToRGB's inverse: standard RGB->HSL, with the result hue
// rotated back by -240 degrees to undo hlsToRGB's DEC-wheel offset, and
// lightness/saturation scaled to the wire format's 0..100 range.
func rgbToHLS(r, g, b byte) (hue, lightness, saturation int) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	max := rf
	if gf > max {
		max = gf
	}
	if bf > max {
		max = bf
	}
	min := rf
	if gf < min {
		min = gf
	}
	if bf < min {
		min = bf
	}
	l := (max + min) / 2

	var h, s float64
	if max != min {
		d := max - min
		if l > 0.5 {
			s = d / (2 - max - min)
		} else {
			s = d / (max + min)
		}
		switch max {
		case rf:
			h = (gf - bf) / d
			if gf < bf {
				h += 6
			}
		case gf:
			h = (bf-rf)/d + 2
		default:
			h = (rf-gf)/d + 4
		}
		h *= 60
	}

	hue = (int(h+0.5) - 240) % 360
	if hue < 0 {
		hue += 360
	}
	lightness = int(l*100 + 0.5)
	saturation = int(s*100 + 0.5)
	return hue, lightness, saturation
}

// rgbScale100 converts a 0..100 DEC RGB percentage component to 0..255.
func rgbScale100(v int) byte {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return byte(v * 255 / 100)
}

// rgbTo100 converts an 8-bit RGB channel to the 0..100 scale the wire
// format emits palette colors in.
func rgbTo100(v byte) int {
	return int(v) * 100 / 255
}
