package sixel

import "math"

// gammaToLinearLUT and linearToGammaLUT implement the sRGB transfer
// function as 256-entry byte lookup tables, the same precomputed-table
// idiom the teacher's sharpyuv package used for its full H.273
// transfer-function enumeration, reduced here to the one transfer
// function the core's EnsureColorspace actually needs.
var (
	gammaToLinearLUT [256]byte
	linearToGammaLUT [256]byte
)

func init() {
	for v := 0; v < 256; v++ {
		c := float64(v) / 255
		var lin float64
		if c <= 0.04045 {
			lin = c / 12.92
		} else {
			lin = math.Pow((c+0.055)/1.055, 2.4)
		}
		gammaToLinearLUT[v] = byte(math.Round(lin * 255))

		var gam float64
		if c <= 0.0031308 {
			gam = c * 12.92
		} else {
			gam = 1.055*math.Pow(c, 1/2.4) - 0.055
		}
		if gam < 0 {
			gam = 0
		}
		if gam > 1 {
			gam = 1
		}
		linearToGammaLUT[v] = byte(math.Round(gam * 255))
	}
}
