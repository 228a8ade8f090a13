package quant

import "sync/atomic"

// LUTPolicy selects the lattice shift the histogram and the fast
// nearest-color cache use to bucket channel samples (spec.md §4.5.1).
type LUTPolicy int

const (
	// LUTPolicyAuto picks 6 bits per channel when depth <= 3, 5 bits
	// otherwise, per spec.md §4.5.1.
	LUTPolicyAuto LUTPolicy = iota
	LUTPolicyForce5Bit
	LUTPolicyForce6Bit
)

// shiftFor returns the lattice shift (8 - bits) for the given channel
// depth under this policy.
func (p LUTPolicy) shiftFor(depth int) int {
	bits := 6
	switch p {
	case LUTPolicyForce5Bit:
		bits = 5
	case LUTPolicyForce6Bit:
		bits = 6
	default:
		if depth > 3 {
			bits = 5
		}
	}
	return 8 - bits
}

// globalLUTPolicy is the process-wide escape hatch for API parity with
// the original's sixel_quant_set_lut_policy. The LUT policy is per-call
// configuration (Options.LUTPolicy); this package-level atomic only
// stores a process-wide value thread-safely, and no quantizer code path
// reads it.
var globalLUTPolicy atomic.Int32

// SetGlobalLUTPolicy sets the process-wide LUT policy value that
// GlobalLUTPolicy returns. Quantize and ApplyFixedPalette do not consult
// it; they use Options.LUTPolicy.
func SetGlobalLUTPolicy(p LUTPolicy) {
	globalLUTPolicy.Store(int32(p))
}

// GlobalLUTPolicy returns the current process-wide policy.
func GlobalLUTPolicy() LUTPolicy {
	return LUTPolicy(globalLUTPolicy.Load())
}
