package sixel

import "github.com/deepteams/sixel/internal/sixelcodec"

// DecodeOptions configures a SIXEL stream decode.
type DecodeOptions struct {
	// Threads selects the worker-pool size for DecodeParallel's band
	// scheduling. 0 resolves via sixelcodec.ResolveThreadCount's CLI
	// override -> SIXEL_THREADS env -> 1 order.
	Threads int
	// Parallel enables band-parallel decoding when the stream is large
	// enough to be eligible (see internal/sixelcodec.eligibleForParallel);
	// ineligible streams always fall back to the serial decoder
	// regardless of this flag.
	Parallel bool
	// AttributedWidth/AttributedHeight seed the surface size before the
	// raster attributes (if any) are seen; 0 lets the decoder infer from
	// the stream. They and Background are used only when Parallel is set;
	// the serial decoder ignores them.
	AttributedWidth  int
	AttributedHeight int
	Background       int
}

// Decode parses a SIXEL DCS stream into a Frame. Honors opts.Parallel to
// pick between the serial and band-parallel decoder; both are required
// by spec.md §8 to produce byte-for-byte identical surfaces.
func Decode(stream []byte, opts DecodeOptions) (*Frame, error) {
	var surf *sixelcodec.Surface
	var err error
	if opts.Parallel {
		var body []byte
		body, err = sixelcodec.ExtractBody(stream)
		if err != nil {
			return nil, err
		}
		nthreads := sixelcodec.ResolveThreadCount(opts.Threads)
		surf, err = sixelcodec.DecodeParallel(body, opts.AttributedWidth, opts.AttributedHeight, opts.Background, nthreads)
	} else {
		surf, err = sixelcodec.Decode(stream)
	}
	if err != nil {
		return nil, err
	}
	return surfaceToFrame(surf)
}

func surfaceToFrame(surf *sixelcodec.Surface) (*Frame, error) {
	pixels := make([]byte, surf.Width*surf.Height)
	for i, idx := range surf.Indices {
		pixels[i] = byte(idx)
	}
	palette := surf.Palette
	ncolors := len(palette) / 3
	if ncolors == 0 {
		ncolors = 1
		palette = []byte{0, 0, 0}
	}
	return Init(pixels, surf.Width, surf.Height, FormatPaletted8, palette, ncolors)
}
