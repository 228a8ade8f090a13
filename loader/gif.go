package loader

import (
	"image"
	"image/gif"
	"io"
)

// gifFrames bundles stdlib gif.GIF's per-frame images, delays, and loop
// count into the shape decodeNativeGIF needs, keeping the image/gif
// import confined to this one file.
type gifFrames struct {
	images    []image.Image
	delays    []int
	loopCount int
}

func gifDecodeAll(r io.Reader) (*gifFrames, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, err
	}
	out := &gifFrames{
		images:    make([]image.Image, len(g.Image)),
		delays:    g.Delay,
		loopCount: g.LoopCount,
	}
	for i, p := range g.Image {
		out.images[i] = p
	}
	return out, nil
}
