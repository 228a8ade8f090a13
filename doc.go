// Package sixel implements the core of a SIXEL terminal-graphics
// toolkit: a Frame type for in-memory pixel buffers, a median-cut color
// quantizer with positional/error-diffusion/carry dithering, a
// sequential SIXEL band encoder, and a decoder that can run either
// serially or band-parallel across a worker pool.
//
// External file-format decoding beyond PNM and a thin native (PNG/JPEG/
// GIF) fallback, HTTP/URL fetching, CLI argument parsing, TTY control,
// and non-Go language bindings are out of scope; see the loader package
// for the format-sniffing entry point that bridges external formats
// into a Frame.
package sixel
