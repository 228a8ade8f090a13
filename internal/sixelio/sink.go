// Package sixelio implements the output side of the SIXEL pipeline
// (component C6): a write sink wrapping an io.Writer with a growable
// scratch buffer, control-sequence mode, palette-emission type and
// encode policy, and a per-sink pool of reusable output nodes.
package sixelio

import "io"

// ControlMode selects whether DCS/ST sequences are emitted as 7-bit
// escape pairs (`\x1bP` ... `\x1b\\`) or single 8-bit C1 bytes (`\x90`
// ... `\x9c`).
type ControlMode int

const (
	Control7Bit ControlMode = iota
	Control8Bit
)

// PaletteType selects whether palette definitions are emitted as RGB
// (`#i;2;r;g;b`) or HLS (`#i;1;h;l;s`) triplets.
type PaletteType int

const (
	PaletteRGB PaletteType = iota
	PaletteHLS
)

// EncodePolicy trades output size against encode speed, per spec.md
// §4.7.3's run-length-threshold selection.
type EncodePolicy int

const (
	PolicyAuto EncodePolicy = iota
	PolicyFast
	PolicySize
)

// Sink wraps an io.Writer with the scratch buffer and mode flags the
// encoder needs. Grounded on internal/bitio.BoolWriter's buf/pos field
// layout and Reset-for-reuse method, generalized from a bit-packing
// writer to a plain growable byte buffer driving an io.Writer instead of
// an in-memory byte slice.
type Sink struct {
	w   io.Writer
	buf []byte
	pos int
	err error

	Control    ControlMode
	SkipDCS    bool // omit the DCS/ST envelope, for embedding in a larger stream
	Palette    PaletteType
	Policy     EncodePolicy
	Penetrate  bool // tmux/screen passthrough flag; recorded only, the encoder does not wrap its output

	nodes []*OutputNode // free list, never shared across Sink instances
}

// OutputNode is one band/palette RLE run awaiting emission, reused via
// Sink's free list to avoid per-band allocation. Grounded on
// internal/pool/pool.go's bucketed-pool idiom, scoped as a Sink-instance
// field rather than a package-global pool so two sinks never share
// nodes.
type OutputNode struct {
	PaletteIndex int
	StartCol     int
	EndCol       int
	Map          []byte // column -> 6-bit band mask, one entry per image column; StartCol/EndCol are its first/last non-zero columns
}

// New creates a Sink writing to w with an initial scratch buffer of
// expectedSize bytes (0 picks a reasonable default).
func New(w io.Writer, expectedSize int) *Sink {
	if expectedSize < 1024 {
		expectedSize = 1024
	}
	return &Sink{
		w:   w,
		buf: make([]byte, 0, expectedSize),
	}
}

// Reset clears the scratch buffer and error state for reuse against a
// new io.Writer, keeping the existing backing array if it is large
// enough.
func (s *Sink) Reset(w io.Writer, expectedSize int) {
	if expectedSize < 1024 {
		expectedSize = 1024
	}
	if cap(s.buf) >= expectedSize {
		s.buf = s.buf[:0]
	} else {
		s.buf = make([]byte, 0, expectedSize)
	}
	s.pos = 0
	s.err = nil
	s.w = w
}

// WriteByte appends a single byte to the scratch buffer.
func (s *Sink) WriteByte(b byte) {
	s.buf = append(s.buf, b)
	s.pos++
}

// WriteString appends str to the scratch buffer.
func (s *Sink) WriteString(str string) {
	s.buf = append(s.buf, str...)
	s.pos += len(str)
}

// Write implements io.Writer against the scratch buffer.
func (s *Sink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	s.pos += len(p)
	return len(p), nil
}

// Flush writes the accumulated scratch buffer to the underlying
// io.Writer and clears it. Subsequent writes start a fresh buffer; the
// first error from the underlying writer is latched and returned by
// every later call until Reset.
func (s *Sink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if len(s.buf) == 0 {
		return nil
	}
	_, err := s.w.Write(s.buf)
	s.buf = s.buf[:0]
	if err != nil {
		s.err = err
	}
	return err
}

// Err returns the first error latched by Flush, if any.
func (s *Sink) Err() error { return s.err }

// DCSIntroducer returns the DCS sequence bytes for the sink's control
// mode.
func (s *Sink) DCSIntroducer() string {
	if s.Control == Control8Bit {
		return "\x90"
	}
	return "\x1bP"
}

// STTerminator returns the String Terminator sequence for the sink's
// control mode.
func (s *Sink) STTerminator() string {
	if s.Control == Control8Bit {
		return "\x9c"
	}
	return "\x1b\\"
}

// GetNode pops a reusable OutputNode from the sink's free list, or
// allocates one if the list is empty.
func (s *Sink) GetNode() *OutputNode {
	if n := len(s.nodes); n > 0 {
		node := s.nodes[n-1]
		s.nodes = s.nodes[:n-1]
		node.Map = node.Map[:0]
		return node
	}
	return &OutputNode{}
}

// PutNode returns a node to the sink's free list for reuse.
func (s *Sink) PutNode(node *OutputNode) {
	s.nodes = append(s.nodes, node)
}
