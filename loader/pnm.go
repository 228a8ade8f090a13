package loader

import (
	"bufio"
	"io"
	"strconv"

	"github.com/deepteams/sixel/internal/status"
)

// decodePNM reads a PNM image (P1 ASCII bitmap .. P6 binary pixmap).
// The header and ASCII samples are read with a small "read one token,
// skip comments/whitespace" tokenizer (readToken/readInt).
func decodePNM(r *bufio.Reader) (pixels []byte, width, height int, gray bool, err error) {
	magic, err := readToken(r)
	if err != nil {
		return nil, 0, 0, false, err
	}
	if len(magic) != 2 || magic[0] != 'P' || magic[1] < '1' || magic[1] > '6' {
		return nil, 0, 0, false, status.New(status.BadInput, "loader: not a PNM magic number: %q", magic)
	}
	kind := magic[1]

	w, err := readInt(r)
	if err != nil {
		return nil, 0, 0, false, err
	}
	h, err := readInt(r)
	if err != nil {
		return nil, 0, 0, false, err
	}

	var maxVal int
	if kind != '1' && kind != '4' {
		maxVal, err = readInt(r)
		if err != nil {
			return nil, 0, 0, false, err
		}
	}

	switch kind {
	case '1': // ASCII bitmap
		pix := make([]byte, w*h)
		for i := range pix {
			tok, err := readToken(r)
			if err != nil {
				return nil, 0, 0, false, err
			}
			if tok == "1" {
				pix[i] = 0
			} else {
				pix[i] = 255
			}
		}
		return pix, w, h, true, nil
	case '2': // ASCII graymap
		pix := make([]byte, w*h)
		for i := range pix {
			v, err := readInt(r)
			if err != nil {
				return nil, 0, 0, false, err
			}
			pix[i] = scaleMax(v, maxVal)
		}
		return pix, w, h, true, nil
	case '3': // ASCII pixmap
		pix := make([]byte, w*h*3)
		for i := range pix {
			v, err := readInt(r)
			if err != nil {
				return nil, 0, 0, false, err
			}
			pix[i] = scaleMax(v, maxVal)
		}
		return pix, w, h, false, nil
	case '4': // binary bitmap, packed MSB-first
		rowBytes := (w + 7) / 8
		raw := make([]byte, rowBytes*h)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, 0, 0, false, status.Wrap(err, status.BadInput, "loader: read P4 bitmap")
		}
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				byteIdx := y*rowBytes + x/8
				bit := (raw[byteIdx] >> uint(7-x%8)) & 1
				if bit == 0 {
					pix[y*w+x] = 255
				}
			}
		}
		return pix, w, h, true, nil
	case '5': // binary graymap
		pix := make([]byte, w*h)
		if _, err := io.ReadFull(r, pix); err != nil {
			return nil, 0, 0, false, status.Wrap(err, status.BadInput, "loader: read P5 graymap")
		}
		if maxVal != 255 {
			for i, v := range pix {
				pix[i] = scaleMax(int(v), maxVal)
			}
		}
		return pix, w, h, true, nil
	case '6': // binary pixmap
		pix := make([]byte, w*h*3)
		if _, err := io.ReadFull(r, pix); err != nil {
			return nil, 0, 0, false, status.Wrap(err, status.BadInput, "loader: read P6 pixmap")
		}
		if maxVal != 255 {
			for i, v := range pix {
				pix[i] = scaleMax(int(v), maxVal)
			}
		}
		return pix, w, h, false, nil
	default:
		return nil, 0, 0, false, status.New(status.BadInput, "loader: unsupported PNM kind P%c", kind)
	}
}

func scaleMax(v, maxVal int) byte {
	if maxVal <= 0 {
		maxVal = 255
	}
	scaled := v * 255 / maxVal
	if scaled > 255 {
		scaled = 255
	}
	if scaled < 0 {
		scaled = 0
	}
	return byte(scaled)
}

func readToken(r *bufio.Reader) (string, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", status.Wrap(err, status.BadInput, "loader: read PNM token")
		}
		if b == '#' {
			for {
				c, err := r.ReadByte()
				if err != nil || c == '\n' {
					break
				}
			}
			continue
		}
		if isSpace(b) {
			continue
		}
		var buf []byte
		buf = append(buf, b)
		for {
			c, err := r.ReadByte()
			if err != nil {
				break
			}
			if isSpace(c) {
				break
			}
			buf = append(buf, c)
		}
		return string(buf), nil
	}
}

func readInt(r *bufio.Reader) (int, error) {
	tok, err := readToken(r)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, status.Wrap(err, status.BadInput, "loader: expected PNM integer, got %q", tok)
	}
	return n, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
