// Package convert turns packed YUYV 4:2:2 camera frames into RGB24.
package convert

import (
	"errors"
	"fmt"
)

// Encoding identifies a source pixel encoding by its FourCC value.
type Encoding uint32

// Supported encodings.
const (
	// EncodingYUYV is packed 4:2:2: two luma samples share one Cb/Cr pair,
	// four bytes per pixel pair.
	EncodingYUYV Encoding = 0x56595559 // 'YUYV'
)

// Conversion errors.
var (
	ErrUnsupportedEncoding = errors.New("convert: unsupported pixel encoding")
	ErrBadGroupLength      = errors.New("convert: input length is not a multiple of 4")
)

// Converter transforms packed 4:2:2 samples into interleaved RGB24. It
// reuses an internal output buffer sized for the negotiated frame, so a
// Converter must not be shared between goroutines.
type Converter struct {
	out []byte
}

// New returns a Converter with capacity for frames up to frameSize input
// bytes. Larger inputs still convert; the buffer grows once.
func New(frameSize int) *Converter {
	return &Converter{out: make([]byte, 0, rgbSize(frameSize))}
}

// rgbSize is the RGB24 output size for a packed 4:2:2 input of n bytes.
func rgbSize(n int) int {
	return n / 4 * 6
}

// Convert produces one RGB triple per luma sample. The returned slice is
// owned by the Converter and is valid until the next Convert call.
//
// Output length is exactly len(data)*3/2. The conversion is the
// integer-only ITU-R BT.601 approximation
//
//	c = Y-16; d = Cb-128; e = Cr-128
//	R = clip((298c       + 409e + 128) >> 8)
//	G = clip((298c - 100d - 208e + 128) >> 8)
//	B = clip((298c + 516d        + 128) >> 8)
//
// which avoids floating-point drift across platforms.
func (c *Converter) Convert(data []byte, enc Encoding) ([]byte, error) {
	if enc != EncodingYUYV {
		return nil, fmt.Errorf("%w: %#08x", ErrUnsupportedEncoding, uint32(enc))
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadGroupLength, len(data))
	}

	n := rgbSize(len(data))
	if cap(c.out) < n {
		c.out = make([]byte, 0, n)
	}
	out := c.out[:n]

	for i, j := 0, 0; i < len(data); i, j = i+4, j+6 {
		y0 := int(data[i])
		cb := int(data[i+1])
		y1 := int(data[i+2])
		cr := int(data[i+3])

		// Both luma samples in the group share the chroma pair but are
		// converted independently.
		out[j+0], out[j+1], out[j+2] = yuvToRGB(y0, cb, cr)
		out[j+3], out[j+4], out[j+5] = yuvToRGB(y1, cb, cr)
	}

	return out, nil
}

// yuvToRGB converts one luma sample and its chroma pair to an RGB triple
// using fixed-point coefficients.
func yuvToRGB(y, cb, cr int) (byte, byte, byte) {
	c := y - 16
	d := cb - 128
	e := cr - 128

	r := (298*c + 409*e + 128) >> 8
	g := (298*c - 100*d - 208*e + 128) >> 8
	b := (298*c + 516*d + 128) >> 8

	return clip(r), clip(g), clip(b)
}

// clip saturates a computed sample into [0, 255].
func clip(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
