// Package pixel provides typed pixel storage for layer canvases.
//
// A Buffer stores w*h pixels of a single Encoding in a contiguous byte
// slice without row padding. Three encodings are supported: straight-alpha
// color (RGBA8), palette index (Index8) and a pair of 16-bit channels
// (UV16) used for auxiliary data such as normal maps.
//
// Pixels are combined with Blend and resampled with Sample.
package pixel

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gogpu/pxdoc/geom"
)

// Common errors for pixel operations.
var (
	// ErrOutOfBounds is returned when pixel coordinates are outside buffer bounds.
	ErrOutOfBounds = errors.New("pixel: coordinates out of bounds")

	// ErrSizeMismatch is returned when data length does not match the declared dimensions.
	ErrSizeMismatch = errors.New("pixel: size mismatch")

	// ErrInvalidEncoding is returned when the encoding is not recognized.
	ErrInvalidEncoding = errors.New("pixel: invalid encoding")

	// ErrInvalidDimensions is returned when width or height is negative.
	ErrInvalidDimensions = errors.New("pixel: invalid dimensions")
)

// Buffer is a rectangular block of pixels of one encoding.
//
// Buffers are not safe for concurrent mutation; the document engine
// serializes all writes.
type Buffer struct {
	data   []byte
	width  int
	height int
	enc    Encoding
}

// New creates a zero-filled buffer. Zero width or height is allowed.
func New(enc Encoding, width, height int) (*Buffer, error) {
	if !enc.IsValid() {
		return nil, ErrInvalidEncoding
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Buffer{
		data:   make([]byte, enc.ImageBytes(width, height)),
		width:  width,
		height: height,
		enc:    enc,
	}, nil
}

// FromBytes creates a buffer holding a copy of data.
// len(data) must equal width*height*BytesPerPixel.
func FromBytes(enc Encoding, width, height int, data []byte) (*Buffer, error) {
	b, err := New(enc, width, height)
	if err != nil {
		return nil, err
	}
	if err := b.Replace(data); err != nil {
		return nil, err
	}
	return b, nil
}

// Encoding returns the pixel encoding.
func (b *Buffer) Encoding() Encoding {
	return b.enc
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int {
	return b.height
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() geom.Extent {
	return geom.Ext(b.width, b.height)
}

// Len returns the number of pixels (width*height).
func (b *Buffer) Len() int {
	return b.width * b.height
}

// Bytes returns the raw pixel data. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// offset returns the byte offset of pixel (x, y), or -1 when out of bounds.
func (b *Buffer) offset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return (y*b.width + x) * b.enc.BytesPerPixel()
}

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) (Pixel, error) {
	off := b.offset(x, y)
	if off < 0 {
		return Pixel{}, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, x, y, b.width, b.height)
	}
	return load(b.enc, b.data[off:]), nil
}

// Set writes the pixel at (x, y).
func (b *Buffer) Set(x, y int, p Pixel) error {
	off := b.offset(x, y)
	if off < 0 {
		return fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, x, y, b.width, b.height)
	}
	store(b.enc, b.data[off:], p)
	return nil
}

// at is At without the bounds error. Callers guarantee (x, y) is inside.
func (b *Buffer) at(x, y int) Pixel {
	return load(b.enc, b.data[(y*b.width+x)*b.enc.BytesPerPixel():])
}

// Replace overwrites the whole buffer with a copy of data.
// len(data) must equal the buffer's byte length.
func (b *Buffer) Replace(data []byte) error {
	if len(data) != len(b.data) {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%d %v",
			ErrSizeMismatch, len(data), len(b.data), b.width, b.height, b.enc)
	}
	copy(b.data, data)
	return nil
}

// Fill sets every pixel to p.
func (b *Buffer) Fill(p Pixel) {
	bpp := b.enc.BytesPerPixel()
	for off := 0; off < len(b.data); off += bpp {
		store(b.enc, b.data[off:], p)
	}
}

// Clone creates a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{
		data:   data,
		width:  b.width,
		height: b.height,
		enc:    b.enc,
	}
}

// Equal reports whether both buffers have the same encoding, size and contents.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.enc == o.enc && b.width == o.width && b.height == o.height &&
		bytes.Equal(b.data, o.data)
}

// CopyRect copies the overlap of src translated by off into b.
// Pixels of src that fall outside b are dropped.
func (b *Buffer) CopyRect(src *Buffer, off geom.Vec2) error {
	if src.enc != b.enc {
		return fmt.Errorf("%w: copy %v into %v", ErrInvalidEncoding, src.enc, b.enc)
	}
	dst := geom.R(0, 0, b.width, b.height)
	r := dst.Intersect(geom.Rect{Min: off, Size: src.Size()})
	if r.Empty() {
		return nil
	}
	bpp := b.enc.BytesPerPixel()
	n := r.Size.W * bpp
	for y := r.Min.Y; y < r.Min.Y+r.Size.H; y++ {
		d := (y*b.width + r.Min.X) * bpp
		s := ((y-off.Y)*src.width + (r.Min.X - off.X)) * bpp
		copy(b.data[d:d+n], src.data[s:s+n])
	}
	return nil
}

// String returns a short description of the buffer.
func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer(%v %dx%d)", b.enc, b.width, b.height)
}
