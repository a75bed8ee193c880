package canvas

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/pixel"
)

// Stencil is a masked block of pixels produced by painting tools and
// composited onto a canvas by ApplyStencil. Only pixels whose mask bit
// is set take part in compositing.
//
// A stencil is consumed once; it carries no identity.
type Stencil struct {
	buf  *pixel.Buffer
	mask []byte // one bit per pixel, row-major, LSB first
	mode pixel.BlendMode
}

// NewStencil creates a stencil with nothing covered.
func NewStencil(enc pixel.Encoding, size geom.Extent) (*Stencil, error) {
	buf, err := pixel.New(enc, size.W, size.H)
	if err != nil {
		return nil, err
	}
	return &Stencil{buf: buf, mask: make([]byte, maskLen(size))}, nil
}

// StencilFromBuffer creates a stencil covering every pixel of buf.
// The buffer is copied.
func StencilFromBuffer(buf *pixel.Buffer) *Stencil {
	mask := make([]byte, maskLen(buf.Size()))
	for i := range buf.Len() {
		mask[i>>3] |= 1 << (i & 7)
	}
	return &Stencil{buf: buf.Clone(), mask: mask}
}

// UnpackStencil rebuilds a stencil from its packed form: a coverage mask
// and the data of covered pixels only, in row-major order.
func UnpackStencil(enc pixel.Encoding, size geom.Extent, mode pixel.BlendMode, mask, data []byte) (*Stencil, error) {
	s, err := NewStencil(enc, size)
	if err != nil {
		return nil, err
	}
	if len(mask) != len(s.mask) {
		return nil, fmt.Errorf("%w: mask has %d bytes, want %d", pixel.ErrSizeMismatch, len(mask), len(s.mask))
	}
	copy(s.mask, mask)
	s.mode = mode

	bpp := enc.BytesPerPixel()
	if want := s.Count() * bpp; len(data) != want {
		return nil, fmt.Errorf("%w: stencil data has %d bytes, want %d", pixel.ErrSizeMismatch, len(data), want)
	}
	raw := s.buf.Bytes()
	n := 0
	for i := range s.buf.Len() {
		if s.bit(i) {
			copy(raw[i*bpp:(i+1)*bpp], data[n:n+bpp])
			n += bpp
		}
	}
	return s, nil
}

// Pack returns the coverage mask and the data of covered pixels.
func (s *Stencil) Pack() (mask, data []byte) {
	bpp := s.buf.Encoding().BytesPerPixel()
	raw := s.buf.Bytes()
	data = make([]byte, 0, s.Count()*bpp)
	for i := range s.buf.Len() {
		if s.bit(i) {
			data = append(data, raw[i*bpp:(i+1)*bpp]...)
		}
	}
	return bytes.Clone(s.mask), data
}

func maskLen(size geom.Extent) int {
	return (size.Area() + 7) / 8
}

func (s *Stencil) bit(i int) bool {
	return s.mask[i>>3]&(1<<(i&7)) != 0
}

// Encoding returns the encoding of the stencil pixels.
func (s *Stencil) Encoding() pixel.Encoding {
	return s.buf.Encoding()
}

// Size returns the stencil dimensions.
func (s *Stencil) Size() geom.Extent {
	return s.buf.Size()
}

// Mode returns the stencil's own blend mode.
func (s *Stencil) Mode() pixel.BlendMode {
	return s.mode
}

// SetMode sets the stencil's own blend mode.
func (s *Stencil) SetMode(m pixel.BlendMode) {
	s.mode = m
}

// Bounds returns the rectangle covered by the stencil placed at offset.
func (s *Stencil) Bounds(offset geom.Vec2) geom.Rect {
	return geom.Rect{Min: offset, Size: s.Size()}
}

// SetPixel writes p at (x, y) and marks it covered.
func (s *Stencil) SetPixel(x, y int, p pixel.Pixel) error {
	if err := s.buf.Set(x, y, p); err != nil {
		return err
	}
	i := y*s.buf.Width() + x
	s.mask[i>>3] |= 1 << (i & 7)
	return nil
}

// Covered reports whether (x, y) is covered. Out of range is not covered.
func (s *Stencil) Covered(x, y int) bool {
	if x < 0 || y < 0 || x >= s.buf.Width() || y >= s.buf.Height() {
		return false
	}
	return s.bit(y*s.buf.Width() + x)
}

// Count returns the number of covered pixels.
func (s *Stencil) Count() int {
	n := 0
	for i := range s.buf.Len() {
		if s.bit(i) {
			n++
		}
	}
	return n
}

// All yields the covered pixels in row-major order.
func (s *Stencil) All() iter.Seq2[geom.Vec2, pixel.Pixel] {
	return func(yield func(geom.Vec2, pixel.Pixel) bool) {
		w := s.buf.Width()
		for i := range s.buf.Len() {
			if !s.bit(i) {
				continue
			}
			x, y := i%w, i/w
			p, _ := s.buf.At(x, y)
			if !yield(geom.V2(x, y), p) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the stencil.
func (s *Stencil) Clone() *Stencil {
	return &Stencil{buf: s.buf.Clone(), mask: bytes.Clone(s.mask), mode: s.mode}
}

// Equal reports whether both stencils cover the same pixels with the same
// values and mode. Data under unset mask bits is ignored.
func (s *Stencil) Equal(o *Stencil) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.mode != o.mode || s.Encoding() != o.Encoding() || s.Size() != o.Size() ||
		!bytes.Equal(s.mask, o.mask) {
		return false
	}
	_, a := s.Pack()
	_, b := o.Pack()
	return bytes.Equal(a, b)
}

// Merge returns the union of two stencils of the same encoding. The result
// is large enough to hold both; where both cover a pixel, b wins. The mode
// of a is kept.
func Merge(a, b *Stencil) (*Stencil, error) {
	if a.Encoding() != b.Encoding() {
		return nil, fmt.Errorf("%w: merge %v with %v", ErrEncodingMismatch, a.Encoding(), b.Encoding())
	}
	as, bs := a.Size(), b.Size()
	out, err := NewStencil(a.Encoding(), geom.Ext(max(as.W, bs.W), max(as.H, bs.H)))
	if err != nil {
		return nil, err
	}
	out.mode = a.mode
	for _, s := range []*Stencil{a, b} {
		for pos, p := range s.All() {
			if err := out.SetPixel(pos.X, pos.Y, p); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
