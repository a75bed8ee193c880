// Package canvas implements the pixel storage of a layer: a primary buffer
// plus an optional auxiliary buffer of the same dimensions, and the
// operations patches perform on them.
//
// Every operation that changes dimensions reallocates both buffers
// completely, so the pixel count of each buffer always equals the canvas
// area.
package canvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/pixel"
)

// MaxDimension is the largest width or height a canvas may have.
const MaxDimension = 1 << 15

// ModeInherit tells ApplyStencil to use the stencil's own blend mode.
const ModeInherit pixel.BlendMode = 0xff

var (
	// ErrInvalidRegion is returned when a crop or resize would produce a
	// negative or oversized canvas.
	ErrInvalidRegion = errors.New("canvas: invalid region")

	// ErrEncodingMismatch is returned when a stencil matches neither buffer
	// of a canvas.
	ErrEncodingMismatch = errors.New("canvas: encoding mismatch")
)

// Canvas is the pixel data of a layer.
type Canvas struct {
	size    geom.Extent
	primary *pixel.Buffer
	aux     *pixel.Buffer
}

type options struct {
	aux    bool
	auxEnc pixel.Encoding
}

// Option configures a new Canvas.
type Option func(*options)

// WithAux adds an auxiliary buffer of encoding enc, e.g. a UV16 normal map.
func WithAux(enc pixel.Encoding) Option {
	return func(o *options) {
		o.aux = true
		o.auxEnc = enc
	}
}

// New creates a zero-filled canvas.
func New(enc pixel.Encoding, size geom.Extent, opts ...Option) (*Canvas, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := CheckSize(size); err != nil {
		return nil, err
	}
	primary, err := pixel.New(enc, size.W, size.H)
	if err != nil {
		return nil, err
	}
	c := &Canvas{size: size, primary: primary}
	if o.aux {
		if c.aux, err = pixel.New(o.auxEnc, size.W, size.H); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FromBuffers creates a canvas that takes ownership of the given buffers.
// aux may be nil. Both buffers must have the same dimensions.
func FromBuffers(primary, aux *pixel.Buffer) (*Canvas, error) {
	if aux != nil && aux.Size() != primary.Size() {
		return nil, fmt.Errorf("%w: primary %v, aux %v", pixel.ErrSizeMismatch, primary.Size(), aux.Size())
	}
	return &Canvas{size: primary.Size(), primary: primary, aux: aux}, nil
}

// CheckSize returns ErrInvalidRegion unless size is non-negative and
// within MaxDimension.
func CheckSize(size geom.Extent) error {
	return CheckSizeLimit(size, MaxDimension)
}

// CheckSizeLimit is CheckSize with a custom limit, capped at MaxDimension.
func CheckSizeLimit(size geom.Extent, limit int) error {
	limit = min(limit, MaxDimension)
	if !size.IsValid() || size.W > limit || size.H > limit {
		return fmt.Errorf("%w: %v (limit %d)", ErrInvalidRegion, size, limit)
	}
	return nil
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() geom.Extent {
	return c.size
}

// Encoding returns the encoding of the primary buffer.
func (c *Canvas) Encoding() pixel.Encoding {
	return c.primary.Encoding()
}

// Primary returns the primary buffer.
func (c *Canvas) Primary() *pixel.Buffer {
	return c.primary
}

// Aux returns the auxiliary buffer, or nil.
func (c *Canvas) Aux() *pixel.Buffer {
	return c.aux
}

// HasAux reports whether the canvas has an auxiliary buffer.
func (c *Canvas) HasAux() bool {
	return c.aux != nil
}

// buffers returns the non-nil buffers, primary first.
func (c *Canvas) buffers() []*pixel.Buffer {
	if c.aux == nil {
		return []*pixel.Buffer{c.primary}
	}
	return []*pixel.Buffer{c.primary, c.aux}
}

// Crop re-windows the canvas to [offset, offset+size) in current canvas
// coordinates. The window may extend past the current bounds in any
// direction; pixels it introduces are zero. Zero-area results are valid.
func (c *Canvas) Crop(offset geom.Vec2, size geom.Extent) error {
	if err := CheckSize(size); err != nil {
		return err
	}
	next := make([]*pixel.Buffer, 0, 2)
	for _, b := range c.buffers() {
		nb, err := pixel.New(b.Encoding(), size.W, size.H)
		if err != nil {
			return err
		}
		if err := nb.CopyRect(b, offset.Neg()); err != nil {
			return err
		}
		next = append(next, nb)
	}
	c.install(size, next)
	return nil
}

// Resize resamples both buffers to size. Destination pixel centers map to
// source coordinates as src = (dst+0.5)*srcW/dstW - 0.5.
func (c *Canvas) Resize(size geom.Extent, s pixel.Sampling) error {
	if err := CheckSize(size); err != nil {
		return err
	}
	sx := scale(c.size.W, size.W)
	sy := scale(c.size.H, size.H)
	next := make([]*pixel.Buffer, 0, 2)
	for _, b := range c.buffers() {
		nb, err := pixel.New(b.Encoding(), size.W, size.H)
		if err != nil {
			return err
		}
		for y := range size.H {
			fy := (float64(y)+0.5)*sy - 0.5
			for x := range size.W {
				fx := (float64(x)+0.5)*sx - 0.5
				_ = nb.Set(x, y, pixel.Sample(b, fx, fy, s))
			}
		}
		next = append(next, nb)
	}
	c.install(size, next)
	return nil
}

func scale(from, to int) float64 {
	if to == 0 {
		return 0
	}
	return float64(from) / float64(to)
}

func (c *Canvas) install(size geom.Extent, bufs []*pixel.Buffer) {
	c.size = size
	c.primary = bufs[0]
	if len(bufs) > 1 {
		c.aux = bufs[1]
	}
}

// ApplyStencil composites st onto the canvas with its top-left corner at
// offset. The stencil goes into the primary buffer when the encodings
// match, otherwise into the auxiliary buffer; a stencil matching neither
// fails with ErrEncodingMismatch. Only covered pixels inside the canvas
// are blended, the rest are dropped. ModeInherit selects the stencil's
// own mode.
func (c *Canvas) ApplyStencil(st *Stencil, offset geom.Vec2, mode pixel.BlendMode) error {
	dst, err := c.target(st.Encoding())
	if err != nil {
		return err
	}
	if mode == ModeInherit {
		mode = st.Mode()
	}
	enc := dst.Encoding()
	area := geom.R(0, 0, c.size.W, c.size.H).Intersect(st.Bounds(offset))
	if area.Empty() {
		return nil
	}
	end := area.Max()
	for y := area.Min.Y; y < end.Y; y++ {
		for x := area.Min.X; x < end.X; x++ {
			sx, sy := x-offset.X, y-offset.Y
			if !st.Covered(sx, sy) {
				continue
			}
			src, _ := st.buf.At(sx, sy)
			backdrop, _ := dst.At(x, y)
			_ = dst.Set(x, y, pixel.Blend(enc, src, backdrop, mode))
		}
	}
	return nil
}

// Accepts reports whether a stencil of encoding enc can be applied.
func (c *Canvas) Accepts(enc pixel.Encoding) bool {
	_, err := c.target(enc)
	return err == nil
}

func (c *Canvas) target(enc pixel.Encoding) (*pixel.Buffer, error) {
	if c.primary.Encoding() == enc {
		return c.primary, nil
	}
	if c.aux != nil && c.aux.Encoding() == enc {
		return c.aux, nil
	}
	return nil, fmt.Errorf("%w: stencil %v on canvas %v", ErrEncodingMismatch, enc, c.describeEncodings())
}

func (c *Canvas) describeEncodings() string {
	if c.aux == nil {
		return c.primary.Encoding().String()
	}
	return c.primary.Encoding().String() + "+" + c.aux.Encoding().String()
}

// Snapshot returns a deep copy of the canvas.
func (c *Canvas) Snapshot() *Canvas {
	s := &Canvas{size: c.size, primary: c.primary.Clone()}
	if c.aux != nil {
		s.aux = c.aux.Clone()
	}
	return s
}

// Equal reports whether both canvases have identical dimensions, encodings
// and pixel contents.
func (c *Canvas) Equal(o *Canvas) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.size == o.size && c.primary.Equal(o.primary) && c.aux.Equal(o.aux)
}

// String returns a short description of the canvas.
func (c *Canvas) String() string {
	return fmt.Sprintf("Canvas(%v %v)", c.describeEncodings(), c.size)
}
