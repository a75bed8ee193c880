// Package export renders documents to images.
//
// Flatten composites the visible layers of a subtree into one RGBA image.
// Children are drawn in order, so the first child is the bottom-most. A
// node's position is relative to its parent; the absolute position of a
// layer is the sum of the positions on its path from the root.
//
// Each layer's primary buffer is converted to RGBA8 (see
// pixel.Buffer.ToImage), its alpha scaled by the layer opacity, and then
// blended onto the result with the layer's blend mode.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/internal/blend"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/source"
)

// ErrEmpty is returned when there is nothing visible to flatten and no
// explicit bounds were given.
var ErrEmpty = errors.New("export: nothing to render")

type options struct {
	bounds       *geom.Rect
	skipUnloaded bool
	background   pixel.Pixel
}

// Option configures Flatten.
type Option func(*options)

// WithBounds renders the given rectangle instead of the union of the
// visible layers.
func WithBounds(r geom.Rect) Option {
	return func(o *options) {
		o.bounds = &r
	}
}

// WithSkipUnloaded leaves out Unloaded placeholders instead of failing
// with source.ErrSourceUnavailable.
func WithSkipUnloaded() Option {
	return func(o *options) {
		o.skipUnloaded = true
	}
}

// WithBackground fills the result with an RGBA8 pixel before compositing.
// The default is transparent black.
func WithBackground(p pixel.Pixel) Option {
	return func(o *options) {
		o.background = p
	}
}

// placed is a layer with its absolute origin.
type placed struct {
	layer  *node.Layer
	origin geom.Vec2
}

// Flatten composites the visible layers below root.
func Flatten(root node.Node, opts ...Option) (*image.NRGBA, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var layers []placed
	if err := collect(root, geom.Vec2{}, &o, &layers); err != nil {
		return nil, err
	}

	var bounds geom.Rect
	if o.bounds != nil {
		bounds = *o.bounds
		if !bounds.Size.IsValid() {
			return nil, fmt.Errorf("export: invalid bounds %v", bounds)
		}
	} else {
		for _, p := range layers {
			bounds = bounds.Union(geom.Rect{Min: p.origin, Size: p.layer.Canvas().Size()})
		}
		if bounds.Empty() {
			return nil, ErrEmpty
		}
	}

	dst, err := pixel.New(pixel.RGBA8, bounds.Size.W, bounds.Size.H)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	dst.Fill(o.background)
	for _, p := range layers {
		composite(dst, bounds.Min, p)
	}
	return dst.ToImage(), nil
}

// collect appends the visible layers below n in drawing order.
func collect(n node.Node, origin geom.Vec2, o *options, out *[]placed) error {
	if v, ok := n.(interface{ Visible() bool }); ok && !v.Visible() {
		return nil
	}
	origin = origin.Add(n.Position())

	switch n := n.(type) {
	case *node.Layer:
		*out = append(*out, placed{layer: n, origin: origin})
	case *node.Unloaded:
		if !o.skipUnloaded {
			return fmt.Errorf("export: layer %q: %w: not loaded", n.Name(), source.ErrSourceUnavailable)
		}
	case node.Parent:
		for _, c := range n.Children() {
			if err := collect(c, origin, o, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// composite blends one layer onto dst, whose origin lies at in document
// coordinates.
func composite(dst *pixel.Buffer, at geom.Vec2, p placed) {
	c := p.layer.Canvas()
	area := geom.Rect{Min: at, Size: dst.Size()}.Intersect(geom.Rect{Min: p.origin, Size: c.Size()})
	if area.Empty() {
		return
	}
	mode, opacity := p.layer.Blend()
	src := c.Primary().ToImage()
	data := dst.Bytes()
	stride := dst.Width() * 4

	for y := area.Min.Y; y < area.Max().Y; y++ {
		for x := area.Min.X; x < area.Max().X; x++ {
			si := src.PixOffset(x-p.origin.X, y-p.origin.Y)
			s := pixel.RGBA(src.Pix[si], src.Pix[si+1], src.Pix[si+2], blend.MulDiv255(src.Pix[si+3], opacity))
			if s[3] == 0 {
				continue
			}
			di := (y-at.Y)*stride + (x-at.X)*4
			d := pixel.RGBA(data[di], data[di+1], data[di+2], data[di+3])
			r := pixel.Blend(pixel.RGBA8, s, d, mode)
			copy(data[di:di+4], r[:4])
		}
	}
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("export: png: %w", err)
	}
	return nil
}
