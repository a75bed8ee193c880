package node

import (
	"fmt"
	"slices"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/source"
)

// Document is the root of a tree. Its position is absolute.
type Document struct {
	base
	container
}

// NewDocument creates a document. Accepts WithID, WithPosition and
// WithChildren.
func NewDocument(name string, opts ...Option) *Document {
	o := newOptions(opts)
	return &Document{base: o.base(name), container: container{kids: o.children}}
}

// Kind implements Node.
func (*Document) Kind() Kind { return KindDocument }

// Clone implements Node.
func (d *Document) Clone() Node {
	return &Document{base: d.base, container: container{kids: d.cloneChildren()}}
}

// Group is an ordered container of child nodes.
type Group struct {
	base
	container
	flags
	folded bool
}

// NewGroup creates a group. Accepts WithID, WithPosition, WithChildren,
// WithVisible, WithLocked and WithFolded.
func NewGroup(name string, opts ...Option) *Group {
	o := newOptions(opts)
	return &Group{
		base:      o.base(name),
		container: container{kids: o.children},
		flags:     flags{hidden: o.hidden, locked: o.locked},
		folded:    o.folded,
	}
}

// Kind implements Node.
func (*Group) Kind() Kind { return KindGroup }

// Folded reports whether the group is collapsed in outlines.
func (g *Group) Folded() bool { return g.folded }

// SetFolded sets the fold flag.
func (g *Group) SetFolded(f bool) { g.folded = f }

// Clone implements Node.
func (g *Group) Clone() Node {
	return &Group{
		base:      g.base,
		container: container{kids: g.cloneChildren()},
		flags:     g.flags,
		folded:    g.folded,
	}
}

// Layer holds a canvas and its compositing attributes.
type Layer struct {
	base
	flags
	blend   pixel.BlendMode
	opacity uint8
	canvas  *canvas.Canvas
}

// NewLayer creates a layer that takes ownership of c. A nil canvas is
// replaced by an empty RGBA8 one. Accepts WithID, WithPosition,
// WithVisible, WithLocked and WithBlend. Opacity defaults to 255.
func NewLayer(name string, c *canvas.Canvas, opts ...Option) *Layer {
	o := newOptions(opts)
	if c == nil {
		c, _ = canvas.New(pixel.RGBA8, geom.Extent{})
	}
	return &Layer{
		base:    o.base(name),
		flags:   flags{hidden: o.hidden, locked: o.locked},
		blend:   o.blend,
		opacity: o.opacity,
		canvas:  c,
	}
}

// Kind implements Node.
func (*Layer) Kind() Kind { return KindLayer }

// Canvas returns the layer's canvas.
func (l *Layer) Canvas() *canvas.Canvas { return l.canvas }

// SetCanvas replaces the canvas.
func (l *Layer) SetCanvas(c *canvas.Canvas) { l.canvas = c }

// Blend returns the compositing mode and opacity.
func (l *Layer) Blend() (pixel.BlendMode, uint8) { return l.blend, l.opacity }

// SetBlend sets the compositing mode and opacity.
func (l *Layer) SetBlend(mode pixel.BlendMode, opacity uint8) {
	l.blend = mode
	l.opacity = opacity
}

// Clone implements Node.
func (l *Layer) Clone() Node {
	c := *l
	c.canvas = l.canvas.Snapshot()
	return &c
}

// Note is a positioned text annotation.
type Note struct {
	base
	content string
}

// NewNote creates a note. Accepts WithID and WithPosition.
func NewNote(name, content string, opts ...Option) *Note {
	o := newOptions(opts)
	return &Note{base: o.base(name), content: content}
}

// Kind implements Node.
func (*Note) Kind() Kind { return KindNote }

// Content returns the note text.
func (n *Note) Content() string { return n.content }

// SetContent replaces the note text.
func (n *Note) SetContent(s string) { n.content = s }

// Clone implements Node.
func (n *Note) Clone() Node {
	c := *n
	return &c
}

// Unloaded stands in for a layer whose pixel data lives in a byte-range
// source. Its ranges hold the primary buffer followed by the auxiliary
// buffer, if any. Load replaces it with a Layer.
type Unloaded struct {
	base
	flags
	blend   pixel.BlendMode
	opacity uint8
	size    geom.Extent
	enc     pixel.Encoding
	auxEnc  pixel.Encoding
	hasAux  bool
	ranges  []source.Range
}

// NewUnloaded creates a placeholder. aux is the encoding of the auxiliary
// buffer, or nil when the layer has none. Accepts WithID, WithPosition,
// WithVisible, WithLocked and WithBlend.
func NewUnloaded(name string, size geom.Extent, enc pixel.Encoding, aux *pixel.Encoding, ranges []source.Range, opts ...Option) *Unloaded {
	o := newOptions(opts)
	u := &Unloaded{
		base:    o.base(name),
		flags:   flags{hidden: o.hidden, locked: o.locked},
		blend:   o.blend,
		opacity: o.opacity,
		size:    size,
		enc:     enc,
		ranges:  slices.Clone(ranges),
	}
	if aux != nil {
		u.hasAux = true
		u.auxEnc = *aux
	}
	return u
}

// Kind implements Node.
func (*Unloaded) Kind() Kind { return KindUnloaded }

// Size returns the canvas size of the pending layer.
func (u *Unloaded) Size() geom.Extent { return u.size }

// Encoding returns the primary encoding of the pending layer.
func (u *Unloaded) Encoding() pixel.Encoding { return u.enc }

// AuxEncoding returns the auxiliary encoding and whether there is one.
func (u *Unloaded) AuxEncoding() (pixel.Encoding, bool) { return u.auxEnc, u.hasAux }

// Ranges returns a copy of the byte ranges holding the pixel data.
func (u *Unloaded) Ranges() []source.Range { return slices.Clone(u.ranges) }

// Blend returns the compositing mode and opacity of the pending layer.
func (u *Unloaded) Blend() (pixel.BlendMode, uint8) { return u.blend, u.opacity }

// DataLength returns the number of bytes Materialize expects.
func (u *Unloaded) DataLength() int {
	n := u.enc.ImageBytes(u.size.W, u.size.H)
	if u.hasAux {
		n += u.auxEnc.ImageBytes(u.size.W, u.size.H)
	}
	return n
}

// Materialize builds the layer this placeholder stands for from the
// concatenated range data. The layer keeps the placeholder's identity and
// attributes.
func (u *Unloaded) Materialize(data []byte) (*Layer, error) {
	if len(data) != u.DataLength() {
		return nil, fmt.Errorf("%w: %q has %d bytes, want %d", pixel.ErrSizeMismatch, u.name, len(data), u.DataLength())
	}
	n := u.enc.ImageBytes(u.size.W, u.size.H)
	primary, err := pixel.FromBytes(u.enc, u.size.W, u.size.H, data[:n])
	if err != nil {
		return nil, err
	}
	var aux *pixel.Buffer
	if u.hasAux {
		if aux, err = pixel.FromBytes(u.auxEnc, u.size.W, u.size.H, data[n:]); err != nil {
			return nil, err
		}
	}
	c, err := canvas.FromBuffers(primary, aux)
	if err != nil {
		return nil, err
	}
	return &Layer{base: u.base, flags: u.flags, blend: u.blend, opacity: u.opacity, canvas: c}, nil
}

// Clone implements Node.
func (u *Unloaded) Clone() Node {
	c := *u
	c.ranges = slices.Clone(u.ranges)
	return &c
}

// Dehydrate returns an Unloaded placeholder for l whose data lives at
// ranges, the inverse of Materialize. The ranges must cover the primary
// buffer followed by the auxiliary buffer.
func Dehydrate(l *Layer, ranges []source.Range) *Unloaded {
	u := &Unloaded{
		base:    l.base,
		flags:   l.flags,
		blend:   l.blend,
		opacity: l.opacity,
		size:    l.canvas.Size(),
		enc:     l.canvas.Encoding(),
		ranges:  slices.Clone(ranges),
	}
	if aux := l.canvas.Aux(); aux != nil {
		u.hasAux = true
		u.auxEnc = aux.Encoding()
	}
	return u
}

var (
	_ Parent  = (*Document)(nil)
	_ Parent  = (*Group)(nil)
	_ Flagged = (*Group)(nil)
	_ Flagged = (*Layer)(nil)
	_ Node    = (*Note)(nil)
	_ Node    = (*Unloaded)(nil)
)
