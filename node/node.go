// Package node implements the document hierarchy: a Document root owning
// Groups, Layers, Notes and Unloaded placeholders.
//
// Parents own their children exclusively. A Tree wraps the Document and
// keeps an identity index so nodes are always addressed by ID, never by
// position. Structural edits (insert, move, remove, replace) must go
// through the Tree to keep the index consistent; attribute setters on the
// nodes themselves may be called directly.
package node

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/pixel"
)

var (
	// ErrNotFound is returned when an identity does not resolve.
	ErrNotFound = errors.New("node: not found")

	// ErrTargetNotFound is returned when a patch target does not resolve.
	// It wraps ErrNotFound.
	ErrTargetNotFound = fmt.Errorf("target %w", ErrNotFound)

	// ErrIndexOutOfRange is returned for invalid insertion or move indices.
	ErrIndexOutOfRange = errors.New("node: index out of range")

	// ErrDuplicateID is returned when an identity would appear twice.
	ErrDuplicateID = errors.New("node: duplicate id")

	// ErrInvalidChild is returned when a node cannot be a child, such as a
	// Document.
	ErrInvalidChild = errors.New("node: invalid child")

	// ErrInvalidTarget is returned when an operation does not apply to the
	// kind of the target node.
	ErrInvalidTarget = errors.New("node: invalid target")
)

// Kind identifies the variant of a Node.
type Kind uint8

const (
	// KindDocument is the root of a tree.
	KindDocument Kind = iota
	// KindGroup is an ordered container of child nodes.
	KindGroup
	// KindLayer holds a canvas.
	KindLayer
	// KindNote holds a text annotation.
	KindNote
	// KindUnloaded is a layer whose pixel data has not been fetched yet.
	KindUnloaded

	kindCount
)

var kindNames = [kindCount]string{
	KindDocument: "Document",
	KindGroup:    "Group",
	KindLayer:    "Layer",
	KindNote:     "Note",
	KindUnloaded: "Unloaded",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Node is an addressable element of the document tree. The set of
// implementations is closed: *Document, *Group, *Layer, *Note and
// *Unloaded.
type Node interface {
	ID() uuid.UUID
	Kind() Kind
	Name() string
	SetName(name string)
	Position() geom.Vec2
	SetPosition(p geom.Vec2)

	// Clone returns a deep copy with the same identities.
	Clone() Node

	sealed()
}

// Parent is a node that owns an ordered list of children: *Document or
// *Group.
type Parent interface {
	Node

	// Children returns a copy of the child list.
	Children() []Node
	// NumChildren returns the number of children.
	NumChildren() int
	// Child returns the child at index i, or nil.
	Child(i int) Node

	children() *[]Node
}

// Flagged is implemented by nodes with visibility and lock flags:
// *Group and *Layer.
type Flagged interface {
	Node
	Visible() bool
	SetVisible(v bool)
	Locked() bool
	SetLocked(l bool)
}

// NewID returns a fresh time-ordered identity.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NormalizeName returns name in Unicode normalization form C.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// base holds the attributes shared by every kind.
type base struct {
	id   uuid.UUID
	name string
	pos  geom.Vec2
}

func (b *base) ID() uuid.UUID           { return b.id }
func (b *base) Name() string            { return b.name }
func (b *base) SetName(name string)     { b.name = NormalizeName(name) }
func (b *base) Position() geom.Vec2     { return b.pos }
func (b *base) SetPosition(p geom.Vec2) { b.pos = p }
func (*base) sealed()                   {}

// container holds an owned child list.
type container struct {
	kids []Node
}

func (c *container) Children() []Node {
	out := make([]Node, len(c.kids))
	copy(out, c.kids)
	return out
}

func (c *container) NumChildren() int { return len(c.kids) }

func (c *container) Child(i int) Node {
	if i < 0 || i >= len(c.kids) {
		return nil
	}
	return c.kids[i]
}

func (c *container) children() *[]Node { return &c.kids }

func (c *container) cloneChildren() []Node {
	if c.kids == nil {
		return nil
	}
	out := make([]Node, len(c.kids))
	for i, k := range c.kids {
		out[i] = k.Clone()
	}
	return out
}

// flags holds visibility and lock state.
type flags struct {
	hidden bool
	locked bool
}

func (f *flags) Visible() bool     { return !f.hidden }
func (f *flags) SetVisible(v bool) { f.hidden = !v }
func (f *flags) Locked() bool      { return f.locked }
func (f *flags) SetLocked(l bool)  { f.locked = l }

type options struct {
	id       uuid.UUID
	pos      geom.Vec2
	children []Node
	hidden   bool
	locked   bool
	folded   bool
	blend    pixel.BlendMode
	opacity  uint8
}

// Option configures a new node.
type Option func(*options)

// WithID sets the identity instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithPosition sets the position.
func WithPosition(p geom.Vec2) Option {
	return func(o *options) {
		o.pos = p
	}
}

// WithChildren sets the initial children of a Document or Group.
// The parent takes ownership.
func WithChildren(children ...Node) Option {
	return func(o *options) {
		o.children = children
	}
}

// WithVisible sets the visibility of a Group, Layer or Unloaded node.
func WithVisible(v bool) Option {
	return func(o *options) {
		o.hidden = !v
	}
}

// WithLocked sets the lock flag of a Group, Layer or Unloaded node.
func WithLocked(l bool) Option {
	return func(o *options) {
		o.locked = l
	}
}

// WithFolded sets the fold flag of a Group.
func WithFolded(f bool) Option {
	return func(o *options) {
		o.folded = f
	}
}

// WithBlend sets the compositing mode and opacity of a Layer or Unloaded node.
func WithBlend(mode pixel.BlendMode, opacity uint8) Option {
	return func(o *options) {
		o.blend = mode
		o.opacity = opacity
	}
}

func newOptions(opts []Option) options {
	o := options{opacity: 255}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == uuid.Nil {
		o.id = NewID()
	}
	return o
}

func (o *options) base(name string) base {
	return base{id: o.id, name: NormalizeName(name), pos: o.pos}
}
