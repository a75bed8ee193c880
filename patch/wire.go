package patch

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/pixel"
)

// Wire is the envelope every codec serializes. Only the fields used by
// Kind are set; the rest stay empty and are omitted.
type Wire struct {
	Kind     string           `json:"kind" yaml:"kind"`
	Target   string           `json:"target" yaml:"target"`
	Child    *node.Wire       `json:"child,omitempty" yaml:"child,omitempty"`
	ChildID  string           `json:"child_id,omitempty" yaml:"child_id,omitempty"`
	Index    int              `json:"index,omitempty" yaml:"index,omitempty"`
	Name     *string          `json:"name,omitempty" yaml:"name,omitempty"`
	Position *[2]int          `json:"position,omitempty" yaml:"position,omitempty,flow"`
	Value    *bool            `json:"value,omitempty" yaml:"value,omitempty"`
	Content  *string          `json:"content,omitempty" yaml:"content,omitempty"`
	Blend    string           `json:"blend,omitempty" yaml:"blend,omitempty"`
	Opacity  *int             `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Offset   *[2]int          `json:"offset,omitempty" yaml:"offset,omitempty,flow"`
	Size     *[2]int          `json:"size,omitempty" yaml:"size,omitempty,flow"`
	Sampling string           `json:"sampling,omitempty" yaml:"sampling,omitempty"`
	Stencil  *StencilWire     `json:"stencil,omitempty" yaml:"stencil,omitempty"`
	Canvas   *node.CanvasWire `json:"canvas,omitempty" yaml:"canvas,omitempty"`
	Children []*Wire          `json:"children,omitempty" yaml:"children,omitempty"`
}

// StencilWire is the packed form of a stencil: a coverage bitmask and the
// data of covered pixels, both base64.
type StencilWire struct {
	Size     [2]int `json:"size" yaml:"size,flow"`
	Encoding string `json:"encoding" yaml:"encoding"`
	Mode     string `json:"mode" yaml:"mode"`
	Mask     string `json:"mask" yaml:"mask"`
	Data     string `json:"data" yaml:"data"`
}

func vec(v geom.Vec2) *[2]int   { return &[2]int{v.X, v.Y} }
func ext(e geom.Extent) *[2]int { return &[2]int{e.W, e.H} }

// ToWire converts p to its envelope.
func ToWire(p Patch) (*Wire, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil patch", ErrInvalidPatch)
	}
	w := &Wire{Kind: p.Kind().String(), Target: p.Target().String()}
	switch p := p.(type) {
	case AddChild:
		if p.Child == nil {
			return nil, fmt.Errorf("%w: AddChild without child", ErrInvalidPatch)
		}
		w.Child = node.ToWire(p.Child)
		w.Index = p.Position
	case MoveChild:
		w.ChildID = p.ChildID.String()
		w.Index = p.Position
	case RemoveChild:
		w.ChildID = p.ChildID.String()
	case Rename:
		w.Name = &p.Name
	case Translate:
		w.Position = vec(p.Position)
	case SetVisibility:
		w.Value = &p.Visible
	case SetLock:
		w.Value = &p.Locked
	case SetFold:
		w.Value = &p.Folded
	case SetNoteContent:
		w.Content = &p.Content
	case SetBlend:
		opacity := int(p.Opacity)
		w.Blend, w.Opacity = p.Mode.String(), &opacity
	case Crop:
		w.Offset, w.Size = vec(p.Offset), ext(p.Size)
	case Resize:
		w.Size, w.Sampling = ext(p.Size), p.Sampling.String()
	case ApplyStencil:
		if p.Stencil == nil {
			return nil, fmt.Errorf("%w: ApplyStencil without stencil", ErrInvalidPatch)
		}
		w.Stencil = stencilToWire(p.Stencil)
		w.Offset = vec(p.Offset)
		if p.Mode != canvas.ModeInherit {
			w.Blend = p.Mode.String()
		}
	case RestoreCanvas:
		if p.Canvas == nil {
			return nil, fmt.Errorf("%w: RestoreCanvas without canvas", ErrInvalidPatch)
		}
		w.Name, w.Position = &p.Name, vec(p.Position)
		w.Canvas = node.CanvasToWire(p.Canvas)
	case RestoreGroup:
		w.Name, w.Position = &p.Name, vec(p.Position)
		for _, c := range p.Children {
			cw, err := ToWire(c)
			if err != nil {
				return nil, err
			}
			w.Children = append(w.Children, cw)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, p)
	}
	return w, nil
}

func stencilToWire(s *canvas.Stencil) *StencilWire {
	mask, data := s.Pack()
	return &StencilWire{
		Size:     [2]int{s.Size().W, s.Size().H},
		Encoding: s.Encoding().String(),
		Mode:     s.Mode().String(),
		Mask:     base64.StdEncoding.EncodeToString(mask),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// FromWire builds a patch from its envelope. Legacy kind aliases are
// accepted.
func FromWire(w *Wire) (Patch, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: missing patch", node.ErrMalformed)
	}
	kind, ok := ParseKind(w.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Kind)
	}
	id, err := parseID("target", w.Target)
	if err != nil {
		return nil, err
	}
	d := decoder{w: w, kind: kind}

	switch kind {
	case KindAddChild:
		if w.Child == nil {
			return nil, d.missing("child")
		}
		child, err := node.FromWire(w.Child)
		if err != nil {
			return nil, err
		}
		return AddChild{ID: id, Child: child, Position: w.Index}, nil
	case KindMoveChild:
		child, err := parseID("child_id", w.ChildID)
		if err != nil {
			return nil, err
		}
		return MoveChild{ID: id, ChildID: child, Position: w.Index}, nil
	case KindRemoveChild:
		child, err := parseID("child_id", w.ChildID)
		if err != nil {
			return nil, err
		}
		return RemoveChild{ID: id, ChildID: child}, nil
	case KindRename:
		return Rename{ID: id, Name: d.name()}, nil
	case KindTranslate:
		return Translate{ID: id, Position: d.position()}, nil
	case KindSetVisibility:
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		return SetVisibility{ID: id, Visible: v}, nil
	case KindSetLock:
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		return SetLock{ID: id, Locked: v}, nil
	case KindSetFold:
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		return SetFold{ID: id, Folded: v}, nil
	case KindSetNoteContent:
		var content string
		if w.Content != nil {
			content = *w.Content
		}
		return SetNoteContent{ID: id, Content: content}, nil
	case KindSetBlend:
		mode, err := pixel.ParseBlendMode(w.Blend)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
		}
		if w.Opacity == nil || *w.Opacity < 0 || *w.Opacity > 255 {
			return nil, d.missing("opacity in 0..255")
		}
		return SetBlend{ID: id, Mode: mode, Opacity: uint8(*w.Opacity)}, nil
	case KindCrop:
		size, err := d.size()
		if err != nil {
			return nil, err
		}
		off := geom.Vec2{}
		if w.Offset != nil {
			off = geom.V2(w.Offset[0], w.Offset[1])
		}
		return Crop{ID: id, Offset: off, Size: size}, nil
	case KindResize:
		size, err := d.size()
		if err != nil {
			return nil, err
		}
		s, err := pixel.ParseSampling(w.Sampling)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
		}
		return Resize{ID: id, Size: size, Sampling: s}, nil
	case KindApplyStencil:
		st, err := stencilFromWire(w.Stencil)
		if err != nil {
			return nil, err
		}
		mode := canvas.ModeInherit
		if w.Blend != "" {
			if mode, err = pixel.ParseBlendMode(w.Blend); err != nil {
				return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
			}
		}
		var off geom.Vec2
		if w.Offset != nil {
			off = geom.V2(w.Offset[0], w.Offset[1])
		}
		return ApplyStencil{ID: id, Stencil: st, Offset: off, Mode: mode}, nil
	case KindRestoreCanvas:
		c, err := node.CanvasFromWire(w.Canvas)
		if err != nil {
			return nil, err
		}
		return RestoreCanvas{ID: id, Name: d.name(), Position: d.position(), Canvas: c}, nil
	case KindRestoreGroup:
		var children []Patch
		for _, cw := range w.Children {
			c, err := FromWire(cw)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return RestoreGroup{ID: id, Name: d.name(), Position: d.position(), Children: children}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q: %w", node.ErrMalformed, field, s, err)
	}
	return id, nil
}

// decoder reads optional envelope fields for one kind.
type decoder struct {
	w    *Wire
	kind Kind
}

func (d decoder) missing(field string) error {
	return fmt.Errorf("%w: %v requires %s", node.ErrMalformed, d.kind, field)
}

func (d decoder) name() string {
	if d.w.Name == nil {
		return ""
	}
	return *d.w.Name
}

func (d decoder) position() geom.Vec2 {
	if d.w.Position == nil {
		return geom.Vec2{}
	}
	return geom.V2(d.w.Position[0], d.w.Position[1])
}

func (d decoder) value() (bool, error) {
	if d.w.Value == nil {
		return false, d.missing("value")
	}
	return *d.w.Value, nil
}

func (d decoder) size() (geom.Extent, error) {
	if d.w.Size == nil {
		return geom.Extent{}, d.missing("size")
	}
	return geom.Ext(d.w.Size[0], d.w.Size[1]), nil
}

func stencilFromWire(w *StencilWire) (*canvas.Stencil, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: ApplyStencil requires stencil", node.ErrMalformed)
	}
	enc, ok := pixel.ParseEncoding(w.Encoding)
	if !ok {
		return nil, fmt.Errorf("%w: unknown encoding %q", node.ErrMalformed, w.Encoding)
	}
	mode, err := pixel.ParseBlendMode(w.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
	}
	mask, err := base64.StdEncoding.DecodeString(w.Mask)
	if err != nil {
		return nil, fmt.Errorf("%w: stencil mask: %w", node.ErrMalformed, err)
	}
	data, err := base64.StdEncoding.DecodeString(w.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: stencil data: %w", node.ErrMalformed, err)
	}
	size := geom.Ext(w.Size[0], w.Size[1])
	if err := canvas.CheckSize(size); err != nil {
		return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
	}
	st, err := canvas.UnpackStencil(enc, size, mode, mask, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
	}
	return st, nil
}

// Equal reports whether a and b are observably the same patch: same kind,
// target and data, compared through their wire form.
func Equal(a, b Patch) bool {
	wa, err := ToWire(a)
	if err != nil {
		return false
	}
	wb, err := ToWire(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(wa, wb)
}
