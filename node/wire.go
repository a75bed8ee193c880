package node

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/source"
)

// ErrMalformed is returned when wire data does not describe a valid node.
var ErrMalformed = errors.New("node: malformed wire data")

// Wire is the serializable form of a node. It is shared by every codec:
// JSON and YAML tags name the same fields, and pixel data travels as
// standard base64 text.
type Wire struct {
	Kind        string         `json:"kind" yaml:"kind"`
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Position    [2]int         `json:"position" yaml:"position,flow"`
	Hidden      bool           `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Locked      bool           `json:"locked,omitempty" yaml:"locked,omitempty"`
	Folded      bool           `json:"folded,omitempty" yaml:"folded,omitempty"`
	Blend       string         `json:"blend,omitempty" yaml:"blend,omitempty"`
	Opacity     *int           `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Content     string         `json:"content,omitempty" yaml:"content,omitempty"`
	Canvas      *CanvasWire    `json:"canvas,omitempty" yaml:"canvas,omitempty"`
	Size        *[2]int        `json:"size,omitempty" yaml:"size,omitempty,flow"`
	Encoding    string         `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	AuxEncoding string         `json:"aux_encoding,omitempty" yaml:"aux_encoding,omitempty"`
	Ranges      []source.Range `json:"ranges,omitempty" yaml:"ranges,omitempty"`
	Children    []*Wire        `json:"children,omitempty" yaml:"children,omitempty"`
}

// CanvasWire is the serializable form of a canvas.
type CanvasWire struct {
	Size        [2]int `json:"size" yaml:"size,flow"`
	Encoding    string `json:"encoding" yaml:"encoding"`
	Data        string `json:"data,omitempty" yaml:"data,omitempty"`
	AuxEncoding string `json:"aux_encoding,omitempty" yaml:"aux_encoding,omitempty"`
	AuxData     string `json:"aux_data,omitempty" yaml:"aux_data,omitempty"`
}

// Marshal encodes n and its subtree as JSON.
func Marshal(n Node) ([]byte, error) {
	return json.Marshal(ToWire(n))
}

// Unmarshal decodes a node encoded by Marshal.
func Unmarshal(data []byte) (Node, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return FromWire(&w)
}

// ToWire converts n and its subtree to wire form.
func ToWire(n Node) *Wire {
	w := &Wire{
		Kind:     n.Kind().String(),
		ID:       n.ID().String(),
		Name:     n.Name(),
		Position: [2]int{n.Position().X, n.Position().Y},
	}
	switch n := n.(type) {
	case *Document:
		w.Children = childrenToWire(n.kids)
	case *Group:
		w.Hidden, w.Locked, w.Folded = n.hidden, n.locked, n.folded
		w.Children = childrenToWire(n.kids)
	case *Layer:
		w.Hidden, w.Locked = n.hidden, n.locked
		w.Blend, w.Opacity = n.blend.String(), opacityToWire(n.opacity)
		w.Canvas = CanvasToWire(n.canvas)
	case *Note:
		w.Content = n.content
	case *Unloaded:
		w.Hidden, w.Locked = n.hidden, n.locked
		w.Blend, w.Opacity = n.blend.String(), opacityToWire(n.opacity)
		w.Size = &[2]int{n.size.W, n.size.H}
		w.Encoding = n.enc.String()
		if n.hasAux {
			w.AuxEncoding = n.auxEnc.String()
		}
		w.Ranges = n.Ranges()
	}
	return w
}

func childrenToWire(kids []Node) []*Wire {
	if len(kids) == 0 {
		return nil
	}
	out := make([]*Wire, len(kids))
	for i, k := range kids {
		out[i] = ToWire(k)
	}
	return out
}

// FromWire builds a node from its wire form.
func FromWire(w *Wire) (Node, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: missing node", ErrMalformed)
	}
	kind, ok := ParseKind(w.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformed, w.Kind)
	}
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q: %w", ErrMalformed, w.ID, err)
	}
	opts := []Option{
		WithID(id),
		WithPosition(geom.V2(w.Position[0], w.Position[1])),
		WithVisible(!w.Hidden),
		WithLocked(w.Locked),
		WithFolded(w.Folded),
	}

	switch kind {
	case KindDocument, KindGroup:
		kids := make([]Node, 0, len(w.Children))
		for _, cw := range w.Children {
			c, err := FromWire(cw)
			if err != nil {
				return nil, err
			}
			kids = append(kids, c)
		}
		if len(kids) == 0 {
			kids = nil
		}
		opts = append(opts, WithChildren(kids...))
		if kind == KindDocument {
			return NewDocument(w.Name, opts...), nil
		}
		return NewGroup(w.Name, opts...), nil

	case KindLayer, KindUnloaded:
		mode, opacity, err := blendFromWire(w)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBlend(mode, opacity))
		if kind == KindLayer {
			c, err := CanvasFromWire(w.Canvas)
			if err != nil {
				return nil, err
			}
			return NewLayer(w.Name, c, opts...), nil
		}
		return unloadedFromWire(w, opts)

	case KindNote:
		return NewNote(w.Name, w.Content, opts...), nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformed, w.Kind)
}

func blendFromWire(w *Wire) (pixel.BlendMode, uint8, error) {
	mode := pixel.Normal
	if w.Blend != "" {
		m, err := pixel.ParseBlendMode(w.Blend)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		mode = m
	}
	if w.Opacity == nil {
		return mode, 255, nil
	}
	if *w.Opacity < 0 || *w.Opacity > 255 {
		return 0, 0, fmt.Errorf("%w: opacity %d", ErrMalformed, *w.Opacity)
	}
	return mode, uint8(*w.Opacity), nil
}

func opacityToWire(o uint8) *int {
	v := int(o)
	return &v
}

func unloadedFromWire(w *Wire, opts []Option) (Node, error) {
	if w.Size == nil {
		return nil, fmt.Errorf("%w: unloaded node without size", ErrMalformed)
	}
	size := geom.Ext(w.Size[0], w.Size[1])
	if err := canvas.CheckSize(size); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	enc, err := parseEncoding(w.Encoding)
	if err != nil {
		return nil, err
	}
	var aux *pixel.Encoding
	if w.AuxEncoding != "" {
		a, err := parseEncoding(w.AuxEncoding)
		if err != nil {
			return nil, err
		}
		aux = &a
	}
	for _, r := range w.Ranges {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	return NewUnloaded(w.Name, size, enc, aux, w.Ranges, opts...), nil
}

func parseEncoding(name string) (pixel.Encoding, error) {
	enc, ok := pixel.ParseEncoding(name)
	if !ok {
		return 0, fmt.Errorf("%w: unknown encoding %q", ErrMalformed, name)
	}
	return enc, nil
}

// CanvasToWire converts a canvas to wire form.
func CanvasToWire(c *canvas.Canvas) *CanvasWire {
	w := &CanvasWire{
		Size:     [2]int{c.Size().W, c.Size().H},
		Encoding: c.Encoding().String(),
		Data:     base64.StdEncoding.EncodeToString(c.Primary().Bytes()),
	}
	if aux := c.Aux(); aux != nil {
		w.AuxEncoding = aux.Encoding().String()
		w.AuxData = base64.StdEncoding.EncodeToString(aux.Bytes())
	}
	return w
}

// CanvasFromWire builds a canvas from its wire form.
func CanvasFromWire(w *CanvasWire) (*canvas.Canvas, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: missing canvas", ErrMalformed)
	}
	size := geom.Ext(w.Size[0], w.Size[1])
	if err := canvas.CheckSize(size); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	primary, err := bufferFromWire(w.Encoding, size, w.Data)
	if err != nil {
		return nil, err
	}
	var aux *pixel.Buffer
	if w.AuxEncoding != "" {
		if aux, err = bufferFromWire(w.AuxEncoding, size, w.AuxData); err != nil {
			return nil, err
		}
	}
	return canvas.FromBuffers(primary, aux)
}

func bufferFromWire(encName string, size geom.Extent, data string) (*pixel.Buffer, error) {
	enc, err := parseEncoding(encName)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: pixel data: %w", ErrMalformed, err)
	}
	return pixel.FromBytes(enc, size.W, size.H, raw)
}
