package patch

import (
	"fmt"
	"slices"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/source"
)

// Engine applies patches to a tree. The zero value is not usable; create
// engines with NewEngine. An Engine holds no per-tree state and may be
// shared.
type Engine struct {
	maxDim int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxDimension limits the width and height a Crop or Resize may
// produce. Values above canvas.MaxDimension are capped.
func WithMaxDimension(n int) EngineOption {
	return func(e *Engine) {
		e.maxDim = min(n, canvas.MaxDimension)
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{maxDim: canvas.MaxDimension}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDimension returns the configured size limit.
func (e *Engine) MaxDimension() int {
	return e.maxDim
}

var defaultEngine = NewEngine()

// Apply applies p to t with the default engine. See Engine.Apply.
func Apply(t *node.Tree, p Patch) (Patch, error) {
	return defaultEngine.Apply(t, p)
}

// ApplyAll applies ps to t with the default engine. See Engine.ApplyAll.
func ApplyAll(t *node.Tree, ps []Patch) ([]Patch, error) {
	return defaultEngine.ApplyAll(t, ps)
}

// Apply mutates t according to p and returns the inverse patch.
//
// The target is resolved first (node.ErrTargetNotFound). Then checks run
// in the order existence, bounds, type, so a patch that is wrong in
// several ways reports the earliest failure. When Apply returns an error
// the tree is unchanged.
func (e *Engine) Apply(t *node.Tree, p Patch) (Patch, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil patch", ErrInvalidPatch)
	}
	target, ok := t.Lookup(p.Target())
	if !ok {
		return nil, fmt.Errorf("%v: %w: %v", p.Kind(), node.ErrTargetNotFound, p.Target())
	}
	if u, ok := target.(*node.Unloaded); ok && !allowsUnloaded(p.Kind()) {
		return nil, fmt.Errorf("%v: %w: %q is not loaded", p.Kind(), source.ErrSourceUnavailable, u.Name())
	}

	switch p := p.(type) {
	case AddChild:
		return e.addChild(t, p)
	case MoveChild:
		old, err := t.Move(p.ID, p.ChildID, p.Position)
		if err != nil {
			return nil, fmt.Errorf("MoveChild: %w", err)
		}
		return MoveChild{ID: p.ID, ChildID: p.ChildID, Position: old}, nil
	case RemoveChild:
		removed, old, err := t.Remove(p.ID, p.ChildID)
		if err != nil {
			return nil, fmt.Errorf("RemoveChild: %w", err)
		}
		return AddChild{ID: p.ID, Child: removed, Position: old}, nil
	case Rename:
		old := target.Name()
		target.SetName(p.Name)
		return Rename{ID: p.ID, Name: old}, nil
	case Translate:
		old := target.Position()
		target.SetPosition(p.Position)
		return Translate{ID: p.ID, Position: old}, nil
	case SetVisibility:
		f, err := flagged(target, p.Kind())
		if err != nil {
			return nil, err
		}
		old := f.Visible()
		f.SetVisible(p.Visible)
		return SetVisibility{ID: p.ID, Visible: old}, nil
	case SetLock:
		f, err := flagged(target, p.Kind())
		if err != nil {
			return nil, err
		}
		old := f.Locked()
		f.SetLocked(p.Locked)
		return SetLock{ID: p.ID, Locked: old}, nil
	case SetFold:
		g, ok := target.(*node.Group)
		if !ok {
			return nil, invalidTarget(p.Kind(), target)
		}
		old := g.Folded()
		g.SetFolded(p.Folded)
		return SetFold{ID: p.ID, Folded: old}, nil
	case SetNoteContent:
		n, ok := target.(*node.Note)
		if !ok {
			return nil, invalidTarget(p.Kind(), target)
		}
		old := n.Content()
		n.SetContent(p.Content)
		return SetNoteContent{ID: p.ID, Content: old}, nil
	case SetBlend:
		if !p.Mode.IsValid() {
			return nil, fmt.Errorf("SetBlend: %w: blend mode %d", ErrInvalidPatch, p.Mode)
		}
		l, ok := target.(*node.Layer)
		if !ok {
			return nil, invalidTarget(p.Kind(), target)
		}
		mode, opacity := l.Blend()
		l.SetBlend(p.Mode, p.Opacity)
		return SetBlend{ID: p.ID, Mode: mode, Opacity: opacity}, nil
	case Crop:
		if err := canvas.CheckSizeLimit(p.Size, e.maxDim); err != nil {
			return nil, fmt.Errorf("Crop: %w", err)
		}
		return e.transform(target, p.Kind(), func(c *canvas.Canvas) error {
			return c.Crop(p.Offset, p.Size)
		})
	case Resize:
		if err := canvas.CheckSizeLimit(p.Size, e.maxDim); err != nil {
			return nil, fmt.Errorf("Resize: %w", err)
		}
		return e.transform(target, p.Kind(), func(c *canvas.Canvas) error {
			return c.Resize(p.Size, p.Sampling)
		})
	case ApplyStencil:
		return e.applyStencil(target, p)
	case RestoreCanvas:
		if p.Canvas == nil {
			return nil, fmt.Errorf("RestoreCanvas: %w: nil canvas", ErrInvalidPatch)
		}
		l, ok := target.(*node.Layer)
		if !ok {
			return nil, invalidTarget(p.Kind(), target)
		}
		inv := RestoreCanvas{ID: p.ID, Name: l.Name(), Position: l.Position(), Canvas: l.Canvas()}
		l.SetName(p.Name)
		l.SetPosition(p.Position)
		l.SetCanvas(p.Canvas.Snapshot())
		return inv, nil
	case RestoreGroup:
		return e.restoreGroup(t, target, p)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownKind, p)
}

// allowsUnloaded reports whether kind may target an Unloaded placeholder.
func allowsUnloaded(k Kind) bool {
	return k == KindRename || k == KindTranslate
}

func invalidTarget(k Kind, n node.Node) error {
	return fmt.Errorf("%v: %w: %v %q", k, node.ErrInvalidTarget, n.Kind(), n.Name())
}

func flagged(n node.Node, k Kind) (node.Flagged, error) {
	f, ok := n.(node.Flagged)
	if !ok {
		return nil, invalidTarget(k, n)
	}
	return f, nil
}

func (e *Engine) addChild(t *node.Tree, p AddChild) (Patch, error) {
	if p.Child == nil {
		return nil, fmt.Errorf("AddChild: %w: nil child", ErrInvalidPatch)
	}
	child := p.Child.Clone()
	if err := t.Insert(p.ID, child, p.Position); err != nil {
		return nil, fmt.Errorf("AddChild: %w", err)
	}
	return RemoveChild{ID: p.ID, ChildID: child.ID()}, nil
}

// layersOf returns the layers a canvas transform touches: the target
// itself when it is a layer, or every layer below a group or document.
// Locked nodes fail with ErrLocked and placeholders with
// source.ErrSourceUnavailable, before anything is modified.
func layersOf(target node.Node, k Kind) ([]*node.Layer, error) {
	switch target.(type) {
	case *node.Layer, *node.Group, *node.Document:
	default:
		return nil, invalidTarget(k, target)
	}
	var layers []*node.Layer
	for n := range node.Subtree(target) {
		if f, ok := n.(node.Flagged); ok && f.Locked() {
			return nil, fmt.Errorf("%v: %w: %q", k, ErrLocked, n.Name())
		}
		switch n := n.(type) {
		case *node.Layer:
			layers = append(layers, n)
		case *node.Unloaded:
			return nil, fmt.Errorf("%v: %w: %q is not loaded", k, source.ErrSourceUnavailable, n.Name())
		}
	}
	return layers, nil
}

// transform runs fn on copies of the affected canvases and installs them
// only when every copy succeeded.
func (e *Engine) transform(target node.Node, k Kind, fn func(*canvas.Canvas) error) (Patch, error) {
	layers, err := layersOf(target, k)
	if err != nil {
		return nil, err
	}
	next := make([]*canvas.Canvas, len(layers))
	for i, l := range layers {
		c := l.Canvas().Snapshot()
		if err := fn(c); err != nil {
			return nil, fmt.Errorf("%v: %q: %w", k, l.Name(), err)
		}
		next[i] = c
	}
	restores := make([]Patch, len(layers))
	for i, l := range layers {
		restores[i] = RestoreCanvas{ID: l.ID(), Name: l.Name(), Position: l.Position(), Canvas: l.Canvas()}
		l.SetCanvas(next[i])
	}
	if _, ok := target.(*node.Layer); ok {
		return restores[0], nil
	}
	return RestoreGroup{ID: target.ID(), Name: target.Name(), Position: target.Position(), Children: restores}, nil
}

func (e *Engine) applyStencil(target node.Node, p ApplyStencil) (Patch, error) {
	if p.Stencil == nil {
		return nil, fmt.Errorf("ApplyStencil: %w: nil stencil", ErrInvalidPatch)
	}
	l, ok := target.(*node.Layer)
	if !ok {
		return nil, invalidTarget(p.Kind(), target)
	}
	if !l.Canvas().Accepts(p.Stencil.Encoding()) {
		return nil, fmt.Errorf("ApplyStencil: %w: %v stencil on %q", canvas.ErrEncodingMismatch, p.Stencil.Encoding(), l.Name())
	}
	if l.Locked() {
		return nil, fmt.Errorf("ApplyStencil: %w: %q", ErrLocked, l.Name())
	}
	c := l.Canvas().Snapshot()
	if err := c.ApplyStencil(p.Stencil, p.Offset, p.Mode); err != nil {
		return nil, fmt.Errorf("ApplyStencil: %w", err)
	}
	inv := RestoreCanvas{ID: l.ID(), Name: l.Name(), Position: l.Position(), Canvas: l.Canvas()}
	l.SetCanvas(c)
	return inv, nil
}

func (e *Engine) restoreGroup(t *node.Tree, target node.Node, p RestoreGroup) (Patch, error) {
	if _, ok := target.(node.Parent); !ok {
		return nil, invalidTarget(p.Kind(), target)
	}
	inverses, err := e.ApplyAll(t, p.Children)
	if err != nil {
		return nil, fmt.Errorf("RestoreGroup: %w", err)
	}
	slices.Reverse(inverses)
	inv := RestoreGroup{ID: p.ID, Name: target.Name(), Position: target.Position(), Children: inverses}
	target.SetName(p.Name)
	target.SetPosition(p.Position)
	return inv, nil
}
