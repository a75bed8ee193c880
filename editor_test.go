package pxdoc

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/patch"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/source"
)

func newEditor(t *testing.T, doc *node.Document, opts ...Option) *Editor {
	t.Helper()
	ed, err := New(doc, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ed
}

func newLayer(t *testing.T, name string) *node.Layer {
	t.Helper()
	c, err := canvas.New(pixel.RGBA8, geom.Ext(2, 2))
	if err != nil {
		t.Fatal(err)
	}
	return node.NewLayer(name, c)
}

func nameOf(t *testing.T, ed *Editor, n node.Node) string {
	t.Helper()
	var name string
	ed.View(func(tree *node.Tree) {
		got, err := tree.Find(n.ID())
		if err != nil {
			t.Fatal(err)
		}
		name = got.Name()
	})
	return name
}

func TestNewInvalidDocument(t *testing.T) {
	l := newLayer(t, "l")
	doc := node.NewDocument("d", node.WithChildren(l, l.Clone()))
	if _, err := New(doc); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("New() error = %v, want ErrDuplicateID", err)
	}
}

func TestUndoRedo(t *testing.T) {
	l := newLayer(t, "ink")
	ed := newEditor(t, node.NewDocument("d", node.WithChildren(l)))
	initial := ed.Snapshot()

	if ed.CanUndo() || ed.CanRedo() {
		t.Fatal("fresh editor reports history")
	}
	if err := ed.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() on empty history = %v", err)
	}

	if err := ed.Apply(patch.Rename{ID: l.ID(), Name: "lines"}); err != nil {
		t.Fatal(err)
	}
	if err := ed.Apply(patch.Translate{ID: l.ID(), Position: geom.V2(3, 4)}); err != nil {
		t.Fatal(err)
	}
	edited := ed.Snapshot()

	for range 2 {
		if err := ed.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	if !ed.Snapshot().Equal(initial) {
		t.Error("undo did not restore the initial document")
	}
	if !ed.CanRedo() || ed.CanUndo() {
		t.Errorf("CanUndo=%v CanRedo=%v after undoing everything", ed.CanUndo(), ed.CanRedo())
	}

	for range 2 {
		if err := ed.Redo(); err != nil {
			t.Fatal(err)
		}
	}
	if !ed.Snapshot().Equal(edited) {
		t.Error("redo did not restore the edited document")
	}
	if err := ed.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() at end = %v", err)
	}
}

func TestHistoryBranchDiscard(t *testing.T) {
	l := newLayer(t, "a")
	ed := newEditor(t, node.NewDocument("d", node.WithChildren(l)))

	for _, name := range []string{"b", "c"} {
		if err := ed.Apply(patch.Rename{ID: l.ID(), Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	if err := ed.Undo(); err != nil {
		t.Fatal(err)
	}
	h := ed.History()
	if len(h) != 2 || h[0].Undone || !h[1].Undone {
		t.Fatalf("history after undo = %+v", h)
	}

	if err := ed.Apply(patch.SetVisibility{ID: l.ID(), Visible: false}); err != nil {
		t.Fatal(err)
	}
	h = ed.History()
	if len(h) != 2 {
		t.Fatalf("len(History()) = %d, want 2", len(h))
	}
	if h[1].Label != "SetVisibility" {
		t.Errorf("newest entry = %q, want SetVisibility", h[1].Label)
	}
	if ed.CanRedo() {
		t.Error("redo still possible after branching")
	}
	if got := nameOf(t, ed, l); got != "b" {
		t.Errorf("name = %q, want b", got)
	}
}

func TestHistoryLimit(t *testing.T) {
	l := newLayer(t, "0")
	ed := newEditor(t, node.NewDocument("d", node.WithChildren(l)), WithHistoryLimit(2))
	for _, name := range []string{"1", "2", "3"} {
		if err := ed.Apply(patch.Rename{ID: l.ID(), Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(ed.History()); n != 2 {
		t.Fatalf("len(History()) = %d, want 2", n)
	}
	for range 2 {
		if err := ed.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	if err := ed.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() past limit = %v", err)
	}
	if got := nameOf(t, ed, l); got != "1" {
		t.Errorf("name = %q, want 1", got)
	}
}

func TestApplyAllBatch(t *testing.T) {
	a, b := newLayer(t, "a"), newLayer(t, "b")
	doc := node.NewDocument("d", node.WithChildren(a, b))
	ed := newEditor(t, doc)
	before := ed.Snapshot()

	err := ed.ApplyAll([]patch.Patch{
		patch.Rename{ID: a.ID(), Name: "x"},
		patch.MoveChild{ID: doc.ID(), ChildID: a.ID(), Position: 9},
	})
	var be *patch.BatchError
	if !errors.As(err, &be) || be.Index != 1 || !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("ApplyAll() error = %v", err)
	}
	if ed.Version() != 0 || ed.CanUndo() {
		t.Error("failed batch was recorded")
	}
	if !ed.Snapshot().Equal(before) {
		t.Error("failed batch modified the document")
	}

	if err := ed.ApplyAll([]patch.Patch{
		patch.Rename{ID: a.ID(), Name: "x"},
		patch.MoveChild{ID: doc.ID(), ChildID: a.ID(), Position: 1},
		patch.Crop{ID: b.ID(), Offset: geom.V2(1, 1), Size: geom.Ext(1, 1)},
	}); err != nil {
		t.Fatal(err)
	}
	if h := ed.History(); len(h) != 1 || h[0].Label != "Batch(3)" {
		t.Fatalf("history = %+v", h)
	}
	if err := ed.Undo(); err != nil {
		t.Fatal(err)
	}
	if !ed.Snapshot().Equal(before) {
		t.Error("undoing the batch did not restore the document")
	}
}

func TestVersionAndSnapshot(t *testing.T) {
	l := newLayer(t, "a")
	ed := newEditor(t, node.NewDocument("d", node.WithChildren(l)))
	snap := ed.Snapshot()

	if err := ed.Apply(patch.Rename{ID: l.ID(), Name: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := ed.Apply(patch.Rename{ID: node.NewID(), Name: "b"}); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("Apply() missing target = %v", err)
	}
	if err := ed.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := ed.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := ed.Version(); got != 3 {
		t.Errorf("Version() = %d, want 3", got)
	}
	n, _ := snap.Find(l.ID())
	if n.Name() != "a" {
		t.Errorf("snapshot changed with the document: %q", n.Name())
	}
}

// placeholder returns an RGBA8 2x1 Unloaded node and the bytes it points at.
func placeholder(name string, offset int64) (*node.Unloaded, []byte) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	u := node.NewUnloaded(name, geom.Ext(2, 1), pixel.RGBA8, nil, []source.Range{{Offset: offset, Length: 8}})
	return u, data
}

func TestLoad(t *testing.T) {
	u, data := placeholder("lazy", 0)
	g := node.NewGroup("g")
	ed := newEditor(t, node.NewDocument("d", node.WithChildren(u, g)), WithSource(source.MemorySource(data)))

	if err := ed.Apply(patch.SetVisibility{ID: u.ID(), Visible: false}); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("patch on placeholder = %v, want ErrSourceUnavailable", err)
	}
	if err := ed.Apply(patch.Rename{ID: u.ID(), Name: "renamed"}); err != nil {
		t.Fatalf("Rename on placeholder: %v", err)
	}

	v := ed.Version()
	if err := ed.Load(context.Background(), u.ID()); err != nil {
		t.Fatal(err)
	}
	if ed.Version() != v+1 {
		t.Error("Load did not bump the version")
	}
	if len(ed.History()) != 1 {
		t.Error("Load was recorded in history")
	}
	ed.View(func(tree *node.Tree) {
		n, _ := tree.Find(u.ID())
		l, ok := n.(*node.Layer)
		if !ok {
			t.Fatalf("node is %v after Load", n.Kind())
		}
		if l.Name() != "renamed" {
			t.Errorf("name = %q", l.Name())
		}
		p, _ := l.Canvas().Primary().At(1, 0)
		if p != pixel.RGBA(5, 6, 7, 8) {
			t.Errorf("pixel (1,0) = %v", p)
		}
	})

	if err := ed.Load(context.Background(), u.ID()); err != nil {
		t.Errorf("second Load = %v, want nil", err)
	}
	if err := ed.Apply(patch.SetVisibility{ID: u.ID(), Visible: false}); err != nil {
		t.Errorf("patch after Load: %v", err)
	}
	if err := ed.Load(context.Background(), g.ID()); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Load(group) = %v", err)
	}
	if err := ed.Load(context.Background(), node.NewID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) = %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no source", nil},
		{"short source", []Option{WithSource(source.MemorySource{1, 2, 3})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _ := placeholder("lazy", 0)
			ed := newEditor(t, node.NewDocument("d", node.WithChildren(u)), tt.opts...)
			if err := ed.Load(context.Background(), u.ID()); !errors.Is(err, ErrSourceUnavailable) {
				t.Errorf("Load() = %v, want ErrSourceUnavailable", err)
			}
			ed.View(func(tree *node.Tree) {
				if n, _ := tree.Find(u.ID()); n.Kind() != node.KindUnloaded {
					t.Error("failed Load replaced the placeholder")
				}
			})
		})
	}
}

func TestLoadAll(t *testing.T) {
	var data []byte
	var kids []node.Node
	for i := range 5 {
		u, d := placeholder("p", int64(i*8))
		data = append(data, d...)
		kids = append(kids, u)
	}
	ed := newEditor(t, node.NewDocument("d", node.WithChildren(node.NewGroup("g", node.WithChildren(kids...)))),
		WithSource(source.MemorySource(data)), WithLoadWorkers(2))

	if err := ed.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	ed.View(func(tree *node.Tree) {
		for n := range tree.All() {
			if n.Kind() == node.KindUnloaded {
				t.Errorf("%v still unloaded", n.ID())
			}
		}
	})
}

func TestLoadAllCanceled(t *testing.T) {
	u, data := placeholder("p", 0)
	ed := newEditor(t, node.NewDocument("d", node.WithChildren(u)), WithSource(source.MemorySource(data)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ed.LoadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadAll() = %v, want context.Canceled", err)
	}
}
