package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gogpu/pxdoc"
	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/patch"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/source"
)

func openMemory(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleDoc returns Doc[G[ink(RGBA8+UV16)], note, paper(Index8)].
func sampleDoc(t *testing.T) *node.Document {
	t.Helper()
	ink, err := canvas.New(pixel.RGBA8, geom.Ext(3, 2), canvas.WithAux(pixel.UV16))
	if err != nil {
		t.Fatal(err)
	}
	ink.Primary().Fill(pixel.RGBA(10, 20, 30, 40))
	ink.Aux().Fill(pixel.UV(1000, 2000))
	paper, err := canvas.New(pixel.Index8, geom.Ext(2, 2))
	if err != nil {
		t.Fatal(err)
	}
	paper.Primary().Fill(pixel.Index(7))

	return node.NewDocument("drawing", node.WithChildren(
		node.NewGroup("g", node.WithFolded(true), node.WithChildren(
			node.NewLayer("ink", ink, node.WithBlend(pixel.Multiply, 200), node.WithPosition(geom.V2(4, 5))),
		)),
		node.NewNote("note", "remember"),
		node.NewLayer("paper", paper, node.WithLocked(true)),
	))
}

// materialize loads every placeholder of doc from src through an editor.
func materialize(t *testing.T, doc *node.Document, src source.Source) *node.Tree {
	t.Helper()
	ed, err := pxdoc.New(doc, pxdoc.WithSource(src))
	if err != nil {
		t.Fatal(err)
	}
	if err := ed.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	return ed.Snapshot()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "docs.db"), WithMkdirAll())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	doc := sampleDoc(t)
	want, err := node.NewTree(doc.Clone().(*node.Document))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, doc, nil); err != nil {
		t.Fatal(err)
	}

	loaded, src, err := s.Load(ctx, doc.ID())
	if err != nil {
		t.Fatal(err)
	}
	unloaded := 0
	for n := range node.Subtree(loaded) {
		if n.Kind() == node.KindUnloaded {
			unloaded++
		}
	}
	if unloaded != 2 {
		t.Errorf("loaded document has %d placeholders, want 2", unloaded)
	}
	if got := materialize(t, loaded, src); !got.Equal(want) {
		t.Error("materialized document differs from the saved one")
	}
}

func TestSaveRangesCoverData(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	doc := sampleDoc(t)
	if err := s.Save(ctx, doc, nil); err != nil {
		t.Fatal(err)
	}
	loaded, _, err := s.Load(ctx, doc.ID())
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][]int64{
		"ink":   {3 * 2 * 4, 3 * 2 * 4}, // RGBA8 primary, UV16 aux
		"paper": {2 * 2},                // Index8
	}
	var next int64
	for n := range node.Subtree(loaded) {
		u, ok := n.(*node.Unloaded)
		if !ok {
			continue
		}
		ranges := u.Ranges()
		var total int64
		for i, r := range ranges {
			if r.Offset != next {
				t.Errorf("%s range %d starts at %d, want %d", u.Name(), i, r.Offset, next)
			}
			if i < len(want[u.Name()]) && r.Length != want[u.Name()][i] {
				t.Errorf("%s range %d has length %d, want %d", u.Name(), i, r.Length, want[u.Name()][i])
			}
			next = r.Offset + r.Length
			total += r.Length
		}
		if len(ranges) != len(want[u.Name()]) {
			t.Errorf("%s has %d ranges, want %d", u.Name(), len(ranges), len(want[u.Name()]))
		}
		if total != int64(u.DataLength()) {
			t.Errorf("%s ranges cover %d bytes, DataLength() = %d", u.Name(), total, u.DataLength())
		}
	}
	if next != 52 {
		t.Errorf("ranges end at %d, want 52", next)
	}
}

func TestSaveUnloaded(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	doc := sampleDoc(t)
	want, _ := node.NewTree(doc.Clone().(*node.Document))
	if err := s.Save(ctx, doc, nil); err != nil {
		t.Fatal(err)
	}
	loaded, src, err := s.Load(ctx, doc.ID())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, loaded, nil); !errors.Is(err, source.ErrSourceUnavailable) {
		t.Fatalf("Save(placeholders, nil) = %v, want ErrSourceUnavailable", err)
	}
	if err := s.Save(ctx, loaded, src); err != nil {
		t.Fatal(err)
	}
	again, src2, err := s.Load(ctx, doc.ID())
	if err != nil {
		t.Fatal(err)
	}
	if got := materialize(t, again, src2); !got.Equal(want) {
		t.Error("re-saved document differs")
	}
}

func TestPatchLog(t *testing.T) {
	for _, codec := range []string{"json", "yaml"} {
		t.Run(codec, func(t *testing.T) {
			ctx := context.Background()
			s := openMemory(t, WithCodec(codec))
			doc := sampleDoc(t)
			if err := s.Save(ctx, doc, nil); err != nil {
				t.Fatal(err)
			}

			ps := []patch.Patch{
				patch.Rename{ID: doc.ID(), Name: "renamed"},
				patch.SetNoteContent{ID: doc.Child(1).ID(), Content: "updated"},
				patch.Translate{ID: doc.Child(0).ID(), Position: geom.V2(-1, 2)},
			}
			seq, err := s.AppendPatch(ctx, doc.ID(), ps[:2]...)
			if err != nil || seq != 2 {
				t.Fatalf("AppendPatch = %d, %v", seq, err)
			}
			if seq, err = s.AppendPatch(ctx, doc.ID(), ps[2]); err != nil || seq != 3 {
				t.Fatalf("AppendPatch = %d, %v", seq, err)
			}

			recs, err := s.Patches(ctx, doc.ID(), 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 3 {
				t.Fatalf("got %d records, want 3", len(recs))
			}
			for i, r := range recs {
				if r.Seq != int64(i+1) || !patch.Equal(r.Patch, ps[i]) {
					t.Errorf("record %d = seq %d %v", i, r.Seq, r.Patch.Kind())
				}
			}
			if recs, _ := s.Patches(ctx, doc.ID(), 2); len(recs) != 1 || recs[0].Seq != 3 {
				t.Errorf("Patches(after 2) = %+v", recs)
			}

			infos, err := s.Documents(ctx)
			if err != nil || len(infos) != 1 || infos[0].Patches != 3 || infos[0].Name != "drawing" {
				t.Fatalf("Documents() = %+v, %v", infos, err)
			}
			if infos[0].DataBytes != 3*2*4+3*2*4+2*2 {
				t.Errorf("DataBytes = %d", infos[0].DataBytes)
			}

			if n, err := s.TruncatePatches(ctx, doc.ID(), 2); err != nil || n != 1 {
				t.Errorf("TruncatePatches() = %d, %v", n, err)
			}
			if seq, err := s.AppendPatch(ctx, doc.ID(), ps[2]); err != nil || seq != 3 {
				t.Errorf("AppendPatch after truncate = %d, %v", seq, err)
			}

			if err := s.Save(ctx, doc, nil); err != nil {
				t.Fatal(err)
			}
			if recs, _ := s.Patches(ctx, doc.ID(), 0); len(recs) != 0 {
				t.Errorf("Save kept %d log entries", len(recs))
			}
		})
	}
}

func TestMissingDocument(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	id := node.NewID()

	if _, _, err := s.Load(ctx, id); !errors.Is(err, ErrDocumentNotFound) || !errors.Is(err, node.ErrNotFound) {
		t.Errorf("Load() = %v", err)
	}
	if _, err := s.AppendPatch(ctx, id, patch.Rename{ID: id}); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("AppendPatch() = %v", err)
	}
	if _, err := s.Patches(ctx, id, 0); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Patches() = %v", err)
	}
	if _, err := s.TruncatePatches(ctx, id, 0); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("TruncatePatches() = %v", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Delete() = %v", err)
	}
	if _, err := s.Source(id).ReadRanges(ctx, []source.Range{{Offset: 0, Length: 1}}); !errors.Is(err, source.ErrSourceUnavailable) {
		t.Errorf("ReadRanges() = %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	doc := sampleDoc(t)
	if err := s.Save(ctx, doc, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendPatch(ctx, doc.ID(), patch.Rename{ID: doc.ID(), Name: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, doc.ID()); err != nil {
		t.Fatal(err)
	}
	if infos, _ := s.Documents(ctx); len(infos) != 0 {
		t.Errorf("Documents() after delete = %+v", infos)
	}
	var left int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM patches`).Scan(&left); err != nil || left != 0 {
		t.Errorf("patch log after delete: %d rows, %v", left, err)
	}
}

func TestBlobSourceBounds(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t, WithCacheBytes(0))
	doc := sampleDoc(t)
	if err := s.Save(ctx, doc, nil); err != nil {
		t.Fatal(err)
	}
	src := s.Source(doc.ID())

	got, err := src.ReadRanges(ctx, []source.Range{{Offset: 0, Length: 4}, {Offset: 24, Length: 0}, {Offset: 24, Length: 4}})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 20, 30, 40, 0xe8, 0x03, 0xd0, 0x07}
	if string(got) != string(want) {
		t.Errorf("ReadRanges() = %v, want %v", got, want)
	}

	tests := []source.Range{
		{Offset: 50, Length: 4},
		{Offset: 0, Length: 100},
		{Offset: -1, Length: 1},
	}
	for _, r := range tests {
		if _, err := src.ReadRanges(ctx, []source.Range{r}); !errors.Is(err, source.ErrSourceUnavailable) {
			t.Errorf("ReadRanges(%v) = %v, want ErrSourceUnavailable", r, err)
		}
	}
}

func TestOpenUnknownCodec(t *testing.T) {
	if _, err := Open(":memory:", WithCodec("cbor")); !errors.Is(err, patch.ErrUnknownCodec) {
		t.Errorf("Open() = %v, want ErrUnknownCodec", err)
	}
}
