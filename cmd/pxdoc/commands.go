package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc"
	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/config"
	"github.com/gogpu/pxdoc/export"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/patch"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/store"
)

var errUsage = errors.New("usage")

type app struct {
	cfg *config.Config
	st  *store.Store
	out io.Writer
}

func cmdCodecs(w io.Writer) error {
	for _, name := range patch.Codecs() {
		fmt.Fprintln(w, name)
	}
	return nil
}

func (a *app) cmdNew(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	w := fs.Int("width", 64, "canvas width")
	h := fs.Int("height", 64, "canvas height")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: new needs a name", errUsage)
	}

	c, err := canvas.New(pixel.RGBA8, geom.Ext(*w, *h))
	if err != nil {
		return err
	}
	c.Primary().Fill(pixel.RGBA(255, 255, 255, 255))
	doc := node.NewDocument(fs.Arg(0), node.WithChildren(node.NewLayer("Background", c)))
	if err := a.st.Save(ctx, doc, nil); err != nil {
		return err
	}
	fmt.Fprintln(a.out, doc.ID())
	return nil
}

func (a *app) cmdList(ctx context.Context) error {
	infos, err := a.st.Documents(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(a.out, "%s  %-20s  %8d bytes  %3d patches  %s\n",
			info.ID, info.Name, info.DataBytes, info.Patches, info.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	id, err := docID(args, 1)
	if err != nil {
		return err
	}
	ed, _, err := a.open(ctx, id)
	if err != nil {
		return err
	}
	ed.View(func(t *node.Tree) {
		printTree(a.out, t.Root(), 0)
	})
	return nil
}

func (a *app) cmdApply(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: apply needs a document id and patch files", errUsage)
	}
	id, err := docID(args[:1], 1)
	if err != nil {
		return err
	}
	ps := make([]patch.Patch, 0, len(args)-1)
	for _, path := range args[1:] {
		p, err := readPatch(path)
		if err != nil {
			return err
		}
		ps = append(ps, p)
	}

	ed, _, err := a.open(ctx, id)
	if err != nil {
		return err
	}
	if err := ed.ApplyAll(ps); err != nil {
		return err
	}
	seq, err := a.st.AppendPatch(ctx, id, ps...)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "applied %d patches, log at %d\n", len(ps), seq)
	return nil
}

func (a *app) cmdUndo(ctx context.Context, args []string) error {
	id, err := docID(args, 1)
	if err != nil {
		return err
	}
	ed, recs, err := a.open(ctx, id)
	if err != nil {
		return err
	}
	if err := ed.Undo(); err != nil {
		return err
	}
	hist := ed.History()
	last := recs[len(recs)-1]
	if _, err := a.st.TruncatePatches(ctx, id, last.Seq-1); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "undid %s (patch %d)\n", hist[len(hist)-1].Label, last.Seq)
	return nil
}

func (a *app) cmdLog(ctx context.Context, args []string) error {
	id, err := docID(args, 1)
	if err != nil {
		return err
	}
	recs, err := a.st.Patches(ctx, id, 0)
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Fprintf(a.out, "%4d  %s  %-14v %s\n", r.Seq, r.Time.Format("2006-01-02 15:04:05"), r.Patch.Kind(), r.Patch.Target())
	}
	return nil
}

func (a *app) cmdCompact(ctx context.Context, args []string) error {
	id, err := docID(args, 1)
	if err != nil {
		return err
	}
	ed, _, err := a.open(ctx, id)
	if err != nil {
		return err
	}
	return a.st.Save(ctx, ed.Snapshot().Root(), nil)
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	thumb := fs.Bool("thumb", false, "scale to the configured thumbnail size")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: export needs a document id and an output file", errUsage)
	}
	id, err := docID(fs.Args()[:1], 1)
	if err != nil {
		return err
	}
	ed, _, err := a.open(ctx, id)
	if err != nil {
		return err
	}

	img, err := export.Flatten(ed.Snapshot().Root())
	if err != nil {
		return err
	}
	if *thumb {
		s, err := export.ParseScaler(a.cfg.Export.Scaler)
		if err != nil {
			return err
		}
		if img, err = export.Thumbnail(img, a.cfg.Export.Thumbnail, s); err != nil {
			return err
		}
	}

	f, err := os.Create(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := export.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// open loads document id with its pixel data and replays its patch log,
// one history entry per logged patch.
func (a *app) open(ctx context.Context, id uuid.UUID) (*pxdoc.Editor, []store.Record, error) {
	doc, src, err := a.st.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	opts := append(a.cfg.EditorOptions(), pxdoc.WithSource(src), pxdoc.WithHistoryLimit(-1))
	ed, err := pxdoc.New(doc, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := ed.LoadAll(ctx); err != nil {
		return nil, nil, err
	}
	recs, err := a.st.Patches(ctx, id, 0)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range recs {
		if err := ed.Apply(r.Patch); err != nil {
			return nil, nil, fmt.Errorf("replay patch %d: %w", r.Seq, err)
		}
	}
	return ed, recs, nil
}

func docID(args []string, n int) (uuid.UUID, error) {
	if len(args) != n {
		return uuid.Nil, fmt.Errorf("%w: expected a document id", errUsage)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("document id %q: %w", args[0], err)
	}
	return id, nil
}

// readPatch decodes a patch file with the codec named by its extension.
func readPatch(path string) (patch.Patch, error) {
	name := strings.TrimPrefix(filepath.Ext(path), ".")
	if name == "yml" {
		name = "yaml"
	}
	codec, err := patch.LookupCodec(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func printTree(w io.Writer, n node.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%v %q %s @%v%s\n", indent, n.Kind(), n.Name(), n.ID(), n.Position(), details(n))
	if p, ok := n.(node.Parent); ok {
		for _, c := range p.Children() {
			printTree(w, c, depth+1)
		}
	}
}

func details(n node.Node) string {
	var parts []string
	if f, ok := n.(interface {
		Visible() bool
		Locked() bool
	}); ok {
		if !f.Visible() {
			parts = append(parts, "hidden")
		}
		if f.Locked() {
			parts = append(parts, "locked")
		}
	}
	switch n := n.(type) {
	case *node.Group:
		if n.Folded() {
			parts = append(parts, "folded")
		}
	case *node.Layer:
		mode, opacity := n.Blend()
		parts = append(parts, n.Canvas().String(), fmt.Sprintf("%v/%d", mode, opacity))
	case *node.Unloaded:
		parts = append(parts, fmt.Sprintf("unloaded %v %v", n.Size(), n.Encoding()))
	case *node.Note:
		parts = append(parts, fmt.Sprintf("%q", n.Content()))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
