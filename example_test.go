package pxdoc_test

import (
	"fmt"

	"github.com/gogpu/pxdoc"
	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/patch"
	"github.com/gogpu/pxdoc/pixel"
)

func Example() {
	doc := node.NewDocument("Sketch")
	ed, err := pxdoc.New(doc)
	if err != nil {
		panic(err)
	}

	c, _ := canvas.New(pixel.RGBA8, geom.Ext(4, 4))
	layer := node.NewLayer("Ink", c)
	if err := ed.Apply(patch.AddChild{ID: doc.ID(), Child: layer}); err != nil {
		panic(err)
	}

	st, _ := canvas.NewStencil(pixel.RGBA8, geom.Ext(1, 1))
	_ = st.SetPixel(0, 0, pixel.RGBA(255, 0, 0, 255))
	if err := ed.Apply(patch.ApplyStencil{ID: layer.ID(), Stencil: st, Offset: geom.V2(2, 2), Mode: canvas.ModeInherit}); err != nil {
		panic(err)
	}

	ed.View(func(t *node.Tree) {
		n, _ := t.Find(layer.ID())
		p, _ := n.(*node.Layer).Canvas().Primary().At(2, 2)
		fmt.Println(p.Describe(pixel.RGBA8))
	})

	_ = ed.Undo()
	fmt.Println(ed.CanRedo(), len(ed.History()))
	// Output:
	// rgba(255,0,0,255)
	// true 2
}
