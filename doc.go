// Package pxdoc is an editing engine for layered raster documents.
//
// # Overview
//
// A document is a tree of nodes (package node): groups containing layers,
// notes and Unloaded placeholders whose pixel data has not been fetched
// yet. Layers hold canvases (package canvas) of RGBA8, Index8 or UV16
// pixels (package pixel). Every change to a document is a patch (package
// patch): a small serializable value that, once applied, yields its own
// inverse.
//
// The Editor ties these together. It owns one tree, applies patches one
// at a time, records them in a linear undo history and fetches placeholder
// data on demand from a byte-range source (package source).
//
// Package store keeps documents and their patch logs in SQLite, and
// package export flattens a document to an image.
//
// # Quick Start
//
//	doc := node.NewDocument("Sketch")
//	ed, err := pxdoc.New(doc)
//	if err != nil {
//	    return err
//	}
//
//	c, err := canvas.New(pixel.RGBA8, geom.Ext(64, 64))
//	layer := node.NewLayer("Ink", c)
//	err = ed.Apply(patch.AddChild{ID: doc.ID(), Child: layer})
//	...
//	err = ed.Undo()
//
// # Concurrency
//
// An Editor is safe for concurrent use. Mutations take an exclusive lock;
// View and Snapshot take a shared one. Load performs its I/O without any
// lock and installs the result under the exclusive lock.
//
// # Logging
//
// Nothing is logged by default. SetLogger installs a log/slog logger for
// this package and its sub-packages.
package pxdoc
