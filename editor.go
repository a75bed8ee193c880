package pxdoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc/internal/parallel"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/patch"
	"github.com/gogpu/pxdoc/source"
)

// Editor owns a document tree and serializes every change to it.
//
// Patches go through Apply or ApplyAll and are recorded for Undo and
// Redo. Readers use View for short inspections and Snapshot for a private
// deep copy. Unloaded placeholders are filled in by Load and LoadAll,
// which are not part of history.
type Editor struct {
	mu      sync.RWMutex
	tree    *node.Tree
	history *history
	version uint64

	engine *patch.Engine
	src    source.Source
	log    *slog.Logger
	pool   *parallel.Pool
}

// New creates an editor that takes ownership of doc.
// It fails with ErrDuplicateID or ErrInvalidChild when doc is not a valid
// tree.
func New(doc *node.Document, opts ...Option) (*Editor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	tree, err := node.NewTree(doc)
	if err != nil {
		return nil, fmt.Errorf("pxdoc: %w", err)
	}
	e := &Editor{
		tree:    tree,
		history: newHistory(o.historyLimit),
		engine:  patch.NewEngine(patch.WithMaxDimension(o.maxDimension)),
		src:     o.src,
		log:     o.logger,
		pool:    parallel.NewPool(o.loadWorkers),
	}
	e.logger().Info("pxdoc: editor created", "document", doc.ID(), "nodes", tree.Len())
	return e, nil
}

func (e *Editor) logger() *slog.Logger {
	if e.log != nil {
		return e.log
	}
	return Logger()
}

// Apply applies p and records it as one history entry. Entries that were
// undone are discarded. On error the document is unchanged.
func (e *Editor) Apply(p patch.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inv, err := e.engine.Apply(e.tree, p)
	if err != nil {
		return err
	}
	e.record(p.Kind().String(), []patch.Patch{p}, []patch.Patch{inv})
	return nil
}

// ApplyAll applies ps atomically as one history entry. On error the
// document is unchanged and the error is a *patch.BatchError.
func (e *Editor) ApplyAll(ps []patch.Patch) error {
	if len(ps) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	inv, err := e.engine.ApplyAll(e.tree, ps)
	if err != nil {
		return err
	}
	slices.Reverse(inv)
	e.record(fmt.Sprintf("Batch(%d)", len(ps)), slices.Clone(ps), inv)
	return nil
}

// record must be called with the write lock held.
func (e *Editor) record(label string, redo, undo []patch.Patch) {
	e.history.push(Entry{
		ID:    uuid.Must(uuid.NewV7()),
		Label: label,
		Time:  time.Now(),
		Redo:  redo,
		Undo:  undo,
	})
	e.version++
	e.logger().Debug("pxdoc: apply", "label", label, "patches", len(redo), "version", e.version)
}

// Undo reverts the most recent applied entry.
func (e *Editor) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := e.history.back()
	if entry == nil {
		return ErrNothingToUndo
	}
	if _, err := e.engine.ApplyAll(e.tree, entry.Undo); err != nil {
		e.logger().Warn("pxdoc: undo failed", "label", entry.Label, "err", err)
		return fmt.Errorf("pxdoc: undo %s: %w", entry.Label, err)
	}
	e.history.cursor--
	e.version++
	e.logger().Debug("pxdoc: undo", "label", entry.Label, "version", e.version)
	return nil
}

// Redo reapplies the most recently undone entry.
func (e *Editor) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := e.history.forward()
	if entry == nil {
		return ErrNothingToRedo
	}
	if _, err := e.engine.ApplyAll(e.tree, entry.Redo); err != nil {
		e.logger().Warn("pxdoc: redo failed", "label", entry.Label, "err", err)
		return fmt.Errorf("pxdoc: redo %s: %w", entry.Label, err)
	}
	e.history.cursor++
	e.version++
	e.logger().Debug("pxdoc: redo", "label", entry.Label, "version", e.version)
	return nil
}

// CanUndo reports whether Undo has an entry to revert.
func (e *Editor) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.canUndo()
}

// CanRedo reports whether Redo has an entry to reapply.
func (e *Editor) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.canRedo()
}

// History returns a copy of the history, oldest first.
func (e *Editor) History() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.view()
}

// Version returns a counter that grows with every successful change:
// Apply, ApplyAll, Undo, Redo and Load.
func (e *Editor) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Snapshot returns a deep copy of the current tree.
func (e *Editor) Snapshot() *node.Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Clone()
}

// View calls fn with the live tree under the read lock. fn must not
// modify the tree or keep references to it after returning.
func (e *Editor) View(fn func(*node.Tree)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.tree)
}

// Load replaces the Unloaded placeholder id with a layer built from its
// byte ranges. The fetch runs without holding the lock and honors ctx.
// If the placeholder was removed or replaced meanwhile, nothing is
// installed. Loading an id that is already a layer is a no-op.
func (e *Editor) Load(ctx context.Context, id uuid.UUID) error {
	e.mu.RLock()
	n, err := e.tree.Find(id)
	var ranges []source.Range
	if err == nil {
		if u, ok := n.(*node.Unloaded); ok {
			ranges = u.Ranges()
		}
	}
	e.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("pxdoc: load: %w", err)
	}
	switch n.Kind() {
	case node.KindUnloaded:
	case node.KindLayer:
		return nil
	default:
		return fmt.Errorf("pxdoc: load: %w: %v %v", node.ErrInvalidTarget, n.Kind(), id)
	}
	if e.src == nil {
		return fmt.Errorf("pxdoc: load %v: %w: no source configured", id, source.ErrSourceUnavailable)
	}

	data, err := e.src.ReadRanges(ctx, ranges)
	if err != nil {
		if !errors.Is(err, source.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", source.ErrSourceUnavailable, err)
		}
		e.logger().Warn("pxdoc: load failed", "id", id, "err", err)
		return fmt.Errorf("pxdoc: load %v: %w", id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cur, ok := e.tree.Lookup(id)
	u, isUnloaded := cur.(*node.Unloaded)
	if !ok || !isUnloaded || !slices.Equal(u.Ranges(), ranges) {
		e.logger().Debug("pxdoc: load discarded, placeholder changed", "id", id)
		return nil
	}
	layer, err := u.Materialize(data)
	if err != nil {
		return fmt.Errorf("pxdoc: load %v: %w", id, err)
	}
	if err := e.tree.Replace(id, layer); err != nil {
		return fmt.Errorf("pxdoc: load %v: %w", id, err)
	}
	e.version++
	e.logger().Debug("pxdoc: loaded", "id", id, "bytes", len(data), "version", e.version)
	return nil
}

// LoadAll loads every Unloaded placeholder, several at a time. It waits
// for all loads and joins their errors.
func (e *Editor) LoadAll(ctx context.Context) error {
	var ids []uuid.UUID
	e.View(func(t *node.Tree) {
		for n := range t.All() {
			if n.Kind() == node.KindUnloaded {
				ids = append(ids, n.ID())
			}
		}
	})

	tasks := make([]parallel.Task, len(ids))
	for i, id := range ids {
		tasks[i] = func(ctx context.Context) error {
			return e.Load(ctx, id)
		}
	}
	return e.pool.Run(ctx, tasks)
}
