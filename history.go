package pxdoc

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc/patch"
)

// Entry is one step of editing history: the patches that were applied and
// the patches that revert them.
type Entry struct {
	ID    uuid.UUID
	Label string
	Time  time.Time

	// Redo holds the patches as applied, in order.
	Redo []patch.Patch
	// Undo holds the inverses, in the order they must be applied.
	Undo []patch.Patch

	// Undone is set on entries after the cursor, which Redo would reapply.
	Undone bool
}

// history is a linear undo stack with a cursor. Entries before the cursor
// are applied; entries at or after it have been undone. Recording a new
// entry discards everything after the cursor.
type history struct {
	entries []Entry
	cursor  int
	limit   int
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

func (h *history) push(e Entry) {
	h.entries = append(h.entries[:h.cursor], e)
	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = slices.Delete(h.entries, 0, drop)
	}
	h.cursor = len(h.entries)
}

func (h *history) canUndo() bool { return h.cursor > 0 }

func (h *history) canRedo() bool { return h.cursor < len(h.entries) }

// back returns the entry Undo would revert.
func (h *history) back() *Entry {
	if !h.canUndo() {
		return nil
	}
	return &h.entries[h.cursor-1]
}

// forward returns the entry Redo would reapply.
func (h *history) forward() *Entry {
	if !h.canRedo() {
		return nil
	}
	return &h.entries[h.cursor]
}

// view returns copies of all entries with Undone set.
func (h *history) view() []Entry {
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		e.Redo = slices.Clone(e.Redo)
		e.Undo = slices.Clone(e.Undo)
		e.Undone = i >= h.cursor
		out[i] = e
	}
	return out
}
