package node

import (
	"fmt"
	"iter"
	"slices"

	"github.com/google/uuid"
)

// Tree is a Document together with an identity index. The index maps every
// node ID to its node and to the ID of its parent; it never owns nodes.
//
// Tree is not safe for concurrent mutation.
type Tree struct {
	root    *Document
	nodes   map[uuid.UUID]Node
	parents map[uuid.UUID]uuid.UUID
}

// NewTree indexes doc. It fails with ErrDuplicateID if an identity appears
// twice and with ErrInvalidChild if a Document is nested.
func NewTree(doc *Document) (*Tree, error) {
	t := &Tree{
		root:    doc,
		nodes:   make(map[uuid.UUID]Node),
		parents: make(map[uuid.UUID]uuid.UUID),
	}
	t.nodes[doc.ID()] = doc
	for _, c := range doc.kids {
		if err := t.index(c, doc.ID()); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// index adds n and its descendants under parent.
func (t *Tree) index(n Node, parent uuid.UUID) error {
	if err := t.checkSubtree(n); err != nil {
		return err
	}
	t.add(n, parent)
	return nil
}

// checkSubtree verifies n can be inserted: no Documents and no identities
// already indexed or repeated within n.
func (t *Tree) checkSubtree(n Node) error {
	seen := make(map[uuid.UUID]struct{})
	for d := range walk(n) {
		if d.Kind() == KindDocument {
			return fmt.Errorf("%w: document %v cannot be a child", ErrInvalidChild, d.ID())
		}
		if _, ok := t.nodes[d.ID()]; ok {
			return fmt.Errorf("%w: %v", ErrDuplicateID, d.ID())
		}
		if _, ok := seen[d.ID()]; ok {
			return fmt.Errorf("%w: %v", ErrDuplicateID, d.ID())
		}
		seen[d.ID()] = struct{}{}
	}
	return nil
}

func (t *Tree) add(n Node, parent uuid.UUID) {
	t.nodes[n.ID()] = n
	t.parents[n.ID()] = parent
	if p, ok := n.(Parent); ok {
		for _, c := range *p.children() {
			t.add(c, n.ID())
		}
	}
}

func (t *Tree) drop(n Node) {
	for d := range walk(n) {
		delete(t.nodes, d.ID())
		delete(t.parents, d.ID())
	}
}

// Root returns the document.
func (t *Tree) Root() *Document {
	return t.root
}

// Len returns the number of nodes, the document included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Lookup returns the node with the given ID.
func (t *Tree) Lookup(id uuid.UUID) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Find returns the node with the given ID or ErrNotFound.
func (t *Tree) Find(id uuid.UUID) (Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return n, nil
}

// Parent returns the parent of the node with the given ID. The document
// has no parent and yields ErrNotFound.
func (t *Tree) Parent(id uuid.UUID) (Parent, error) {
	pid, ok := t.parents[id]
	if !ok {
		return nil, fmt.Errorf("%w: parent of %v", ErrNotFound, id)
	}
	return t.nodes[pid].(Parent), nil
}

// IndexOf returns the position of child within parent.
func (t *Tree) IndexOf(parent, child uuid.UUID) (int, error) {
	p, err := t.parent(parent)
	if err != nil {
		return -1, err
	}
	i := indexOf(*p.children(), child)
	if i < 0 {
		return -1, fmt.Errorf("%w: %v in %v", ErrNotFound, child, parent)
	}
	return i, nil
}

func indexOf(kids []Node, id uuid.UUID) int {
	return slices.IndexFunc(kids, func(n Node) bool { return n.ID() == id })
}

// parent resolves id to a Parent. Missing nodes yield ErrNotFound, other
// kinds ErrInvalidTarget.
func (t *Tree) parent(id uuid.UUID) (Parent, error) {
	n, err := t.Find(id)
	if err != nil {
		return nil, err
	}
	p, ok := n.(Parent)
	if !ok {
		return nil, fmt.Errorf("%w: %v %v has no children", ErrInvalidTarget, n.Kind(), id)
	}
	return p, nil
}

// Insert adds child at pos in parent's child list. pos may equal the
// current length to append. Checks run in order: parent exists and is a
// Parent, pos is in range, child is a valid, not yet indexed subtree.
func (t *Tree) Insert(parent uuid.UUID, child Node, pos int) error {
	p, err := t.parent(parent)
	if err != nil {
		return err
	}
	kids := p.children()
	if pos < 0 || pos > len(*kids) {
		return fmt.Errorf("%w: insert at %d into %d children", ErrIndexOutOfRange, pos, len(*kids))
	}
	if err := t.checkSubtree(child); err != nil {
		return err
	}
	*kids = slices.Insert(*kids, pos, child)
	t.add(child, parent)
	return nil
}

// Remove detaches the child from parent and returns it with its former
// index. The caller becomes the owner of the removed subtree.
func (t *Tree) Remove(parent, child uuid.UUID) (Node, int, error) {
	p, err := t.parent(parent)
	if err != nil {
		return nil, -1, err
	}
	kids := p.children()
	i := indexOf(*kids, child)
	if i < 0 {
		return nil, -1, fmt.Errorf("%w: %v in %v", ErrNotFound, child, parent)
	}
	n := (*kids)[i]
	*kids = slices.Delete(*kids, i, i+1)
	t.drop(n)
	return n, i, nil
}

// Move relocates child to pos within the same parent and returns its
// former index. pos must be less than the number of children.
func (t *Tree) Move(parent, child uuid.UUID, pos int) (int, error) {
	p, err := t.parent(parent)
	if err != nil {
		return -1, err
	}
	kids := p.children()
	i := indexOf(*kids, child)
	if i < 0 {
		return -1, fmt.Errorf("%w: %v in %v", ErrNotFound, child, parent)
	}
	if pos < 0 || pos >= len(*kids) {
		return -1, fmt.Errorf("%w: move to %d among %d children", ErrIndexOutOfRange, pos, len(*kids))
	}
	n := (*kids)[i]
	*kids = slices.Delete(*kids, i, i+1)
	*kids = slices.Insert(*kids, pos, n)
	return i, nil
}

// Replace swaps the node with the given ID for n, which must carry the
// same ID. The new node takes the old one's place in its parent. Replacing
// the document is not supported.
func (t *Tree) Replace(id uuid.UUID, n Node) error {
	old, err := t.Find(id)
	if err != nil {
		return err
	}
	if n.ID() != id {
		return fmt.Errorf("%w: replacement has id %v, want %v", ErrInvalidChild, n.ID(), id)
	}
	pid, ok := t.parents[id]
	if !ok {
		return fmt.Errorf("%w: cannot replace the document", ErrInvalidTarget)
	}
	t.drop(old)
	if err := t.checkSubtree(n); err != nil {
		t.add(old, pid)
		return err
	}
	kids := t.nodes[pid].(Parent).children()
	(*kids)[indexOf(*kids, id)] = n
	t.add(n, pid)
	return nil
}

// All yields every node in depth-first pre-order, the document first.
func (t *Tree) All() iter.Seq[Node] {
	return walk(t.root)
}

// Subtree yields n and its descendants in depth-first pre-order.
func Subtree(n Node) iter.Seq[Node] {
	return walk(n)
}

func walk(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walkFn(n, yield)
	}
}

func walkFn(n Node, yield func(Node) bool) bool {
	if !yield(n) {
		return false
	}
	if p, ok := n.(Parent); ok {
		for _, c := range *p.children() {
			if !walkFn(c, yield) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the tree with its own index.
func (t *Tree) Clone() *Tree {
	doc := t.root.Clone().(*Document)
	c := &Tree{
		root:    doc,
		nodes:   make(map[uuid.UUID]Node, len(t.nodes)),
		parents: make(map[uuid.UUID]uuid.UUID, len(t.parents)),
	}
	c.nodes[doc.ID()] = doc
	for _, k := range doc.kids {
		c.add(k, doc.ID())
	}
	return c
}

// Equal reports whether both trees are observably equal.
func (t *Tree) Equal(o *Tree) bool {
	return Equal(t.root, o.root)
}
