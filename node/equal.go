package node

import "slices"

// Equal reports whether a and b are observably equal: same kind, identity,
// name, position, flags, compositing attributes, pixel contents and,
// recursively, children in the same order.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() || a.ID() != b.ID() || a.Name() != b.Name() || a.Position() != b.Position() {
		return false
	}
	switch a := a.(type) {
	case *Document:
		return equalChildren(a.kids, b.(*Document).kids)
	case *Group:
		g := b.(*Group)
		return a.flags == g.flags && a.folded == g.folded && equalChildren(a.kids, g.kids)
	case *Layer:
		l := b.(*Layer)
		return a.flags == l.flags && a.blend == l.blend && a.opacity == l.opacity && a.canvas.Equal(l.canvas)
	case *Note:
		return a.content == b.(*Note).content
	case *Unloaded:
		u := b.(*Unloaded)
		return a.flags == u.flags && a.blend == u.blend && a.opacity == u.opacity &&
			a.size == u.size && a.enc == u.enc && a.hasAux == u.hasAux &&
			(!a.hasAux || a.auxEnc == u.auxEnc) && slices.Equal(a.ranges, u.ranges)
	}
	return false
}

func equalChildren(a, b []Node) bool {
	return slices.EqualFunc(a, b, Equal)
}
