package cache

// lruNode is an element of the recency list.
type lruNode[K comparable] struct {
	key        K
	prev, next *lruNode[K]
}

// lruList is a circular doubly-linked list with a sentinel root.
// root.next is the most recently used node, root.prev the least.
// The list is not thread-safe.
type lruList[K comparable] struct {
	root lruNode[K]
	len  int
}

func newLRUList[K comparable]() *lruList[K] {
	l := &lruList[K]{}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

// Len returns the number of nodes.
func (l *lruList[K]) Len() int {
	return l.len
}

// PushFront inserts key as most recently used and returns its node.
func (l *lruList[K]) PushFront(key K) *lruNode[K] {
	n := &lruNode[K]{key: key}
	l.insertAfterRoot(n)
	l.len++
	return n
}

// MoveToFront marks n as most recently used.
func (l *lruList[K]) MoveToFront(n *lruNode[K]) {
	if l.root.next == n {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	l.insertAfterRoot(n)
}

// Remove unlinks n.
func (l *lruList[K]) Remove(n *lruNode[K]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
	l.len--
}

// Back returns the least recently used node, or nil when empty.
func (l *lruList[K]) Back() *lruNode[K] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

func (l *lruList[K]) insertAfterRoot(n *lruNode[K]) {
	n.prev = &l.root
	n.next = l.root.next
	l.root.next.prev = n
	l.root.next = n
}
