package arbor

// Node is a mutable slot inside a larger tree-shaped value. At any instant it
// owns exactly one storage block, which is either shared (possibly aliased by
// another node or a published snapshot; writing requires a copy first) or
// detached (exclusively reachable through this node as far as the current
// transaction knows; writing may mutate in place).
//
// Every operation that can copy or mutate takes the copy context as an
// explicit *Tx parameter. A nil transaction means the node is part of a
// brand-new, as-yet-unshared tree (the "deep" context): copies are fully
// independent and mutation needs no bookkeeping. A live transaction means the
// node belongs to a tree reachable from published snapshots (the "shallow"
// context): copies alias, and the first write detaches the node by copying
// its block exactly once per transaction.
//
// A node transitions shared to detached at most once per transaction and
// never back. Mutating through a transaction other than the one that owns the
// enclosing root's tree violates the sharing protocol; the enclosing tree
// type must not let that happen.
type Node[T any] struct {
	data handle[T]
}

// NewNode allocates a fresh, implicitly detached block holding v. Nothing in
// any tree can reach it yet.
func NewNode[T any](v T) Node[T] {
	return Node[T]{data: newHandle(v)}
}

// NewNodeFromValue move-constructs a node from a fresh Value, absorbing its
// storage without copying. The Value is left released.
func NewNodeFromValue[T any](v *Value[T]) Node[T] {
	return Node[T]{data: v.release()}
}

// Get returns read-only access to the current value. It never copies and
// never changes the node's state, regardless of context. Returns nil for a
// released node.
func (n *Node[T]) Get() *T {
	return n.data.p
}

// Snapshot returns a read-only aliasing view of the node's current block.
func (n *Node[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{p: n.data.p}
}

// Mut returns mutable access to the value. This is the single choke point
// every copy-on-write flows through: inside a transaction, the first call
// copies the block, marks the node detached, and registers the new block with
// the transaction; repeated calls return the same block with no further
// allocation. With a nil transaction the node is part of an unshared tree and
// the pointer is returned directly. Returns nil for a released node.
func (n *Node[T]) Mut(tx *Tx) *T {
	if !n.data.valid() {
		return nil
	}
	if tx != nil && !tx.isOpenEdit(n.data.p) {
		n.detachWith(tx, newHandle(cloneValue(tx, *n.data.p)))
	}
	return n.data.p
}

// Copy copy-constructs a new node from n. In the deep context (nil
// transaction) the result is a fully independent duplicate. Inside a
// transaction the result aliases n's block - this is the structural-sharing
// step - and no detachment bookkeeping happens.
func (n *Node[T]) Copy(tx *Tx) Node[T] {
	if tx != nil || !n.data.valid() {
		return Node[T]{data: n.data}
	}
	return Node[T]{data: newHandle(cloneValue(nil, *n.data.p))}
}

// Set copy-assigns src's current value into n. If n is detached the value is
// copied in place with no new allocation; if n is shared, a fresh block
// holding the copy replaces the aliasing handle and n becomes detached. Other
// aliasers of the old block are unaffected. Returns ErrNodeReleased when src
// is released.
func (n *Node[T]) Set(tx *Tx, src *Node[T]) error {
	if !src.data.valid() {
		return ErrNodeReleased
	}
	n.SetValue(tx, cloneValue(tx, *src.data.p))
	return nil
}

// SetValue assigns v into n, with the same detached/shared branch as Set.
func (n *Node[T]) SetValue(tx *Tx, v T) {
	if n.data.valid() && n.detached(tx) {
		*n.data.p = v
		return
	}
	n.detachWith(tx, newHandle(v))
}

// Take move-assigns src's storage into n without copying the value. If n is
// detached the handle is swapped in directly; if n is shared, the taken
// handle replaces the aliasing one and is registered as this transaction's
// open edit, exactly as a write-triggered copy would be. src is left
// released. Returns ErrNodeReleased when src is already released.
func (n *Node[T]) Take(tx *Tx, src *Node[T]) error {
	if !src.data.valid() {
		return ErrNodeReleased
	}
	h := src.data
	src.data = handle[T]{}
	n.takeDetached(tx, h)
	return nil
}

// TakeValue move-assigns a fresh Value's storage into n, with the same
// detached/shared branch as Take. The Value is left released. Returns
// ErrValueReleased when it was already absorbed.
func (n *Node[T]) TakeValue(tx *Tx, v *Value[T]) error {
	if !v.data.valid() {
		return ErrValueReleased
	}
	n.takeDetached(tx, v.release())
	return nil
}

// detached reports whether n's block is exclusively owned in the given copy
// context. Outside any transaction the deep rule makes every node exclusively
// owned by construction, so there is no registry to consult.
func (n *Node[T]) detached(tx *Tx) bool {
	if tx == nil {
		return true
	}
	return tx.isOpenEdit(n.data.p)
}

// detachWith replaces n's handle with a freshly allocated one and records it
// as an open edit of the transaction.
func (n *Node[T]) detachWith(tx *Tx, h handle[T]) {
	n.data = h
	if tx != nil {
		tx.openEdit(h.p)
	}
}

func (n *Node[T]) takeDetached(tx *Tx, h handle[T]) {
	if n.data.valid() && n.detached(tx) {
		n.data = h
		return
	}
	n.detachWith(tx, h)
}
