package arbor

// handle is the unit of storage: one heap-allocated block holding a single
// value. Copying a handle aliases the block; newHandle allocates a fresh one.
// A handle is never mutated at this layer - mutation reaches through the
// owning Node or Value. Block lifetime is managed by the garbage collector,
// so a block stays alive for as long as any node, value, or snapshot
// references it, regardless of what later transactions do.
type handle[T any] struct {
	p *T
}

// newHandle allocates a fresh block holding v.
func newHandle[T any](v T) handle[T] {
	p := new(T)
	*p = v
	return handle[T]{p: p}
}

// valid reports whether the handle references a block.
func (h handle[T]) valid() bool {
	return h.p != nil
}

// cloneValue copies v in the given copy context. A composite value whose
// fields contain Nodes or reference containers (slices, maps) implements
//
//	Clone(tx *Tx) T
//
// copying its containers and copying each member Node with Node.Copy(tx), so
// the deep/shallow rule propagates through the whole value: tx == nil yields
// a fully independent duplicate, a live transaction yields a copy whose
// member nodes alias their current blocks. Values without such fields need no
// Clone method; plain assignment already copies them completely.
func cloneValue[T any](tx *Tx, v T) T {
	if c, ok := any(&v).(interface{ Clone(*Tx) T }); ok {
		return c.Clone(tx)
	}
	return v
}

// Snapshot is a read-only view of a storage block. It keeps the block alive
// for as long as the caller holds it, independent of in-flight or future
// transactions. The zero Snapshot is invalid.
type Snapshot[T any] struct {
	p *T
}

// Get returns the snapshot's value, or nil for the zero Snapshot. Callers
// must treat the value as immutable.
func (s Snapshot[T]) Get() *T {
	return s.p
}

// IsValid reports whether the snapshot references a value.
func (s Snapshot[T]) IsValid() bool {
	return s.p != nil
}
