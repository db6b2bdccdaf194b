package arbor

// EditObserver receives notifications around scoped writes to a Value.
// It is an extension point for validation or dirty tracking; the default is
// no observer and both notifications are skipped.
type EditObserver interface {
	// EditOpened is called when a scoped write is acquired.
	EditOpened()

	// EditClosed is called when a scoped write is released.
	EditClosed()
}

// Value is a freshly constructed value with no tree attachment yet. Nothing
// else can alias its storage until it is absorbed - moved into a Node or
// handed to NewRoot - so mutating it in place is always safe. A Value is
// designed to be absorbed exactly once and never copied.
type Value[T any] struct {
	data     handle[T]
	observer EditObserver
}

// NewValue allocates an independent block holding v. Member nodes inside v
// should themselves be freshly constructed (NewNode, or Copy with a nil
// transaction) so the whole tree is independent.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{data: newHandle(v)}
}

// Observe injects the open/close hooks fired around scoped writes.
func (v *Value[T]) Observe(o EditObserver) {
	v.observer = o
}

// Get returns read-only access to the current value, or nil after the Value
// has been absorbed.
func (v *Value[T]) Get() *T {
	return v.data.p
}

// Snapshot returns a read-only aliasing view of the current block. Writes
// made through Write remain visible to snapshots taken earlier, since a
// fresh value mutates its block in place.
func (v *Value[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{p: v.data.p}
}

// Write acquires a scoped mutable accessor, firing EditOpened. The returned
// Edit must be closed (typically with defer) to fire EditClosed; mutable
// access is only valid between the two. Returns ErrValueReleased after the
// Value has been absorbed.
func (v *Value[T]) Write() (*Edit[T], error) {
	if !v.data.valid() {
		return nil, ErrValueReleased
	}
	if v.observer != nil {
		v.observer.EditOpened()
	}
	return &Edit[T]{owner: v}, nil
}

// release hands the storage handle to an absorbing Node or Root, leaving the
// Value released.
func (v *Value[T]) release() handle[T] {
	d := v.data
	v.data = handle[T]{}
	return d
}

// Edit is a scope guard for mutable access to a Value.
type Edit[T any] struct {
	owner  *Value[T]
	closed bool
}

// Get returns the mutable value. Returns nil once the edit is closed.
func (e *Edit[T]) Get() *T {
	if e.closed {
		return nil
	}
	return e.owner.data.p
}

// Close releases the accessor and fires EditClosed. Closing more than once
// is a no-op.
func (e *Edit[T]) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.owner.observer != nil {
		e.owner.observer.EditClosed()
	}
}
