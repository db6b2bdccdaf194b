package arbor

import (
	"sync"
	"sync/atomic"
)

// editIndexThreshold is the registry size at which membership checks switch
// from a linear scan to a hashed index. Most transactions touch only a
// handful of nodes, so the scan is the common case.
const editIndexThreshold = 16

// Tx is an in-flight transaction on a Root. It carries the open-edits
// registry: the identities of the storage blocks already copied during this
// transaction, in detach order, starting with the root's own block. The
// registry is what makes detachment memoized - each node on the write path is
// copied at most once per transaction, and nodes never written to keep
// aliasing whatever the pre-transaction snapshot referenced.
//
// A Tx belongs to exactly one Root and must only be used by the goroutine
// that began it.
type Tx struct {
	owner any
	edits []any
	index map[any]struct{}
	done  bool
}

// OpenEdits returns the number of blocks copied so far in this transaction.
// It is zero once the transaction has been committed or aborted.
func (tx *Tx) OpenEdits() int {
	return len(tx.edits)
}

// isOpenEdit reports whether the block identified by p was already copied
// during this transaction.
func (tx *Tx) isOpenEdit(p any) bool {
	if tx.index != nil {
		_, ok := tx.index[p]
		return ok
	}
	for _, e := range tx.edits {
		if e == p {
			return true
		}
	}
	return false
}

// openEdit registers a freshly copied block with the transaction.
func (tx *Tx) openEdit(p any) {
	tx.edits = append(tx.edits, p)
	if tx.index != nil {
		tx.index[p] = struct{}{}
		return
	}
	if len(tx.edits) > editIndexThreshold {
		tx.index = make(map[any]struct{}, 2*len(tx.edits))
		for _, e := range tx.edits {
			tx.index[e] = struct{}{}
		}
	}
}

// clear drains the registry and marks the transaction finished.
func (tx *Tx) clear() {
	tx.edits = nil
	tx.index = nil
	tx.done = true
}

// Root owns the root node of a tree-shaped value, serializes writers through
// a transaction lock, and publishes committed versions that lock-free readers
// obtain with Snapshot. A Root is created once from a fresh Value and is not
// restartable.
type Root[T any] struct {
	mu        sync.Mutex
	root      Node[T]
	committed atomic.Pointer[T]
}

// NewRoot absorbs a fresh Value as both the root node and the initial
// committed snapshot; both reference the same block until the first commit.
// The Value is left released.
func NewRoot[T any](v *Value[T]) *Root[T] {
	r := &Root[T]{root: NewNodeFromValue(v)}
	r.committed.Store(r.root.data.p)
	return r
}

// Begin starts a transaction, blocking until any other transaction on this
// root has finished. The root node is unconditionally detached with a fresh
// copy - the transaction always mutates a private tree that no concurrent
// reader can observe - and that copy is the first entry in the open-edits
// registry. Returns the transaction and a mutable pointer to the private
// root value.
//
// Calling Begin again on the same root before finishing the first
// transaction blocks; doing so from the same goroutine deadlocks. That is a
// precondition violation, not a detected error.
func (r *Root[T]) Begin() (*Tx, *T) {
	r.mu.Lock()
	tx := &Tx{owner: r}
	r.root.detachWith(tx, newHandle(cloneValue(tx, *r.root.data.p)))
	return tx, r.root.data.p
}

// Commit atomically publishes the transaction's result as the new committed
// version, drains the open-edits registry, and releases the transaction
// lock. Publication is a single atomic pointer swap: a reader calling
// Snapshot concurrently observes either the previous or the new version,
// never a torn intermediate state.
func (r *Root[T]) Commit(tx *Tx) error {
	if err := r.checkTx(tx); err != nil {
		return err
	}
	r.committed.Store(r.root.data.p)
	tx.clear()
	r.mu.Unlock()
	return nil
}

// Abort discards everything the transaction did: the root node is pointed
// back at the committed block, the registry is drained, and the lock is
// released. Readers never observe any effect of an aborted transaction.
func (r *Root[T]) Abort(tx *Tx) error {
	if err := r.checkTx(tx); err != nil {
		return err
	}
	r.root.data = handle[T]{p: r.committed.Load()}
	tx.clear()
	r.mu.Unlock()
	return nil
}

// Update runs fn inside a transaction, aborting if fn returns an error and
// committing otherwise.
func (r *Root[T]) Update(fn func(tx *Tx, root *T) error) error {
	tx, root := r.Begin()
	if err := fn(tx, root); err != nil {
		r.Abort(tx)
		return err
	}
	return r.Commit(tx)
}

// Snapshot returns the most recently committed version without touching the
// transaction lock. It may be called at any time, concurrently with an
// in-flight transaction, and always yields either the version before or the
// version after that transaction's commit. The returned Snapshot keeps its
// version alive independent of later transactions.
func (r *Root[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{p: r.committed.Load()}
}

func (r *Root[T]) checkTx(tx *Tx) error {
	if tx.done {
		return ErrTxFinished
	}
	if tx.owner != any(r) {
		return ErrForeignTx
	}
	return nil
}
