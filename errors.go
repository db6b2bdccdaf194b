// Package arbor maintains a shared, versioned, tree-shaped value that can be
// read concurrently without locking while being mutated transactionally by at
// most one writer at a time. New versions share the storage of every subtree
// the transaction did not touch; committed versions are published atomically
// and remain valid for as long as a reader holds a Snapshot of them.
package arbor

import "errors"

// Transaction errors
var (
	// ErrTxFinished indicates that the transaction was already committed or aborted.
	ErrTxFinished = errors.New("transaction already finished")

	// ErrForeignTx indicates that the transaction belongs to a different root.
	ErrForeignTx = errors.New("transaction does not belong to this root")
)

// Lifecycle errors
var (
	// ErrValueReleased indicates that the Value was already absorbed into a node or root.
	ErrValueReleased = errors.New("value already absorbed into a node or root")

	// ErrNodeReleased indicates that the node's storage was moved away.
	ErrNodeReleased = errors.New("node storage was moved away")
)
