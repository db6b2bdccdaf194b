package arbor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeCopyDeep(t *testing.T) {
	// Copying with no active transaction always yields an independent tree.
	src := NewNode(newEmployee("John", 34, "engineering", 100))
	dup := src.Copy(nil)

	require.NotSame(t, src.Get(), dup.Get())
	require.NotSame(t, src.Get().data.Get(), dup.Get().data.Get())
	require.NotSame(t, src.Get().department.Get(), dup.Get().department.Get())
	require.Equal(t, "John", dup.Get().data.Get().name)

	// Mutating the copy never affects the source.
	dup.Mut(nil).data.Mut(nil).name = "Jane"
	require.Equal(t, "Jane", dup.Get().data.Get().name)
	require.Equal(t, "John", src.Get().data.Get().name)
}

func TestNodeCopyShallow(t *testing.T) {
	tx := &Tx{}
	src := NewNode(newEmployee("John", 34, "engineering", 100))
	alias := src.Copy(tx)

	// Inside a transaction, copying aliases the source's block.
	require.Same(t, src.Get(), alias.Get())

	// Aliasing marks nothing as detached.
	require.Zero(t, tx.OpenEdits())
}

func TestNodeMutCopiesOncePerTransaction(t *testing.T) {
	n := NewNode(person{name: "Bob"})
	before := n.Get()

	tx := &Tx{}
	p1 := n.Mut(tx)
	require.NotSame(t, before, p1)
	require.Equal(t, 1, tx.OpenEdits())

	// Repeated mutable access reuses the same block.
	p2 := n.Mut(tx)
	require.Same(t, p1, p2)
	require.Equal(t, 1, tx.OpenEdits())

	p1.name = "Alice"
	require.Equal(t, "Bob", before.name)
}

func TestNodeMutOutsideTransaction(t *testing.T) {
	// A node in a brand-new tree is exclusively owned; mutable access is
	// direct, with no copy.
	n := NewNode(person{name: "Bob"})
	before := n.Get()
	n.Mut(nil).name = "Alice"
	require.Same(t, before, n.Get())
	require.Equal(t, "Alice", before.name)
}

func TestNodeSet(t *testing.T) {
	t.Run("shared target allocates a detached copy", func(t *testing.T) {
		tx := &Tx{}
		dst := NewNode(person{name: "old"})
		old := dst.Get()
		src := NewNode(person{name: "new"})

		require.NoError(t, dst.Set(tx, &src))
		require.NotSame(t, old, dst.Get())
		require.Equal(t, "new", dst.Get().name)
		require.Equal(t, 1, tx.OpenEdits())

		// Other aliasers of the old block are unaffected.
		require.Equal(t, "old", old.name)
		// The source keeps its own block.
		require.NotSame(t, src.Get(), dst.Get())
	})

	t.Run("detached target assigns in place", func(t *testing.T) {
		tx := &Tx{}
		dst := NewNode(person{name: "old"})
		detached := dst.Mut(tx)
		src := NewNode(person{name: "new"})

		require.NoError(t, dst.Set(tx, &src))
		require.Same(t, detached, dst.Get())
		require.Equal(t, "new", dst.Get().name)
		require.Equal(t, 1, tx.OpenEdits())
	})

	t.Run("deep context assigns in place", func(t *testing.T) {
		dst := NewNode(person{name: "old"})
		before := dst.Get()
		src := NewNode(person{name: "new"})

		require.NoError(t, dst.Set(nil, &src))
		require.Same(t, before, dst.Get())
		require.Equal(t, "new", dst.Get().name)
	})

	t.Run("released source", func(t *testing.T) {
		dst := NewNode(person{})
		src := NewNode(person{})
		sink := NewNode(person{})
		require.NoError(t, sink.Take(nil, &src))
		require.ErrorIs(t, dst.Set(nil, &src), ErrNodeReleased)
	})
}

func TestNodeSetValue(t *testing.T) {
	tx := &Tx{}
	n := NewNode(person{name: "old"})
	old := n.Get()

	// Shared: a fresh block replaces the aliasing handle.
	n.SetValue(tx, person{name: "first"})
	require.NotSame(t, old, n.Get())
	require.Equal(t, "first", n.Get().name)
	require.Equal(t, "old", old.name)
	require.Equal(t, 1, tx.OpenEdits())

	// Now detached: assignment happens in place.
	detached := n.Get()
	n.SetValue(tx, person{name: "second"})
	require.Same(t, detached, n.Get())
	require.Equal(t, "second", n.Get().name)
	require.Equal(t, 1, tx.OpenEdits())
}

func TestNodeTake(t *testing.T) {
	t.Run("into detached node swaps the handle", func(t *testing.T) {
		dst := NewNode(person{name: "old"})
		src := NewNode(person{name: "new"})
		srcBlock := src.Get()

		require.NoError(t, dst.Take(nil, &src))
		require.Same(t, srcBlock, dst.Get())
		require.Nil(t, src.Get())
	})

	t.Run("into shared node registers the taken handle", func(t *testing.T) {
		tx := &Tx{}
		dst := NewNode(person{name: "old"})
		old := dst.Get()
		src := NewNode(person{name: "new"})
		srcBlock := src.Get()

		require.NoError(t, dst.Take(tx, &src))
		require.Same(t, srcBlock, dst.Get())
		require.Equal(t, 1, tx.OpenEdits())
		require.Equal(t, "old", old.name)

		// The taken block counts as this transaction's open edit, so a
		// subsequent write mutates it in place.
		require.Same(t, srcBlock, dst.Mut(tx))
		require.Equal(t, 1, tx.OpenEdits())
	})

	t.Run("released source errors", func(t *testing.T) {
		dst := NewNode(person{})
		src := NewNode(person{})
		sink := NewNode(person{})
		require.NoError(t, sink.Take(nil, &src))
		require.ErrorIs(t, dst.Take(nil, &src), ErrNodeReleased)
	})
}

func TestNodeTakeValue(t *testing.T) {
	tx := &Tx{}
	dst := NewNode(person{name: "old"})
	v := NewValue(person{name: "new"})
	block := v.Get()

	require.NoError(t, dst.TakeValue(tx, v))
	require.Same(t, block, dst.Get())
	require.Equal(t, 1, tx.OpenEdits())
	require.Nil(t, v.Get())

	require.ErrorIs(t, dst.TakeValue(tx, v), ErrValueReleased)
}

func TestNewNodeFromValue(t *testing.T) {
	v := NewValue(newEmployee("John", 34, "engineering", 100))
	block := v.Get()

	n := NewNodeFromValue(v)
	require.Same(t, block, n.Get())
	require.Nil(t, v.Get())
}
