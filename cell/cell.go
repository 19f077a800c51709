// Package cell implements the in-memory representation, construction,
// hashing and traversal of TVM-style cells: the bounded DAG data model
// (at most 1023 bits and four references per node) that underlies
// TON/Everscale state and messages.
package cell

import (
	"fmt"
	"sync/atomic"
)

// Hash is a 256-bit cell representation hash.
type Hash [32]byte

func (h Hash) String() string {
	return fmt.Sprintf("%x", [32]byte(h))
}

// IsZero reports whether every byte of the hash is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// impl is the internal, type-erased view every cell variant implements.
// It is deliberately unexported: the public surface is the Cell handle,
// which owns reference counting and equality.
type impl interface {
	descriptor() Descriptor
	cellType() CellType
	bitLen() int
	rawData() []byte
	refCount() int
	reference(i int) (Cell, error)
	hashAt(level int) Hash
	depthAt(level int) uint16
}

// mutableImpl is implemented only by ordinaryCell. It groups the
// destructive, in-place child traversal methods, which walk and consume
// a cell's children without allocating a new Cell per step. Cell has no
// exported method that calls them, and nothing gates them on
// IsUniquelyOwned.
type mutableImpl interface {
	impl
	takeFirstChild() (Cell, bool)
	replaceFirstChild(next Cell) (Cell, error)
	takeNextChild() (Cell, bool)
}

// Cell is a shared handle to an immutable cell. It is cheap to copy:
// copies share the same underlying node and participate in the same
// reference count. The zero Cell is not valid; use EmptyCell or a
// Builder to obtain one.
type Cell struct {
	shared *sharedCell
}

type sharedCell struct {
	rc   int32
	body impl
}

// EmptyCell returns the canonical ordinary cell with no data and no
// references.
func EmptyCell() Cell {
	return wrap(theEmptyOrdinaryCell)
}

// AllZerosCell returns the canonical 1023-bit all-zero-bits cell used as
// a filler value by several higher-level protocols.
func AllZerosCell() Cell {
	return wrap(theAllZerosCell)
}

// AllOnesCell returns the canonical 1023-bit all-one-bits cell, the
// complement of AllZerosCell.
func AllOnesCell() Cell {
	return wrap(theAllOnesCell)
}

func wrap(body impl) Cell {
	return Cell{shared: &sharedCell{rc: 1, body: body}}
}

// Clone returns a new handle sharing the same underlying node, with the
// strong reference count incremented. It is the usual way to keep a
// cell alive beyond the lifetime of the Cell value that produced it.
func (c Cell) Clone() Cell {
	if c.shared == nil {
		return c
	}
	atomic.AddInt32(&c.shared.rc, 1)
	return c
}

// Retain increments this handle's reference count and returns the same
// handle, for call sites that want to keep a value alive across a
// function boundary without an explicit Clone.
func (c Cell) Retain() Cell {
	if c.shared == nil {
		return c
	}
	atomic.AddInt32(&c.shared.rc, 1)
	return c
}

// Release decrements the reference count. Cell does not free Go memory
// explicitly (the garbage collector does that once nothing references
// sharedCell), but the count it maintains is what IsUniquelyOwned reads
// to report whether a handle is, at the moment of the call, the sole
// strong owner of its underlying node.
func (c Cell) Release() {
	if c.shared == nil {
		return
	}
	atomic.AddInt32(&c.shared.rc, -1)
}

// IsUniquelyOwned reports whether this handle is (at this instant) the
// only strong reference to its underlying node. It underlies the
// mutate-in-place traversal API and is inherently racy if other
// goroutines concurrently Clone/Release the same Cell; callers that
// need the guarantee to hold must serialize access themselves.
func (c Cell) IsUniquelyOwned() bool {
	if c.shared == nil {
		return false
	}
	return atomic.LoadInt32(&c.shared.rc) == 1
}

func (c Cell) body() impl {
	if c.shared == nil {
		return theEmptyOrdinaryCell
	}
	return c.shared.body
}

// Descriptor returns the cell's two-byte header.
func (c Cell) Descriptor() Descriptor { return c.body().descriptor() }

// Type returns the cell's semantic interpretation.
func (c Cell) Type() CellType { return c.body().cellType() }

// BitLen returns the number of meaningful payload bits.
func (c Cell) BitLen() int { return c.body().bitLen() }

// Data returns the cell's augmented payload: the logical bits packed
// into whole bytes, followed by a single terminator 1-bit and trailing
// zero padding up to the next byte boundary when BitLen is not a
// multiple of 8. Use Slice to read the logical bits without the
// augmentation.
func (c Cell) Data() []byte { return c.body().rawData() }

// RefCount returns the number of references stored in this cell.
func (c Cell) RefCount() int { return c.body().refCount() }

// Reference returns the i-th child cell (0-indexed). i must satisfy
// 0 <= i < RefCount.
func (c Cell) Reference(i int) (Cell, error) {
	return c.body().reference(i)
}

// Hash returns the representation hash at the given Merkle level
// (0..=3). Level 0 is the cell's own hash; levels above the cell's
// level mask collapse to the nearest lower one it actually stores.
func (c Cell) Hash(level int) Hash { return c.body().hashAt(level) }

// RepresentationHash returns the cell's own (level 0) hash.
func (c Cell) RepresentationHash() Hash { return c.Hash(0) }

// Depth returns the subtree depth at the given Merkle level.
func (c Cell) Depth(level int) uint16 { return c.body().depthAt(level) }

// TreeStats returns the cumulative bit count and cell count across this
// cell and every descendant, without deduplicating shared subtrees.
func (c Cell) TreeStats() CellTreeStats {
	self := c.body()
	stats := CellTreeStats{}.WithCell(self.bitLen())
	for i := 0; i < self.refCount(); i++ {
		child, err := self.reference(i)
		if err != nil {
			continue
		}
		stats.Add(child.TreeStats())
	}
	return stats
}

// Equal reports whether two handles refer to cells with identical
// representation hashes and level masks; it does not compare identity.
func (c Cell) Equal(other Cell) bool {
	return c.Hash(0) == other.Hash(0) && c.Descriptor().LevelMask() == other.Descriptor().LevelMask()
}

// IsExotic reports whether the cell is one of the special types
// (pruned branch, library reference, Merkle proof/update).
func (c Cell) IsExotic() bool {
	return c.Descriptor().IsExotic()
}

func (c Cell) String() string {
	return fmt.Sprintf("Cell{type=%s, bits=%d, refs=%d, hash=%s}", c.Type(), c.BitLen(), c.RefCount(), c.RepresentationHash())
}

// Virtualize wraps a cell so that every hash/depth it reports is offset
// one Merkle level up, as if accessed through a Merkle proof one level
// removed from the root. If the cell's level mask is already empty the
// cell is returned unchanged: virtualizing an ordinary cell is a no-op.
func Virtualize(c Cell) Cell {
	if c.Descriptor().LevelMask().IsEmpty() {
		return c
	}
	return wrap(&virtualCell{inner: c})
}
