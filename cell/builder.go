package cell

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/CynthiaCurtis/broxus-types/cell/internal/bitutil"
)

// MaxBitLen is the largest bit length a single cell's payload may hold.
const MaxBitLen = 1023

// MaxReferences is the largest number of child cells a single cell may
// hold.
const MaxReferences = 4

// Builder accumulates bits and references for a single cell before it
// is finalized. A Builder is not safe for concurrent use; obtain one per
// goroutine, ideally via GetBuilder/PutBuilder to reuse its backing
// buffer across cells.
type Builder struct {
	w      *bitutil.BitWriter
	refs   []Cell
	exotic bool
}

// NewBuilder returns a Builder ready to accumulate a fresh cell.
func NewBuilder() *Builder {
	return &Builder{w: bitutil.NewBitWriter(MaxBitLen)}
}

var builderPool = sync.Pool{
	New: func() any { return NewBuilder() },
}

// GetBuilder returns a Builder from the shared pool, already reset.
func GetBuilder() *Builder {
	b := builderPool.Get().(*Builder)
	b.Reset()
	return b
}

// PutBuilder returns a Builder to the shared pool for reuse. Callers
// must not use b after calling PutBuilder.
func PutBuilder(b *Builder) {
	builderPool.Put(b)
}

// Reset clears the builder so it can be reused for a new cell, keeping
// its backing buffers so pooled builders avoid reallocating them.
func (b *Builder) Reset() {
	b.w.Reset()
	b.refs = b.refs[:0]
	b.exotic = false
}

// BitsLeft returns how many more bits can be stored before overflowing.
func (b *Builder) BitsLeft() int {
	return MaxBitLen - b.w.Len()
}

// RefsLeft returns how many more references can be stored.
func (b *Builder) RefsLeft() int {
	return MaxReferences - len(b.refs)
}

// SetExotic marks the cell under construction as exotic: its first byte
// will be interpreted as a type tag by the Finalizer.
func (b *Builder) SetExotic(exotic bool) {
	b.exotic = exotic
}

// StoreBit appends a single bit.
func (b *Builder) StoreBit(v bool) error {
	if b.BitsLeft() < 1 {
		return ErrCellOverflow
	}
	b.w.StoreBit(v)
	return nil
}

// StoreUint appends the low n bits of v, most significant bit first.
// n must be in 0..=64.
func (b *Builder) StoreUint(v uint64, n int) error {
	if n < 0 || n > 64 {
		return ErrInvalidData
	}
	if b.BitsLeft() < n {
		return ErrCellOverflow
	}
	b.w.StoreUint(v, n)
	return nil
}

// StoreBytes appends a whole byte slice.
func (b *Builder) StoreBytes(p []byte) error {
	if b.BitsLeft() < len(p)*8 {
		return ErrCellOverflow
	}
	b.w.StoreBytes(p)
	return nil
}

// StoreU256 appends a 256-bit unsigned integer, most significant bit
// first.
func (b *Builder) StoreU256(v *uint256.Int) error {
	if b.BitsLeft() < 256 {
		return ErrCellOverflow
	}
	buf := v.Bytes32()
	b.w.StoreBytes(buf[:])
	return nil
}

// StoreReference appends a child cell. Up to MaxReferences may be
// stored.
func (b *Builder) StoreReference(c Cell) error {
	if b.RefsLeft() < 1 {
		return ErrCellOverflow
	}
	b.refs = append(b.refs, c)
	return nil
}

// Build finalizes the accumulated bits and references into an immutable
// Cell using the default Finalizer.
func (b *Builder) Build() (Cell, error) {
	return b.BuildWith(defaultFinalizer{})
}

// BuildWith finalizes using a caller-supplied Finalizer, e.g. one
// wrapping an intern cache.
func (b *Builder) BuildWith(f Finalizer) (Cell, error) {
	return f.Finalize(CellParts{
		Data:       b.w.Raw(),
		BitLen:     b.w.Len(),
		References: append([]Cell(nil), b.refs...),
		Exotic:     b.exotic,
	})
}
