package cell

import (
	"github.com/holiman/uint256"

	"github.com/CynthiaCurtis/broxus-types/cell/internal/bitutil"
)

// Slice is a read-only cursor over a cell's bits and references. It
// does not copy the cell's payload: reads are served directly from the
// underlying augmented buffer, which is safe because augmentation only
// ever appends bits past the logical bit length.
type Slice struct {
	cell    Cell
	r       *bitutil.BitReader
	refIdx  int
	refLast int
}

// NewSlice returns a Slice positioned at the start of c's bits and
// references.
func NewSlice(c Cell) *Slice {
	return &Slice{
		cell:    c,
		r:       bitutil.NewBitReader(c.Data(), c.BitLen()),
		refIdx:  0,
		refLast: c.RefCount(),
	}
}

// RemainingBits returns how many unread bits remain.
func (s *Slice) RemainingBits() int { return s.r.Remaining() }

// RemainingRefs returns how many unread references remain.
func (s *Slice) RemainingRefs() int { return s.refLast - s.refIdx }

// LoadBit reads a single bit.
func (s *Slice) LoadBit() (bool, error) {
	v, ok := s.r.LoadBit()
	if !ok {
		return false, ErrCellUnderflow
	}
	return v, nil
}

// LoadUint reads n bits (0..=64) as a big-endian unsigned integer.
func (s *Slice) LoadUint(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, ErrInvalidData
	}
	v, ok := s.r.LoadUint(n)
	if !ok {
		return 0, ErrCellUnderflow
	}
	return v, nil
}

// LoadBytes reads n whole bytes.
func (s *Slice) LoadBytes(n int) ([]byte, error) {
	v, ok := s.r.LoadBytes(n)
	if !ok {
		return nil, ErrCellUnderflow
	}
	return v, nil
}

// LoadU256 reads a 256-bit unsigned integer, most significant bit
// first.
func (s *Slice) LoadU256() (*uint256.Int, error) {
	buf, err := s.LoadBytes(32)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(buf), nil
}

// SkipBits advances the cursor without returning the consumed bits.
func (s *Slice) SkipBits(n int) error {
	if !s.r.SkipBits(n) {
		return ErrCellUnderflow
	}
	return nil
}

// LoadReference returns the next unread child cell.
func (s *Slice) LoadReference() (Cell, error) {
	if s.refIdx >= s.refLast {
		return Cell{}, ErrCellUnderflow
	}
	c, err := s.cell.Reference(s.refIdx)
	if err != nil {
		return Cell{}, err
	}
	s.refIdx++
	return c, nil
}

// PreloadReference returns the next unread child cell without advancing
// the cursor.
func (s *Slice) PreloadReference() (Cell, error) {
	if s.refIdx >= s.refLast {
		return Cell{}, ErrCellUnderflow
	}
	return s.cell.Reference(s.refIdx)
}

// LoadReferenceAsSlice loads the next unread child cell and returns a
// fresh Slice positioned at its start, descending one level without the
// caller needing an intermediate Cell handle.
func (s *Slice) LoadReferenceAsSlice() (*Slice, error) {
	c, err := s.LoadReference()
	if err != nil {
		return nil, err
	}
	return NewSlice(c), nil
}
