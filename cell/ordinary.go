package cell

// ordinaryCell backs plain data cells as well as the two exotic types
// that still carry ordinary-shaped storage (Merkle proof, Merkle
// update): their special interpretation only affects hashing, not
// layout, so a single struct covers all three.
type ordinaryCell struct {
	desc    Descriptor
	typ     CellType
	bits    int
	data    []byte
	refs    []Cell
	takeIdx int
	hashes  []Hash
	depths  []uint16
}

func (c *ordinaryCell) descriptor() Descriptor { return c.desc }
func (c *ordinaryCell) cellType() CellType     { return c.typ }
func (c *ordinaryCell) bitLen() int            { return c.bits }
func (c *ordinaryCell) rawData() []byte        { return c.data }

func (c *ordinaryCell) refCount() int {
	return len(c.refs) - c.takeIdx
}

func (c *ordinaryCell) reference(i int) (Cell, error) {
	idx := c.takeIdx + i
	if i < 0 || idx >= len(c.refs) {
		return Cell{}, ErrCellUnderflow
	}
	return c.refs[idx], nil
}

func (c *ordinaryCell) hashAt(level int) Hash {
	idx := c.desc.LevelMask().HashIndex(level)
	if idx < 0 || idx >= len(c.hashes) {
		idx = len(c.hashes) - 1
	}
	if idx < 0 {
		return Hash{}
	}
	return c.hashes[idx]
}

func (c *ordinaryCell) depthAt(level int) uint16 {
	idx := c.desc.LevelMask().HashIndex(level)
	if idx < 0 || idx >= len(c.depths) {
		idx = len(c.depths) - 1
	}
	if idx < 0 {
		return 0
	}
	return c.depths[idx]
}

// takeFirstChild removes and returns the next not-yet-taken reference,
// advancing the internal cursor. It is used by traversal code that
// consumes a cell's children destructively, front to back, and requires
// the owning Cell to be the sole strong reference (see Cell.Retain).
func (c *ordinaryCell) takeFirstChild() (Cell, bool) {
	if c.takeIdx >= len(c.refs) {
		return Cell{}, false
	}
	child := c.refs[c.takeIdx]
	c.takeIdx++
	return child, true
}

// replaceFirstChild swaps the next not-yet-taken reference for a new
// one without advancing the cursor, returning the reference it
// displaced. It lets a caller rebuild a modified subtree back into its
// parent before moving on to the following sibling.
func (c *ordinaryCell) replaceFirstChild(next Cell) (Cell, error) {
	if c.takeIdx >= len(c.refs) {
		return Cell{}, ErrCellOverflow
	}
	old := c.refs[c.takeIdx]
	c.refs[c.takeIdx] = next
	return old, nil
}

// takeNextChild is an alias for takeFirstChild retained for callers that
// read more naturally as "advance to the next child" once the first has
// already been taken.
func (c *ordinaryCell) takeNextChild() (Cell, bool) {
	return c.takeFirstChild()
}
