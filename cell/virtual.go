package cell

// virtualCell presents another cell as if it were reached one Merkle
// level further from the root: every hash and depth query is answered
// by the wrapped cell at level+1, and every reference is itself
// virtualized so the whole subtree appears shifted. It never copies the
// wrapped cell's payload.
type virtualCell struct {
	inner Cell
}

func (v *virtualCell) descriptor() Descriptor {
	d := v.inner.Descriptor()
	return NewDescriptor(d.RefCount(), d.IsExotic(), d.StoreHashes(), d.LevelMask().Shift(), v.inner.BitLen())
}

func (v *virtualCell) cellType() CellType { return v.inner.Type() }
func (v *virtualCell) bitLen() int        { return v.inner.BitLen() }
func (v *virtualCell) rawData() []byte    { return v.inner.Data() }
func (v *virtualCell) refCount() int      { return v.inner.RefCount() }

func (v *virtualCell) reference(i int) (Cell, error) {
	child, err := v.inner.Reference(i)
	if err != nil {
		return Cell{}, err
	}
	return Virtualize(child), nil
}

func (v *virtualCell) hashAt(level int) Hash    { return v.inner.Hash(level + 1) }
func (v *virtualCell) depthAt(level int) uint16 { return v.inner.Depth(level + 1) }
