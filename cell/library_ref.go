package cell

// libraryReferenceCell points at a cell stored elsewhere, identified by
// its representation hash. It carries a fixed 33-byte payload (a tag
// byte followed by the 256-bit target hash), has no references, and has
// an empty level mask: its own hash is the only one it ever reports.
type libraryReferenceCell struct {
	desc     Descriptor
	reprHash Hash
	data     [33]byte
}

func (l *libraryReferenceCell) descriptor() Descriptor { return l.desc }
func (l *libraryReferenceCell) cellType() CellType     { return TypeLibraryReference }
func (l *libraryReferenceCell) bitLen() int            { return 33 * 8 }
func (l *libraryReferenceCell) rawData() []byte        { return l.data[:] }
func (l *libraryReferenceCell) refCount() int          { return 0 }

func (l *libraryReferenceCell) reference(int) (Cell, error) {
	return Cell{}, ErrCellUnderflow
}

func (l *libraryReferenceCell) hashAt(int) Hash    { return l.reprHash }
func (l *libraryReferenceCell) depthAt(int) uint16 { return 0 }

// TargetHash returns the 256-bit hash of the cell this reference names.
func (l *libraryReferenceCell) TargetHash() Hash {
	var h Hash
	copy(h[:], l.data[1:33])
	return h
}
