package cell

import "github.com/CynthiaCurtis/broxus-types/cell/internal/bitutil"

// emptyOrdinaryCell is the canonical cell with no data and no
// references: d1 = d2 = 0. The finalizer canonicalizes every cell that
// would otherwise have this exact header into this single shared
// instance, matching the Cell constructor's own collapsing rule.
type emptyOrdinaryCell struct{}

func (emptyOrdinaryCell) descriptor() Descriptor { return Descriptor{} }
func (emptyOrdinaryCell) cellType() CellType     { return TypeOrdinary }
func (emptyOrdinaryCell) bitLen() int            { return 0 }
func (emptyOrdinaryCell) rawData() []byte        { return nil }
func (emptyOrdinaryCell) refCount() int          { return 0 }
func (emptyOrdinaryCell) reference(int) (Cell, error) {
	return Cell{}, ErrCellUnderflow
}
func (emptyOrdinaryCell) hashAt(int) Hash    { return emptyCellHash }
func (emptyOrdinaryCell) depthAt(int) uint16 { return 0 }

var emptyCellHash = hashBuf(0, 0, nil, nil, nil)

var theEmptyOrdinaryCell impl = emptyOrdinaryCell{}

// fillCell backs the two all-zeros/all-ones 1023-bit singletons used as
// filler leaves by higher-level protocols built on top of cells.
type fillCell struct {
	desc Descriptor
	data []byte
	hash Hash
}

func (f *fillCell) descriptor() Descriptor { return f.desc }
func (f *fillCell) cellType() CellType     { return TypeOrdinary }
func (f *fillCell) bitLen() int            { return 1023 }
func (f *fillCell) rawData() []byte        { return f.data }
func (f *fillCell) refCount() int          { return 0 }
func (f *fillCell) reference(int) (Cell, error) {
	return Cell{}, ErrCellUnderflow
}
func (f *fillCell) hashAt(int) Hash    { return f.hash }
func (f *fillCell) depthAt(int) uint16 { return 0 }

func newFillCell(fill byte) *fillCell {
	raw := make([]byte, 128)
	for i := range raw {
		raw[i] = fill
	}
	desc := NewDescriptor(0, false, false, LevelMaskEmpty, 1023)
	aug := bitutil.Augment(raw, 1023)
	return &fillCell{desc: desc, data: aug, hash: hashBuf(desc.D1, desc.D2, aug, nil, nil)}
}

var theAllZerosCell impl = newFillCell(0x00)
var theAllOnesCell impl = newFillCell(0xFF)
