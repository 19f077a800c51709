package cell

import "encoding/binary"

// prunedBranchCell stands in for an entire omitted subtree: it has no
// references of its own, and instead embeds a (hash, depth) pair for
// every Merkle level its level mask covers. hashAt(0) returns the
// cell's own representation hash, computed the same way as any leaf
// (SHA-256 over its descriptor and payload); hashAt for level > 0 reads
// directly out of the embedded payload, since those levels describe a
// subtree this cell never materializes.
type prunedBranchCell struct {
	desc     Descriptor
	reprHash Hash
	data     []byte
}

const prunedBranchEntrySize = 34 // 32-byte hash + 2-byte big-endian depth

func (p *prunedBranchCell) descriptor() Descriptor { return p.desc }
func (p *prunedBranchCell) cellType() CellType     { return TypePrunedBranch }
func (p *prunedBranchCell) bitLen() int            { return len(p.data) * 8 }
func (p *prunedBranchCell) rawData() []byte        { return p.data }
func (p *prunedBranchCell) refCount() int          { return 0 }

func (p *prunedBranchCell) reference(int) (Cell, error) {
	return Cell{}, ErrCellUnderflow
}

// entryIndex maps a Merkle level to its slot within the embedded array,
// or -1 if level refers to the representative (level 0) hash.
func (p *prunedBranchCell) entryIndex(level int) int {
	idx := p.desc.LevelMask().HashIndex(level)
	return idx - 1
}

func (p *prunedBranchCell) hashAt(level int) Hash {
	idx := p.entryIndex(level)
	if idx < 0 {
		return p.reprHash
	}
	off := 2 + idx*prunedBranchEntrySize
	var h Hash
	copy(h[:], p.data[off:off+32])
	return h
}

func (p *prunedBranchCell) depthAt(level int) uint16 {
	idx := p.entryIndex(level)
	if idx < 0 {
		return 0
	}
	off := 2 + idx*prunedBranchEntrySize + 32
	return binary.BigEndian.Uint16(p.data[off : off+2])
}
