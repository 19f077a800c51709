package cell

// CellTreeStats accumulates the size of a cell subtree: the total number
// of cells and the total number of payload bits across them.
// Callers walking a DAG with shared subtrees are responsible for
// deduplicating before summing, if that is the metric they want.
type CellTreeStats struct {
	BitCount  uint64
	CellCount uint64
}

// Add merges another subtree's stats into this one.
func (s *CellTreeStats) Add(other CellTreeStats) {
	s.BitCount += other.BitCount
	s.CellCount += other.CellCount
}

// WithCell folds in a single cell's own bit length, counting the cell
// itself.
func (s CellTreeStats) WithCell(bitLen int) CellTreeStats {
	return CellTreeStats{
		BitCount:  s.BitCount + uint64(bitLen),
		CellCount: s.CellCount + 1,
	}
}
