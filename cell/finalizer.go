package cell

import (
	"github.com/sirupsen/logrus"

	"github.com/CynthiaCurtis/broxus-types/cell/internal/bitutil"
)

// CellParts is the transient, mutable state a Builder accumulates before
// handing it to a Finalizer: tightly packed (non-augmented) data bits,
// the logical bit count, the child references in order, and whether the
// builder was told to produce an exotic cell.
type CellParts struct {
	Data       []byte
	BitLen     int
	References []Cell
	Exotic     bool
}

// Finalizer turns CellParts into an immutable Cell: it classifies the
// cell's type, computes its level mask and one hash/depth pair per
// level, validates exotic payload shapes, canonicalizes the all-zero
// header to the shared empty cell, and allocates the right concrete
// representation.
type Finalizer interface {
	Finalize(parts CellParts) (Cell, error)
}

// defaultFinalizer is the standard Finalizer. Its logger is nil unless
// set via WithLogger: cell cannot import cellog (cellog imports cell,
// for WithCell), so a caller that wants the finalizer's activity logged
// through the shared cellog logger passes it in explicitly.
type defaultFinalizer struct {
	log *logrus.Logger
}

// FinalizerOption configures a Finalizer built with NewFinalizer.
type FinalizerOption func(*defaultFinalizer)

// WithLogger attaches a logger the finalizer reports exotic-cell
// successes (Debug) and finalization failures (Warn) through. A nil
// logger, or omitting this option, disables logging entirely.
func WithLogger(log *logrus.Logger) FinalizerOption {
	return func(f *defaultFinalizer) { f.log = log }
}

// NewFinalizer returns the standard Finalizer implementation.
func NewFinalizer(opts ...FinalizerOption) Finalizer {
	f := defaultFinalizer{}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func (f defaultFinalizer) Finalize(parts CellParts) (Cell, error) {
	return finalizeCell(parts, f.log)
}

func logFinalizeWarn(log *logrus.Logger, err error, typ CellType) {
	if log == nil {
		return
	}
	log.WithFields(logrus.Fields{"cell_type": typ.String(), "err": err}).Warn("cell finalization failed")
}

func logFinalizeDebug(log *logrus.Logger, typ CellType, mask LevelMask) {
	if log == nil {
		return
	}
	log.WithFields(logrus.Fields{"cell_type": typ.String(), "level_mask": mask}).Debug("finalized exotic cell")
}

func finalizeCell(parts CellParts, log *logrus.Logger) (Cell, error) {
	if parts.BitLen < 0 || parts.BitLen > 1023 {
		logFinalizeWarn(log, ErrCellOverflow, TypeOrdinary)
		return Cell{}, ErrCellOverflow
	}
	if len(parts.References) > 4 {
		logFinalizeWarn(log, ErrCellOverflow, TypeOrdinary)
		return Cell{}, ErrCellOverflow
	}

	byteLen := (parts.BitLen + 7) / 8
	if len(parts.Data) < byteLen {
		logFinalizeWarn(log, ErrInvalidData, TypeOrdinary)
		return Cell{}, ErrInvalidData
	}
	tight := parts.Data[:byteLen]

	typ := TypeOrdinary
	if parts.Exotic {
		if parts.BitLen < 8 {
			logFinalizeWarn(log, ErrInvalidData, TypeOrdinary)
			return Cell{}, ErrInvalidData
		}
		t, err := CellTypeFromTag(tight[0])
		if err != nil {
			logFinalizeWarn(log, err, TypeOrdinary)
			return Cell{}, err
		}
		typ = t
	}

	childMask := LevelMaskEmpty
	for _, r := range parts.References {
		childMask |= r.Descriptor().LevelMask()
	}

	var ownMask LevelMask
	switch typ {
	case TypeMerkleProof, TypeMerkleUpdate:
		ownMask = childMask.Shift()
	case TypePrunedBranch:
		if parts.BitLen < 16 {
			logFinalizeWarn(log, ErrInvalidData, typ)
			return Cell{}, ErrInvalidData
		}
		ownMask = NewLevelMask(tight[1])
	case TypeLibraryReference:
		ownMask = LevelMaskEmpty
	default:
		ownMask = childMask
	}

	if err := validateExoticShape(typ, ownMask, parts.BitLen, len(tight), len(parts.References)); err != nil {
		logFinalizeWarn(log, err, typ)
		return Cell{}, err
	}

	aug := bitutil.Augment(tight, parts.BitLen)
	desc := NewDescriptor(len(parts.References), typ.IsExotic(), false, ownMask, parts.BitLen)

	if typ == TypePrunedBranch {
		repr := hashBuf(desc.D1, desc.D2, aug, nil, nil)
		logFinalizeDebug(log, typ, ownMask)
		return wrap(&prunedBranchCell{desc: desc, reprHash: repr, data: aug}), nil
	}

	if typ == TypeLibraryReference {
		repr := hashBuf(desc.D1, desc.D2, aug, nil, nil)
		var fixed [33]byte
		copy(fixed[:], aug)
		logFinalizeDebug(log, typ, ownMask)
		return wrap(&libraryReferenceCell{desc: desc, reprHash: repr, data: fixed}), nil
	}

	childLevelOffset := 0
	if typ == TypeMerkleProof || typ == TypeMerkleUpdate {
		childLevelOffset = 1
	}

	hashCount := ownMask.HashCount()
	hashes := make([]Hash, hashCount)
	depths := make([]uint16, hashCount)
	for level := 0; level < hashCount; level++ {
		childHashes := make([]Hash, len(parts.References))
		childDepths := make([]uint16, len(parts.References))
		for i, r := range parts.References {
			childHashes[i] = r.Hash(level + childLevelOffset)
			childDepths[i] = r.Depth(level + childLevelOffset)
		}
		hashes[level] = hashBuf(desc.D1, desc.D2, aug, childHashes, childDepths)
		depth, err := maxChildDepth(childDepths)
		if err != nil {
			logFinalizeWarn(log, err, typ)
			return Cell{}, err
		}
		depths[level] = depth
	}

	if typ == TypeOrdinary && desc.D1 == 0 && desc.D2 == 0 {
		return EmptyCell(), nil
	}

	if typ.IsExotic() {
		logFinalizeDebug(log, typ, ownMask)
	}

	return wrap(&ordinaryCell{
		desc:   desc,
		typ:    typ,
		bits:   parts.BitLen,
		data:   aug,
		refs:   append([]Cell(nil), parts.References...),
		hashes: hashes,
		depths: depths,
	}), nil
}

func validateExoticShape(typ CellType, mask LevelMask, bitLen, byteLen, refCount int) error {
	// Every exotic payload is a fixed-width binary structure, not an
	// arbitrary bit string, so it must occupy whole bytes: a non-aligned
	// BitLen would make bitutil.Augment plant a terminator bit inside
	// what is supposed to be tag/hash/depth data, corrupting it silently
	// instead of failing.
	if typ != TypeOrdinary && bitLen%8 != 0 {
		return ErrInvalidData
	}
	switch typ {
	case TypePrunedBranch:
		level := mask.Level()
		if level < 1 || level > MaxLevel {
			return ErrInvalidData
		}
		if refCount != 0 {
			return ErrInvalidData
		}
		if byteLen != 2+level*prunedBranchEntrySize {
			return ErrInvalidData
		}
	case TypeLibraryReference:
		if byteLen != 33 || refCount != 0 {
			return ErrInvalidData
		}
	case TypeMerkleProof:
		if byteLen != 1+32+2 || refCount != 1 {
			return ErrInvalidData
		}
	case TypeMerkleUpdate:
		if byteLen != 1+64+4 || refCount != 2 {
			return ErrInvalidData
		}
	}
	return nil
}
