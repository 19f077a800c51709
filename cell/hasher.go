package cell

import (
	"encoding/binary"

	sha256 "github.com/minio/sha256-simd"
)

// hashBuf computes SHA-256 over a cell's descriptor bytes, its payload,
// each child's depth (as big-endian u16) and finally each child's hash,
// in that order. This is the formula for every hash the finalizer
// computes, ordinary or exotic; a pruned branch's hashes above level 0
// are read from its payload instead. A leaf with no children reduces to
// SHA-256(d1, d2, data).
func hashBuf(d1, d2 byte, data []byte, childHashes []Hash, childDepths []uint16) Hash {
	h := sha256.New()
	h.Write([]byte{d1, d2})
	h.Write(data)
	var depthBuf [2]byte
	for _, d := range childDepths {
		binary.BigEndian.PutUint16(depthBuf[:], d)
		h.Write(depthBuf[:])
	}
	for _, ch := range childHashes {
		h.Write(ch[:])
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func maxChildDepth(childDepths []uint16) (uint16, error) {
	if len(childDepths) == 0 {
		return 0, nil
	}
	var max uint16
	for _, d := range childDepths {
		if d > max {
			max = d
		}
	}
	if max == 0xFFFF {
		return 0, ErrIntOverflow
	}
	return max + 1, nil
}
