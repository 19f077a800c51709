// Package cellcache provides an interning Finalizer decorator: cells
// that finalize to the same representation hash share a single live Go
// value, and a bounded byte-level cache backed by fastcache keeps a
// compact summary of recently finalized cells for callers that want an
// approximate, memory-capped view without holding every cell live.
package cellcache

import (
	"encoding/binary"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash/v2"

	"github.com/CynthiaCurtis/broxus-types/cell"
)

// InternCache wraps cell.NewFinalizer(), deduplicating cells by
// representation hash and maintaining a bounded summary cache alongside
// the live dedup map.
type InternCache struct {
	base cell.Finalizer

	mu   sync.Mutex
	live map[cell.Hash]cell.Cell

	summaries *fastcache.Cache
}

// New returns an InternCache whose summary cache targets roughly
// maxBytes of memory. Any FinalizerOption (e.g. cell.WithLogger) is
// forwarded to the underlying cell.Finalizer.
func New(maxBytes int, opts ...cell.FinalizerOption) *InternCache {
	return &InternCache{
		base:      cell.NewFinalizer(opts...),
		live:      make(map[cell.Hash]cell.Cell),
		summaries: fastcache.New(maxBytes),
	}
}

// Finalize implements cell.Finalizer. A cell whose content has already
// been finalized returns the existing live Cell (Clone()'d, so its
// reference count reflects the new owner) instead of allocating again.
func (ic *InternCache) Finalize(parts cell.CellParts) (cell.Cell, error) {
	c, err := ic.base.Finalize(parts)
	if err != nil {
		return cell.Cell{}, err
	}

	h := c.RepresentationHash()

	ic.mu.Lock()
	defer ic.mu.Unlock()

	if existing, ok := ic.live[h]; ok {
		return existing.Clone(), nil
	}
	ic.live[h] = c
	ic.summaries.Set(summaryKey(h), encodeSummary(c))
	return c, nil
}

// Lookup returns a previously interned cell by representation hash.
func (ic *InternCache) Lookup(h cell.Hash) (cell.Cell, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	c, ok := ic.live[h]
	return c, ok
}

// Len returns the number of distinct cells currently interned.
func (ic *InternCache) Len() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return len(ic.live)
}

// HasSummary reports whether the bounded byte-level cache still holds a
// summary for the given hash. Entries here can be evicted under memory
// pressure even while the live map (unbounded, exact) still holds the
// cell itself; this is meant for callers doing best-effort cache
// warming rather than correctness-critical lookups.
func (ic *InternCache) HasSummary(h cell.Hash) bool {
	return ic.summaries.Has(summaryKey(h))
}

// Reset drops every interned cell and clears the summary cache.
func (ic *InternCache) Reset() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.live = make(map[cell.Hash]cell.Cell)
	ic.summaries.Reset()
}

func summaryKey(h cell.Hash) []byte {
	sum := xxhash.Sum64(h[:])
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], sum)
	return key[:]
}

// encodeSummary packs a cell's descriptor bytes and bit length into the
// compact form stored in the summary cache. HasSummary only needs an
// existence check, so the payload itself is deliberately left out:
// storing it would spend the bounded cache's capacity on bytes nothing
// ever reads back, evicting other entries sooner for no benefit.
func encodeSummary(c cell.Cell) []byte {
	d := c.Descriptor()
	buf := make([]byte, 4)
	buf[0], buf[1] = d.D1, d.D2
	binary.BigEndian.PutUint16(buf[2:4], uint16(c.BitLen()))
	return buf
}
