package cell

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
)

// UsageTreeMode controls when a tracked cell is recorded as "included":
// as soon as it is reached by reference traversal (OnLoad), or only once
// its payload bits are read or one of its references is followed
// (OnDataAccess). The distinction matters to callers building minimal
// proofs: a cell that was merely reached, but whose data and references
// nothing ever consulted, need not be included in a proof built under
// OnDataAccess.
type UsageTreeMode int

const (
	// UsageOnLoad records a cell the moment it is reached.
	UsageOnLoad UsageTreeMode = iota
	// UsageOnDataAccess records a cell only once its Data is read or one
	// of its references is followed.
	UsageOnDataAccess
)

func (m UsageTreeMode) String() string {
	switch m {
	case UsageOnLoad:
		return "on_load"
	case UsageOnDataAccess:
		return "on_data_access"
	default:
		return "unknown"
	}
}

// visitedCell is the bookkeeping entry kept per distinct cell reached
// while tracking.
type visitedCell struct {
	include bool
	cell    Cell
}

// treeToken is the weak-reference substitute: usage cells hold a token
// rather than a direct pointer back to their owning UsageTree, so that
// closing the tree does not keep it (or the cells it grew) alive, and
// so that accesses after Close become harmless no-ops instead of
// touching a freed tree.
type treeToken struct {
	mu     sync.Mutex
	closed bool
	tree   *UsageTree
}

func (t *treeToken) insert(c Cell, access UsageTreeMode) {
	t.mu.Lock()
	tree := t.tree
	closed := t.closed
	t.mu.Unlock()
	if closed || tree == nil {
		return
	}
	tree.insert(c, access)
}

// UsageTree records which cells, out of a root's full subtree, were
// actually reached while a caller walked a Cell obtained from Track.
// It is safe for concurrent use.
type UsageTree struct {
	mode    UsageTreeMode
	mu      sync.Mutex
	visited map[Hash]*visitedCell
	token   *treeToken
	log     *logrus.Logger
}

// UsageTreeOption configures a UsageTree built with NewUsageTree.
type UsageTreeOption func(*UsageTree)

// WithUsageTreeLogger attaches a logger the tree reports each insert
// through, at Trace level. cell cannot import cellog (cellog imports
// cell, for WithCell), so a caller that wants this routed through the
// shared cellog logger passes it in explicitly. A nil logger, or
// omitting this option, disables logging entirely.
func WithUsageTreeLogger(log *logrus.Logger) UsageTreeOption {
	return func(t *UsageTree) { t.log = log }
}

// NewUsageTree returns an empty UsageTree in the given mode.
func NewUsageTree(mode UsageTreeMode, opts ...UsageTreeOption) *UsageTree {
	t := &UsageTree{mode: mode, visited: make(map[Hash]*visitedCell)}
	t.token = &treeToken{tree: t}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Close detaches every usage cell previously produced by Track from
// this tree. Cells already handed out keep working as plain,
// non-recording views of their wrapped cell; no further access is
// recorded.
func (t *UsageTree) Close() {
	t.token.mu.Lock()
	t.token.closed = true
	t.token.tree = nil
	t.token.mu.Unlock()
}

// Track wraps root so that every reference traversal and data access
// performed through the returned Cell is recorded against this tree.
// The root itself is reached unconditionally, so it is recorded right
// away: whether that makes it "included" still depends on the tree's
// mode, exactly as for any other cell reached by reference traversal.
func (t *UsageTree) Track(root Cell) Cell {
	t.insert(root, UsageOnLoad)
	return wrap(newUsageCell(root, t.token, t.mode))
}

// Contains reports whether a cell with the given representation hash
// was recorded as included.
func (t *UsageTree) Contains(hash Hash) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	vc, ok := t.visited[hash]
	return ok && vc.include
}

// VisitedCount returns the number of distinct cells recorded, included
// or not.
func (t *UsageTree) VisitedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.visited)
}

func (t *UsageTree) insert(c Cell, access UsageTreeMode) {
	h := c.RepresentationHash()
	include := t.mode == UsageOnLoad || access == UsageOnDataAccess

	t.mu.Lock()
	defer t.mu.Unlock()
	if vc, ok := t.visited[h]; ok {
		if include && !vc.include {
			vc.include = true
			t.logInsert(h, access, include)
		}
		return
	}
	t.visited[h] = &visitedCell{include: include, cell: c}
	t.logInsert(h, access, include)
}

func (t *UsageTree) logInsert(h Hash, access UsageTreeMode, include bool) {
	if t.log == nil {
		return
	}
	t.log.WithFields(logrus.Fields{
		"cell_hash": h.String(),
		"access":    access.String(),
		"included":  include,
	}).Trace("usage tree insert")
}

// UsageTreeWithSubtrees extends UsageTree with an explicit set of
// subtree roots a caller wants to treat as included independent of
// whether traversal ever reached them, useful when assembling a proof
// that must cover cells supplied out of band.
type UsageTreeWithSubtrees struct {
	*UsageTree
	subtrees mapset.Set[Hash]
}

// NewUsageTreeWithSubtrees returns an empty UsageTreeWithSubtrees in the
// given mode.
func NewUsageTreeWithSubtrees(mode UsageTreeMode, opts ...UsageTreeOption) *UsageTreeWithSubtrees {
	return &UsageTreeWithSubtrees{
		UsageTree: NewUsageTree(mode, opts...),
		subtrees:  mapset.NewSet[Hash](),
	}
}

// AddSubtree registers a cell's hash as an included subtree root,
// regardless of whether it is ever reached through Track.
func (t *UsageTreeWithSubtrees) AddSubtree(c Cell) {
	t.subtrees.Add(c.RepresentationHash())
}

// ContainsDirect reports whether a hash was recorded by traversal,
// ignoring the registered subtree set.
func (t *UsageTreeWithSubtrees) ContainsDirect(hash Hash) bool {
	return t.UsageTree.Contains(hash)
}

// ContainsSubtree reports whether a hash is covered either by traversal
// or by an explicitly registered subtree.
func (t *UsageTreeWithSubtrees) ContainsSubtree(hash Hash) bool {
	return t.subtrees.Contains(hash) || t.UsageTree.Contains(hash)
}

// usageCell wraps a tracked cell's reference traversal and data access
// so they can be reported back to the owning UsageTree. Children are
// wrapped and memoized lazily, one usageCell per slot, the first time
// each is reached.
type usageCell struct {
	inner     Cell
	token     *treeToken
	mode      UsageTreeMode
	childOnce []sync.Once
	childVal  []Cell
	childErr  []error
}

func newUsageCell(inner Cell, token *treeToken, mode UsageTreeMode) *usageCell {
	n := inner.RefCount()
	return &usageCell{
		inner:     inner,
		token:     token,
		mode:      mode,
		childOnce: make([]sync.Once, n),
		childVal:  make([]Cell, n),
		childErr:  make([]error, n),
	}
}

func (u *usageCell) descriptor() Descriptor { return u.inner.Descriptor() }
func (u *usageCell) cellType() CellType     { return u.inner.Type() }
func (u *usageCell) bitLen() int            { return u.inner.BitLen() }
func (u *usageCell) refCount() int          { return u.inner.RefCount() }

func (u *usageCell) rawData() []byte {
	u.token.insert(u.inner, UsageOnDataAccess)
	return u.inner.Data()
}

func (u *usageCell) reference(i int) (Cell, error) {
	if i < 0 || i >= len(u.childOnce) {
		return Cell{}, ErrCellUnderflow
	}
	u.token.insert(u.inner, UsageOnDataAccess)
	u.childOnce[i].Do(func() {
		child, err := u.inner.Reference(i)
		if err != nil {
			u.childErr[i] = err
			return
		}
		u.token.insert(child, UsageOnLoad)
		u.childVal[i] = wrap(newUsageCell(child, u.token, u.mode))
	})
	if u.childErr[i] != nil {
		return Cell{}, u.childErr[i]
	}
	return u.childVal[i], nil
}

func (u *usageCell) hashAt(level int) Hash    { return u.inner.Hash(level) }
func (u *usageCell) depthAt(level int) uint16 { return u.inner.Depth(level) }
