package rawnode

import (
	"encoding/binary"
	"fmt"

	"github.com/btreeidx/bptreeindex/internal/pagestore"
)

// DegreeInternal is D for internal pages: D = floor(PageSize / (2 *
// max(sizeof(int), sizeof(pid), sizeof(Key), sizeof(pid)))).
const DegreeInternal = pagestore.PageSize / (2 * sizeofPID)

// MaxInternalPairs is the most (key, child pid) pairs an internal page can
// hold, not counting the rightmost child pointer carried in the trailer.
const MaxInternalPairs = DegreeInternal - 1

const (
	internalValuesOffset = 0
	internalKeysOffset   = internalValuesOffset + MaxInternalPairs*sizeofPID
)

func init() {
	used := internalKeysOffset + MaxInternalPairs*sizeofKey + trailerSize
	if used > pagestore.PageSize {
		panic(fmt.Sprintf("rawnode: internal layout overflows page: %d > %d", used, pagestore.PageSize))
	}
}

// Internal is the raw, byte-exact image of an internal page: sorted (key,
// child pid) pairs plus a tail pointer. It is kind-agnostic at this layer —
// the tail pointer is just "next_pid"; giving it "rightmost child" meaning
// and handling the tail-pointer-aware insert cases is the internal-node
// view's job, not this raw layer's.
type Internal struct {
	buf pagestore.Page
}

// Bytes exposes the underlying page image for Store I/O.
func (n *Internal) Bytes() *pagestore.Page { return &n.buf }

// ClearAll resets the page to an empty node with no pairs and next_pid
// cleared to InvalidPID.
func (n *Internal) ClearAll() {
	n.buf = pagestore.Page{}
	clearTrailer(&n.buf)
	for i := 0; i < MaxInternalPairs; i++ {
		n.setKeyAt(i, InvalidKey)
	}
	SetNonLeaf(&n.buf)
}

// Read loads the page at pid from store, clears the dirty bit, and
// recomputes the pair count by scanning for the sentinel key.
func (n *Internal) Read(pid PageID, store pagestore.Store) error {
	if err := store.Read(pid, &n.buf); err != nil {
		return err
	}
	clearDirty(&n.buf)
	cnt := 0
	for cnt < MaxInternalPairs && n.keyAt(cnt) != InvalidKey {
		cnt++
	}
	setPairCount(&n.buf, cnt)
	return nil
}

// Write persists the page to pid and clears the dirty bit on success.
func (n *Internal) Write(pid PageID, store pagestore.Store) error {
	if err := store.Write(pid, &n.buf); err != nil {
		return err
	}
	clearDirty(&n.buf)
	return nil
}

func (n *Internal) keyAt(i int) Key {
	off := internalKeysOffset + i*sizeofKey
	return Key(int32(binary.LittleEndian.Uint32(n.buf[off : off+4])))
}

func (n *Internal) setKeyAt(i int, k Key) {
	off := internalKeysOffset + i*sizeofKey
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(int32(k)))
}

func (n *Internal) valueAt(i int) PageID {
	off := internalValuesOffset + i*sizeofPID
	return PageID(binary.LittleEndian.Uint32(n.buf[off : off+4]))
}

func (n *Internal) setValueAt(i int, v PageID) {
	off := internalValuesOffset + i*sizeofPID
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(v))
}

// PairCount returns the cached number of valid pairs.
func (n *Internal) PairCount() int { return GetPairCount(&n.buf) }

// GetPair returns the (key, child pid) pair at i.
func (n *Internal) GetPair(i int) (Key, PageID, error) {
	cnt := n.PairCount()
	if i < 0 || i >= cnt {
		return 0, InvalidPID, ErrNoSuchRecord
	}
	return n.keyAt(i), n.valueAt(i), nil
}

// GetNextPID returns the page's tail pointer.
func (n *Internal) GetNextPID() PageID { return GetNextPID(&n.buf) }

// SetNextPID sets the page's tail pointer.
func (n *Internal) SetNextPID(pid PageID) { SetNextPID(&n.buf, pid) }

// IndexForInsert returns the lowest index i such that keyAt(i) > key within
// the valid prefix, or PairCount() if none.
func (n *Internal) IndexForInsert(key Key) int {
	cnt := n.PairCount()
	return indexForInsert(cnt, key, n.keyAt)
}

// WillBeInsertedAtEnd reports whether key's ordered position equals PairCount().
func (n *Internal) WillBeInsertedAtEnd(key Key) bool {
	return n.IndexForInsert(key) == n.PairCount()
}

// InsertPair blindly inserts (k, v) in sorted order; it does not interpret
// the tail pointer at all. Returns ErrNodeFull if the node already holds
// MaxInternalPairs pairs.
func (n *Internal) InsertPair(k Key, v PageID) error {
	if k == InvalidKey {
		return nil
	}
	cnt := n.PairCount()
	if cnt >= MaxInternalPairs {
		return ErrNodeFull
	}
	idx := n.IndexForInsert(k)
	for i := cnt; i > idx; i-- {
		n.setKeyAt(i, n.keyAt(i-1))
		n.setValueAt(i, n.valueAt(i-1))
	}
	n.setKeyAt(idx, k)
	n.setValueAt(idx, v)
	setPairCount(&n.buf, cnt+1)
	setDirty(&n.buf)
	return nil
}

// UpdatePair overwrites the value stored under key k, or returns
// ErrNoSuchRecord if k is not present.
func (n *Internal) UpdatePair(k Key, v PageID) error {
	cnt := n.PairCount()
	idx := lowerBound(cnt, k, n.keyAt)
	if idx >= cnt || n.keyAt(idx) != k {
		return ErrNoSuchRecord
	}
	n.setValueAt(idx, v)
	setDirty(&n.buf)
	return nil
}

// InsertPairAndSplit inserts (k, v) and splits the combined D pairs between
// this node and sibling, which must be empty: sibling receives the upper
// half (favoring the larger side when D is even), sibling.next_pid inherits
// this node's old next_pid (the caller overwrites it), and
// outFirstKey is sibling's first key. This mirrors Leaf's split exactly;
// it carries no opinion about what the tail pointer means.
func (n *Internal) InsertPairAndSplit(k Key, v PageID, sibling *Internal) (outFirstKey Key, err error) {
	last := n.PairCount() // == MaxInternalPairs, since InsertPair must have failed with ErrNodeFull
	pivot := last / 2

	type pair struct {
		k Key
		v PageID
	}
	all := make([]pair, last+1)
	idx := n.IndexForInsert(k)
	for i := 0; i < idx; i++ {
		all[i] = pair{n.keyAt(i), n.valueAt(i)}
	}
	all[idx] = pair{k, v}
	for i := idx; i < last; i++ {
		all[i+1] = pair{n.keyAt(i), n.valueAt(i)}
	}

	nextPID := n.GetNextPID()
	n.ClearAll()
	for i := 0; i < pivot; i++ {
		n.setKeyAt(i, all[i].k)
		n.setValueAt(i, all[i].v)
	}
	setPairCount(&n.buf, pivot)
	n.SetNextPID(nextPID)
	setDirty(&n.buf)

	sibling.ClearAll()
	for i := pivot; i <= last; i++ {
		sibling.setKeyAt(i-pivot, all[i].k)
		sibling.setValueAt(i-pivot, all[i].v)
	}
	setPairCount(&sibling.buf, last+1-pivot)
	sibling.SetNextPID(nextPID)
	setDirty(&sibling.buf)

	return sibling.keyAt(0), nil
}
