package rawnode

import (
	"encoding/binary"
	"fmt"

	"github.com/btreeidx/bptreeindex/internal/pagestore"
)

// DegreeLeaf is D for leaf pages: D = floor(PageSize / (2 * max(sizeof(int),
// sizeof(pid), sizeof(Key), sizeof(RecordID)))).
const DegreeLeaf = pagestore.PageSize / (2 * recordIDSize)

// MaxLeafPairs is the most (key, RecordID) pairs a leaf page can hold.
const MaxLeafPairs = DegreeLeaf - 1

const (
	leafValuesOffset = 0
	leafKeysOffset   = leafValuesOffset + MaxLeafPairs*recordIDSize
)

func init() {
	// Compile-time-equivalent sanity check: the layout must fit exactly in
	// one page. A mismatch here means the constants above were miscomputed.
	used := leafKeysOffset + MaxLeafPairs*sizeofKey + trailerSize
	if used > pagestore.PageSize {
		panic(fmt.Sprintf("rawnode: leaf layout overflows page: %d > %d", used, pagestore.PageSize))
	}
}

// ErrNodeFull is returned by InsertPair when the node already holds D-1 pairs.
var ErrNodeFull = fmt.Errorf("rawnode: node full")

// ErrNoSuchRecord is returned by GetPair/UpdatePair when the slot is empty
// or absent.
var ErrNoSuchRecord = fmt.Errorf("rawnode: no such record")

// Leaf is the raw, byte-exact image of a B+tree leaf page: sorted (key,
// RecordID) pairs plus a next-leaf tail pointer.
type Leaf struct {
	buf pagestore.Page
}

// Bytes exposes the underlying page image for Store I/O.
func (l *Leaf) Bytes() *pagestore.Page { return &l.buf }

// ClearAll resets the page to an empty leaf with no pairs and no next leaf.
func (l *Leaf) ClearAll() {
	l.buf = pagestore.Page{}
	clearTrailer(&l.buf)
	for i := 0; i < MaxLeafPairs; i++ {
		l.setKeyAt(i, InvalidKey)
	}
	SetLeaf(&l.buf)
}

// Read loads the page at pid from store, clears the dirty bit, and
// recomputes the pair count by scanning for the sentinel key.
func (l *Leaf) Read(pid PageID, store pagestore.Store) error {
	if err := store.Read(pid, &l.buf); err != nil {
		return err
	}
	clearDirty(&l.buf)
	n := 0
	for n < MaxLeafPairs && l.keyAt(n) != InvalidKey {
		n++
	}
	setPairCount(&l.buf, n)
	return nil
}

// Write persists the page to pid and clears the dirty bit on success.
func (l *Leaf) Write(pid PageID, store pagestore.Store) error {
	if err := store.Write(pid, &l.buf); err != nil {
		return err
	}
	clearDirty(&l.buf)
	return nil
}

func (l *Leaf) keyAt(i int) Key {
	off := leafKeysOffset + i*sizeofKey
	return Key(int32(binary.LittleEndian.Uint32(l.buf[off : off+4])))
}

func (l *Leaf) setKeyAt(i int, k Key) {
	off := leafKeysOffset + i*sizeofKey
	binary.LittleEndian.PutUint32(l.buf[off:off+4], uint32(int32(k)))
}

func (l *Leaf) valueAt(i int) RecordID {
	off := leafValuesOffset + i*recordIDSize
	return RecordID{
		PageID: int32(binary.LittleEndian.Uint32(l.buf[off : off+4])),
		SlotID: int32(binary.LittleEndian.Uint32(l.buf[off+4 : off+8])),
	}
}

func (l *Leaf) setValueAt(i int, v RecordID) {
	off := leafValuesOffset + i*recordIDSize
	binary.LittleEndian.PutUint32(l.buf[off:off+4], uint32(v.PageID))
	binary.LittleEndian.PutUint32(l.buf[off+4:off+8], uint32(v.SlotID))
}

// PairCount returns the cached number of valid pairs.
func (l *Leaf) PairCount() int { return GetPairCount(&l.buf) }

// GetPair returns the (key, value) pair at i, or ErrNoSuchRecord if i is
// past the valid prefix or names a sentinel slot.
func (l *Leaf) GetPair(i int) (Key, RecordID, error) {
	n := l.PairCount()
	if i < 0 || i >= n {
		return 0, RecordID{}, ErrNoSuchRecord
	}
	k := l.keyAt(i)
	if k == InvalidKey {
		return 0, RecordID{}, ErrNoSuchRecord
	}
	return k, l.valueAt(i), nil
}

// IndexForInsert returns the lowest index i such that keyAt(i) > key within
// the valid prefix, or PairCount() if none.
func (l *Leaf) IndexForInsert(key Key) int {
	n := l.PairCount()
	return indexForInsert(n, key, l.keyAt)
}

// WillBeInsertedAtEnd reports whether key's ordered position equals PairCount().
func (l *Leaf) WillBeInsertedAtEnd(key Key) bool {
	return l.IndexForInsert(key) == l.PairCount()
}

// InsertPair inserts (k, v) in sorted order. A key equal to InvalidKey is
// silently rejected (success, no-op), matching the sentinel-key invariant.
// Returns ErrNodeFull if the node already holds MaxLeafPairs pairs.
func (l *Leaf) InsertPair(k Key, v RecordID) error {
	if k == InvalidKey {
		return nil
	}
	n := l.PairCount()
	if n >= MaxLeafPairs {
		return ErrNodeFull
	}
	idx := l.IndexForInsert(k)
	for i := n; i > idx; i-- {
		l.setKeyAt(i, l.keyAt(i-1))
		l.setValueAt(i, l.valueAt(i-1))
	}
	l.setKeyAt(idx, k)
	l.setValueAt(idx, v)
	setPairCount(&l.buf, n+1)
	setDirty(&l.buf)
	return nil
}

// UpdatePair overwrites the value stored under key k, or returns
// ErrNoSuchRecord if k is not present.
func (l *Leaf) UpdatePair(k Key, v RecordID) error {
	n := l.PairCount()
	idx := lowerBound(n, k, l.keyAt)
	if idx >= n || l.keyAt(idx) != k {
		return ErrNoSuchRecord
	}
	l.setValueAt(idx, v)
	setDirty(&l.buf)
	return nil
}

// InsertPairAndSplit inserts (k, v) and splits the combined D pairs between
// this node and sibling, which must be empty. sibling receives the upper
// half (favoring the larger side when D is even); the caller is
// responsible for wiring next-leaf pointers and persisting both nodes.
// outFirstKey is the first key now held by sibling.
func (l *Leaf) InsertPairAndSplit(k Key, v RecordID, sibling *Leaf) (outFirstKey Key, err error) {
	last := l.PairCount() // == MaxLeafPairs, since InsertPair must have failed with ErrNodeFull
	pivot := last / 2

	type pair struct {
		k Key
		v RecordID
	}
	all := make([]pair, last+1)
	idx := l.IndexForInsert(k)
	for i := 0; i < idx; i++ {
		all[i] = pair{l.keyAt(i), l.valueAt(i)}
	}
	all[idx] = pair{k, v}
	for i := idx; i < last; i++ {
		all[i+1] = pair{l.keyAt(i), l.valueAt(i)}
	}

	nextPID := GetNextPID(&l.buf)
	l.ClearAll()
	for i := 0; i < pivot; i++ {
		l.setKeyAt(i, all[i].k)
		l.setValueAt(i, all[i].v)
	}
	setPairCount(&l.buf, pivot)
	SetNextPID(&l.buf, nextPID) // caller overwrites with sibling's pid
	setDirty(&l.buf)

	sibling.ClearAll()
	for i := pivot; i <= last; i++ {
		sibling.setKeyAt(i-pivot, all[i].k)
		sibling.setValueAt(i-pivot, all[i].v)
	}
	setPairCount(&sibling.buf, last+1-pivot)
	SetNextPID(&sibling.buf, nextPID)
	setDirty(&sibling.buf)

	return sibling.keyAt(0), nil
}

// GetNextPID returns the page id of the next leaf in key order, or
// InvalidPID if this is the last leaf.
func (l *Leaf) GetNextPID() PageID { return GetNextPID(&l.buf) }

// SetNextPID sets the page id of the next leaf in key order.
func (l *Leaf) SetNextPID(pid PageID) { SetNextPID(&l.buf, pid) }
