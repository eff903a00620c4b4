package index

import (
	"errors"

	"github.com/btreeidx/bptreeindex/internal/pagestore"
	"github.com/btreeidx/bptreeindex/internal/rawnode"
)

// LeafNode is a typed view over a raw leaf page: sorted (key, RecordID)
// pairs plus a "next leaf" pointer, and a dataPid cache that lets Write
// elide redundant I/O.
type LeafNode struct {
	raw     rawnode.Leaf
	dataPid PageID
}

// NewLeafNode returns a view with no associated page yet.
func NewLeafNode() *LeafNode {
	return &LeafNode{dataPid: InvalidPID}
}

// Read loads pid as a leaf. If the page's leaf flag is clear, returns
// ErrWrongNodeType (dataPid is still updated, matching spec: "leave
// data_pid as loaded").
func (n *LeafNode) Read(pid PageID, store pagestore.Store) error {
	if err := n.raw.Read(pid, store); err != nil {
		return wrapIO("leaf read", err)
	}
	n.dataPid = pid
	if !rawnode.IsLeaf(n.raw.Bytes()) {
		return ErrWrongNodeType
	}
	return nil
}

// Write persists the page, unless dataPid == pid and the image is clean,
// in which case it is a no-op success (spec §8 property 6).
func (n *LeafNode) Write(pid PageID, store pagestore.Store) error {
	if n.dataPid == pid && !rawnode.IsDirty(n.raw.Bytes()) {
		return nil
	}
	if err := n.raw.Write(pid, store); err != nil {
		return wrapIO("leaf write", err)
	}
	n.dataPid = pid
	return nil
}

// InitEmpty resets the view to a brand-new empty leaf, ready to be written.
func (n *LeafNode) InitEmpty() {
	n.raw.ClearAll()
	n.dataPid = InvalidPID
}

// Insert delegates to the raw layer; propagates rawnode.ErrNodeFull.
func (n *LeafNode) Insert(k Key, rid RecordID) error {
	return n.raw.InsertPair(k, rid)
}

// InsertAndSplit delegates to the raw layer. The caller is responsible for
// allocating sibling's page, setting self.next_pid = siblingPid before
// writing, and persisting both nodes.
func (n *LeafNode) InsertAndSplit(k Key, rid RecordID, sibling *LeafNode) (firstKey Key, err error) {
	return n.raw.InsertPairAndSplit(k, rid, &sibling.raw)
}

// Locate performs a linear scan of the valid prefix, returning the smallest
// eid with keys[eid] >= searchKey. If none exists, returns
// (-1, ErrNoSuchRecord).
func (n *LeafNode) Locate(searchKey Key) (eid int, err error) {
	cnt := n.raw.PairCount()
	for i := 0; i < cnt; i++ {
		k, _, gerr := n.raw.GetPair(i)
		if gerr != nil {
			return -1, gerr
		}
		if k >= searchKey {
			return i, nil
		}
	}
	return -1, ErrNoSuchRecord
}

// ReadEntry returns the (key, RecordID) pair at eid.
func (n *LeafNode) ReadEntry(eid int) (Key, RecordID, error) {
	k, v, err := n.raw.GetPair(eid)
	if errors.Is(err, rawnode.ErrNoSuchRecord) {
		return 0, RecordID{}, ErrNoSuchRecord
	}
	return k, v, err
}

// NextPtr returns the page id of the next leaf in key order, or InvalidPID
// for the last leaf.
func (n *LeafNode) NextPtr() PageID { return n.raw.GetNextPID() }

// SetNextPtr sets the page id of the next leaf in key order.
func (n *LeafNode) SetNextPtr(pid PageID) { n.raw.SetNextPID(pid) }

// KeyCount returns the number of valid pairs currently held.
func (n *LeafNode) KeyCount() int { return n.raw.PairCount() }

// WillBeInsertedAtEnd reports whether key's ordered position equals KeyCount().
func (n *LeafNode) WillBeInsertedAtEnd(k Key) bool { return n.raw.WillBeInsertedAtEnd(k) }
