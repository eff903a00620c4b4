package index

import (
	"github.com/btreeidx/bptreeindex/internal/pagestore"
	"github.com/btreeidx/bptreeindex/internal/rawnode"
)

// InternalNode is a typed view over a raw internal page: sorted (key,
// child pid) pairs where values[i] holds every key < keys[i], plus a
// rightmost-child tail pointer holding every key >= the last key.
type InternalNode struct {
	raw     rawnode.Internal
	dataPid PageID
}

// NewInternalNode returns a view with no associated page yet.
func NewInternalNode() *InternalNode {
	return &InternalNode{dataPid: InvalidPID}
}

// Read loads pid as an internal node. If the page's leaf flag is set,
// returns ErrWrongNodeType.
func (n *InternalNode) Read(pid PageID, store pagestore.Store) error {
	if err := n.raw.Read(pid, store); err != nil {
		return wrapIO("internal read", err)
	}
	n.dataPid = pid
	if rawnode.IsLeaf(n.raw.Bytes()) {
		return ErrWrongNodeType
	}
	return nil
}

// Write persists the page, unless dataPid == pid and the image is clean.
func (n *InternalNode) Write(pid PageID, store pagestore.Store) error {
	if n.dataPid == pid && !rawnode.IsDirty(n.raw.Bytes()) {
		return nil
	}
	if err := n.raw.Write(pid, store); err != nil {
		return wrapIO("internal write", err)
	}
	n.dataPid = pid
	return nil
}

// LocateChildPtr scans the valid prefix; for the first index i with
// searchKey < keys[i] returns values[i]; if none, returns the rightmost
// pointer.
func (n *InternalNode) LocateChildPtr(searchKey Key) PageID {
	idx := n.raw.IndexForInsert(searchKey)
	if idx == n.raw.PairCount() {
		return n.raw.GetNextPID()
	}
	_, v, _ := n.raw.GetPair(idx)
	return v
}

// Insert records a new separator key and the pid of a newly created right
// sibling, per the tail-pointer representation (spec §4.3):
//
//   - If k belongs at the end, the current rightmost child becomes k's
//     left-hand partner and childPid becomes the new rightmost.
//   - If k belongs at index j, the old pair (old_key, old_pid) at j keeps
//     its key but its value becomes childPid (the new right sibling); a
//     fresh pair (k, old_pid) is inserted so the old child is still
//     reachable via the strictly-less-than side.
func (n *InternalNode) Insert(k Key, childPid PageID) error {
	if n.raw.WillBeInsertedAtEnd(k) {
		oldRightmost := n.raw.GetNextPID()
		if err := n.raw.InsertPair(k, oldRightmost); err != nil {
			return err
		}
		n.raw.SetNextPID(childPid)
		return nil
	}
	if n.raw.PairCount() >= rawnode.MaxInternalPairs {
		return rawnode.ErrNodeFull
	}
	j := n.raw.IndexForInsert(k)
	oldKey, oldPid, err := n.raw.GetPair(j)
	if err != nil {
		return err
	}
	if uerr := n.raw.UpdatePair(oldKey, childPid); uerr != nil {
		return uerr
	}
	return n.raw.InsertPair(k, oldPid)
}

// InsertAndSplit preserves the tail-pointer representation across a split.
// It promotes the sibling's first key to the caller (outMidKey,
// outMidPid); per the strict interpretation that key no longer appears in
// any descendant, and its paired child pointer becomes this node's new
// rightmost pointer.
func (n *InternalNode) InsertAndSplit(k Key, childPid PageID, sibling *InternalNode) (outMidKey Key, outMidPid PageID, err error) {
	var splitErr error
	if n.raw.WillBeInsertedAtEnd(k) {
		oldRightmost := n.raw.GetNextPID()
		_, splitErr = n.raw.InsertPairAndSplit(k, oldRightmost, &sibling.raw)
		if splitErr == nil {
			sibling.raw.SetNextPID(childPid)
		}
	} else {
		_, splitErr = n.raw.InsertPairAndSplit(k, childPid, &sibling.raw)
	}
	if splitErr != nil {
		return 0, InvalidPID, splitErr
	}

	midKey, midPid, gerr := sibling.raw.GetPair(0)
	if gerr != nil {
		return 0, InvalidPID, gerr
	}
	sibling.consumeFirstPair()
	n.raw.SetNextPID(midPid)
	return midKey, midPid, nil
}

// consumeFirstPair removes this node's first (key, value) pair, shifting
// the rest down by one. Used only by InsertAndSplit to strip the promoted
// separator out of the sibling (spec §4.3, §9 open question).
func (n *InternalNode) consumeFirstPair() {
	cnt := n.raw.PairCount()
	pairs := make([]struct {
		k Key
		v PageID
	}, cnt-1)
	for i := 1; i < cnt; i++ {
		k, v, _ := n.raw.GetPair(i)
		pairs[i-1] = struct {
			k Key
			v PageID
		}{k, v}
	}
	tail := n.raw.GetNextPID()
	n.raw.ClearAll()
	for _, p := range pairs {
		_ = n.raw.InsertPair(p.k, p.v)
	}
	n.raw.SetNextPID(tail)
}

// InitializeRoot rebuilds this page as a fresh two-child root: a single
// separator key with pid1 as its left child and pid2 as the rightmost
// child. Used only for root promotion (spec §4.4).
func (n *InternalNode) InitializeRoot(pid1 PageID, key Key, pid2 PageID) {
	n.raw.ClearAll()
	_ = n.raw.InsertPair(key, pid1)
	n.raw.SetNextPID(pid2)
}

// KeyCount returns the number of valid separator keys currently held.
func (n *InternalNode) KeyCount() int { return n.raw.PairCount() }

// InitEmpty resets the view to a brand-new empty internal node.
func (n *InternalNode) InitEmpty() {
	n.raw.ClearAll()
	n.dataPid = InvalidPID
}

// FirstChild returns values[0], the child locate_first always descends
// into on its way to the leftmost leaf.
func (n *InternalNode) FirstChild() (PageID, error) {
	_, v, err := n.raw.GetPair(0)
	return v, err
}
