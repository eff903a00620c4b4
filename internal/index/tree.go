package index

import (
	"errors"
	"log/slog"

	"github.com/btreeidx/bptreeindex/internal/pagestore"
	"github.com/btreeidx/bptreeindex/internal/rawnode"
)

// BTreeIndex is the disk-resident B+tree: a single-threaded, synchronous
// map from 32-bit keys to record identifiers, built out of LeafNode and
// InternalNode pages over a pagestore.Store. The root always lives at
// page 0; root_pid is InvalidPID while the index is closed.
type BTreeIndex struct {
	store   pagestore.Store
	rootPid PageID
	closer  interface{ Close() error }
	log     *slog.Logger
}

// Open wraps an already-opened Store. If the store is empty (EndPID() ==
// 0), page 0 is initialised as an empty leaf; otherwise page 0 is left as
// found.
func Open(store pagestore.Store) (*BTreeIndex, error) {
	t := &BTreeIndex{store: store, rootPid: InvalidPID, log: slog.Default()}
	if store.EndPID() == 0 {
		leaf := NewLeafNode()
		leaf.InitEmpty()
		if err := leaf.Write(0, t.store); err != nil {
			return nil, err
		}
		t.log.Debug("initialised empty root leaf")
	}
	t.rootPid = 0
	return t, nil
}

// OpenFile opens (creating if necessary) a file-backed index at path, with
// cacheSize pages of LRU read cache.
func OpenFile(path string, cacheSize int) (*BTreeIndex, error) {
	fs, err := pagestore.OpenFileStore(path, cacheSize)
	if err != nil {
		return nil, err
	}
	t, err := Open(fs)
	if err != nil {
		fs.Close()
		return nil, err
	}
	t.closer = fs
	return t, nil
}

// SetLogger overrides the default logger (slog.Default()) used for descent,
// split, and root-promotion Debug events and recoverable store-error Warn
// events.
func (t *BTreeIndex) SetLogger(l *slog.Logger) {
	if l != nil {
		t.log = l
	}
}

// Close releases the underlying store, if this BTreeIndex opened it, and
// marks the tree closed.
func (t *BTreeIndex) Close() error {
	t.rootPid = InvalidPID
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// RootPid returns the current root page id (always 0 while open, per
// spec §8 property 4).
func (t *BTreeIndex) RootPid() PageID { return t.rootPid }

func peekIsLeaf(pid PageID, store pagestore.Store) (bool, error) {
	var buf pagestore.Page
	if err := store.Read(pid, &buf); err != nil {
		return false, err
	}
	return rawnode.IsLeaf(&buf), nil
}

// Locate starts at the root and descends to the leaf that would hold
// searchKey, returning the smallest entry with key >= searchKey.
// Returns ErrNoSuchRecord if the search falls past the last key of the
// rightmost leaf.
func (t *BTreeIndex) Locate(searchKey Key) (Cursor, error) {
	pid := t.rootPid
	for {
		isLeaf, err := peekIsLeaf(pid, t.store)
		if err != nil {
			wrapped := wrapIO("locate", err)
			t.log.Warn("locate: store read failed", "pid", pid, "err", wrapped)
			return Cursor{}, wrapped
		}
		if isLeaf {
			leaf := NewLeafNode()
			if err := leaf.Read(pid, t.store); err != nil {
				return Cursor{}, err
			}
			eid, lerr := leaf.Locate(searchKey)
			if lerr != nil {
				// Every key in this leaf is below searchKey; the next leaf,
				// if any, starts at or above it.
				if errors.Is(lerr, ErrNoSuchRecord) && leaf.NextPtr() != InvalidPID {
					return Cursor{PID: leaf.NextPtr(), EID: 0}, nil
				}
				return Cursor{PID: pid, EID: -1}, lerr
			}
			return Cursor{PID: pid, EID: eid}, nil
		}
		node := NewInternalNode()
		if err := node.Read(pid, t.store); err != nil {
			return Cursor{}, err
		}
		next := node.LocateChildPtr(searchKey)
		t.log.Debug("locate: descend", "key", searchKey, "from", pid, "to", next)
		pid = next
	}
}

// LocateFirst descends always taking the leftmost child until a leaf.
// Returns ErrEndOfTree if that leaf is empty.
func (t *BTreeIndex) LocateFirst() (Cursor, error) {
	pid := t.rootPid
	for {
		isLeaf, err := peekIsLeaf(pid, t.store)
		if err != nil {
			wrapped := wrapIO("locate_first", err)
			t.log.Warn("locate_first: store read failed", "pid", pid, "err", wrapped)
			return Cursor{}, wrapped
		}
		if isLeaf {
			leaf := NewLeafNode()
			if err := leaf.Read(pid, t.store); err != nil {
				return Cursor{}, err
			}
			if leaf.KeyCount() == 0 {
				return Cursor{}, ErrEndOfTree
			}
			return Cursor{PID: pid, EID: 0}, nil
		}
		node := NewInternalNode()
		if err := node.Read(pid, t.store); err != nil {
			return Cursor{}, err
		}
		child, cerr := node.FirstChild()
		if cerr != nil {
			return Cursor{}, cerr
		}
		pid = child
	}
}

// ReadForward reads the entry cur names, advances cur, and returns the
// entry. On exhausting a leaf it follows next_pid and retries; returns
// ErrEndOfTree once the chain runs out, or ErrInvalidCursor if cur no
// longer names a leaf.
func (t *BTreeIndex) ReadForward(cur *Cursor) (Key, RecordID, error) {
	for {
		leaf := NewLeafNode()
		if err := leaf.Read(cur.PID, t.store); err != nil {
			if errors.Is(err, ErrWrongNodeType) {
				return 0, RecordID{}, ErrInvalidCursor
			}
			return 0, RecordID{}, err
		}
		k, rid, err := leaf.ReadEntry(cur.EID)
		if err == nil {
			cur.EID++
			return k, rid, nil
		}
		if errors.Is(err, ErrNoSuchRecord) {
			next := leaf.NextPtr()
			cur.PID = next
			cur.EID = 0
			if next == InvalidPID {
				return 0, RecordID{}, ErrEndOfTree
			}
			continue
		}
		return 0, RecordID{}, ErrInvalidCursor
	}
}

// Insert drives the recursive descent and, if the root itself split,
// promotes it: the old root's contents move to a freshly allocated page,
// and a new two-child internal root is written to page 0, so the root
// always lives there (spec §4.4).
func (t *BTreeIndex) Insert(key Key, rid RecordID) error {
	split, err := t.insertRec(t.rootPid, key, rid)
	if err != nil {
		return err
	}
	if split == nil {
		return nil
	}

	newOldRootPid := t.store.EndPID()
	var buf pagestore.Page
	if err := t.store.Read(0, &buf); err != nil {
		wrapped := wrapIO("root promotion read", err)
		t.log.Warn("insert: root promotion read failed", "err", wrapped)
		return wrapped
	}
	if err := t.store.Write(newOldRootPid, &buf); err != nil {
		wrapped := wrapIO("root promotion relocate", err)
		t.log.Warn("insert: root promotion relocate failed", "err", wrapped)
		return wrapped
	}

	newRoot := NewInternalNode()
	newRoot.InitializeRoot(newOldRootPid, split.siblingFirstKey, split.siblingPID)
	if err := newRoot.Write(0, t.store); err != nil {
		return err
	}
	t.log.Debug("insert: root promoted", "old_root_relocated_to", newOldRootPid, "sibling", split.siblingPID, "promoted_key", split.siblingFirstKey)
	return nil
}

// insertRec is the recursive descent: Ok is (nil, nil); a split that must
// propagate up is (*errNeedsSplit, nil); any other error is a genuine
// failure. Each level's node view is released before recursing into its
// child, bounding stack memory during deep recursion (spec §9).
func (t *BTreeIndex) insertRec(pid PageID, key Key, rid RecordID) (*errNeedsSplit, error) {
	isLeaf, err := peekIsLeaf(pid, t.store)
	if err != nil {
		wrapped := wrapIO("insert", err)
		t.log.Warn("insert: store read failed", "pid", pid, "err", wrapped)
		return nil, wrapped
	}

	if isLeaf {
		return t.insertLeaf(pid, key, rid)
	}
	return t.insertInternal(pid, key, rid)
}

func (t *BTreeIndex) insertLeaf(pid PageID, key Key, rid RecordID) (*errNeedsSplit, error) {
	leaf := NewLeafNode()
	if err := leaf.Read(pid, t.store); err != nil {
		return nil, err
	}

	if err := leaf.Insert(key, rid); err != nil {
		if !errors.Is(err, rawnode.ErrNodeFull) {
			return nil, err
		}
		siblingPid := t.store.EndPID()
		sibling := NewLeafNode()
		sibling.InitEmpty()
		firstKey, serr := leaf.InsertAndSplit(key, rid, sibling)
		if serr != nil {
			return nil, serr
		}
		sibling.SetNextPtr(leaf.NextPtr())
		leaf.SetNextPtr(siblingPid)
		if err := leaf.Write(pid, t.store); err != nil {
			return nil, err
		}
		if err := sibling.Write(siblingPid, t.store); err != nil {
			return nil, err
		}
		t.log.Debug("insert: leaf split", "pid", pid, "sibling", siblingPid, "promoted_key", firstKey)
		return &errNeedsSplit{siblingPID: siblingPid, siblingFirstKey: firstKey}, nil
	}

	if err := leaf.Write(pid, t.store); err != nil {
		return nil, err
	}
	return nil, nil
}

func (t *BTreeIndex) insertInternal(pid PageID, key Key, rid RecordID) (*errNeedsSplit, error) {
	node := NewInternalNode()
	if err := node.Read(pid, t.store); err != nil {
		return nil, err
	}
	childPid := node.LocateChildPtr(key)

	split, err := t.insertRec(childPid, key, rid)
	if err != nil {
		return nil, err
	}
	if split == nil {
		return nil, nil
	}

	// Re-read: the buffer above was dropped across the recursive call.
	node = NewInternalNode()
	if err := node.Read(pid, t.store); err != nil {
		return nil, err
	}

	if err := node.Insert(split.siblingFirstKey, split.siblingPID); err != nil {
		if !errors.Is(err, rawnode.ErrNodeFull) {
			return nil, err
		}
		siblingPid := t.store.EndPID()
		sibling := NewInternalNode()
		sibling.InitEmpty()
		midKey, _, serr := node.InsertAndSplit(split.siblingFirstKey, split.siblingPID, sibling)
		if serr != nil {
			return nil, serr
		}
		if err := node.Write(pid, t.store); err != nil {
			return nil, err
		}
		if err := sibling.Write(siblingPid, t.store); err != nil {
			return nil, err
		}
		t.log.Debug("insert: internal split", "pid", pid, "sibling", siblingPid, "promoted_key", midKey)
		return &errNeedsSplit{siblingPID: siblingPid, siblingFirstKey: midKey}, nil
	}

	if err := node.Write(pid, t.store); err != nil {
		return nil, err
	}
	return nil, nil
}
