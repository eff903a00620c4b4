package index

import "github.com/btreeidx/bptreeindex/internal/rawnode"

// Key is the index's 32-bit search key type.
type Key = rawnode.Key

// PageID names a page in the backing store.
type PageID = rawnode.PageID

// RecordID is the opaque identifier a leaf entry points at in the external
// record store.
type RecordID = rawnode.RecordID

// InvalidPID names "no page".
const InvalidPID = rawnode.InvalidPID

// Cursor names one entry in one leaf: a page id and an entry index within
// it. It is the only mutable iteration state the index exposes, and is
// invalidated by any insert that happens between a locate and a
// read_forward (splits and root promotion can move entries between pages).
type Cursor struct {
	PID PageID
	EID int
}
