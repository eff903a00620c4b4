// Package rawnode implements the byte-exact, page-sized node image shared
// by B+tree leaf and internal pages: a flags word, a keys array, a parallel
// values array, a tail pointer, and a cached pair count, with the trailer
// pinned to the same byte offsets regardless of node kind so that a raw
// page can be read before its kind is known.
//
// Degree is derived at compile time from PageSize and the widths the spec
// specifies: each node holds at most D-1 (key, value) pairs where
// D = floor(PageSize / (2 * max(sizeof(int), sizeof(pid), sizeof(Key),
// sizeof(Value)))). Leaf and internal nodes have different Value widths
// (RecordID vs PageID) and therefore different D, but both layouts are
// padded so the node always occupies exactly PageSize bytes and the
// trailer always lands on the page's last 8 bytes.
package rawnode

import (
	"encoding/binary"
	"math"

	"github.com/btreeidx/bptreeindex/internal/pagestore"
)

// Key is the index's 32-bit search key type.
type Key int32

// InvalidKey is the sentinel marking an unused slot (spec §6: INT_MIN).
const InvalidKey Key = math.MinInt32

// PageID is re-exported for convenience so callers of this package rarely
// need to import pagestore directly just to name a page.
type PageID = pagestore.PageID

// InvalidPID names "no page" (spec §6: INVALID_PID = -1, i.e. all bits set
// in the underlying unsigned representation).
const InvalidPID = pagestore.InvalidPageID

// RecordID is the opaque identifier a leaf value points at in the external
// record store: a heap page id and a slot within it.
type RecordID struct {
	PageID int32
	SlotID int32
}

const recordIDSize = 8 // two int32 fields

// sizeofInt mirrors the C `sizeof(int)` the spec's degree formula uses —
// not Go's platform-dependent int, which is 8 bytes on amd64/arm64 and
// would halve the internal degree. At 4 bytes it never exceeds the other
// widths, so DegreeLeaf and DegreeInternal are computed from recordIDSize
// and sizeofPID alone.
const sizeofInt = 4
const sizeofPID = 4
const sizeofKey = 4

const trailerSize = 8 // next_pid(4) + pair_count(2) + flags(2)

// NextPIDOffset, PairCountOffset, and FlagsOffset are identical for leaf
// and internal pages: both layouts are sized so the trailer always lands
// on the page's final 8 bytes.
const (
	NextPIDOffset   = pagestore.PageSize - trailerSize
	PairCountOffset = pagestore.PageSize - 4
	FlagsOffset     = pagestore.PageSize - 2
)

// Flag bits, matching the original BTRawNode's flags word.
const (
	flagDirty uint16 = 1 << 0
	flagLeaf  uint16 = 1 << 1
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ─── trailer accessors, shared by both node kinds ──────────────────────────

func getFlags(buf *pagestore.Page) uint16 {
	return binary.LittleEndian.Uint16(buf[FlagsOffset : FlagsOffset+2])
}

func setFlags(buf *pagestore.Page, f uint16) {
	binary.LittleEndian.PutUint16(buf[FlagsOffset:FlagsOffset+2], f)
}

// IsDirty reports whether the in-memory image differs from what was last
// read from or written to disk.
func IsDirty(buf *pagestore.Page) bool {
	return getFlags(buf)&flagDirty != 0
}

func setDirty(buf *pagestore.Page) {
	setFlags(buf, getFlags(buf)|flagDirty)
}

func clearDirty(buf *pagestore.Page) {
	setFlags(buf, getFlags(buf)&^flagDirty)
}

// IsLeaf reports whether the page's leaf bit is set.
func IsLeaf(buf *pagestore.Page) bool {
	return getFlags(buf)&flagLeaf != 0
}

// SetLeaf marks the page as a leaf node, dirtying it iff the bit changed.
func SetLeaf(buf *pagestore.Page) {
	if IsLeaf(buf) {
		return
	}
	setFlags(buf, getFlags(buf)|flagLeaf)
	setDirty(buf)
}

// SetNonLeaf marks the page as an internal node, dirtying it iff the bit changed.
func SetNonLeaf(buf *pagestore.Page) {
	if !IsLeaf(buf) {
		return
	}
	setFlags(buf, getFlags(buf)&^flagLeaf)
	setDirty(buf)
}

// GetPairCount returns the cached number of valid (key, value) pairs.
func GetPairCount(buf *pagestore.Page) int {
	return int(binary.LittleEndian.Uint16(buf[PairCountOffset : PairCountOffset+2]))
}

func setPairCount(buf *pagestore.Page, n int) {
	binary.LittleEndian.PutUint16(buf[PairCountOffset:PairCountOffset+2], uint16(n))
}

// GetNextPID returns the page's tail pointer (next leaf, or rightmost child
// for an internal node).
func GetNextPID(buf *pagestore.Page) PageID {
	return PageID(binary.LittleEndian.Uint32(buf[NextPIDOffset : NextPIDOffset+4]))
}

// SetNextPID sets the page's tail pointer, dirtying it iff the value changed.
func SetNextPID(buf *pagestore.Page, pid PageID) {
	if GetNextPID(buf) == pid {
		return
	}
	binary.LittleEndian.PutUint32(buf[NextPIDOffset:NextPIDOffset+4], uint32(pid))
	setDirty(buf)
}

// clearTrailer resets flags, pair count, and next pid; used by ClearAll.
func clearTrailer(buf *pagestore.Page) {
	setFlags(buf, 0)
	setPairCount(buf, 0)
	binary.LittleEndian.PutUint32(buf[NextPIDOffset:NextPIDOffset+4], uint32(InvalidPID))
}

// indexForInsert returns the lowest index i in [0, n) such that
// getKey(i) > key, or n if no such index exists. Tolerates n == 0 without
// invoking getKey, per spec §9 (the source's fragile base case).
func indexForInsert(n int, key Key, getKey func(int) Key) int {
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if getKey(mid) <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// lowerBound returns the lowest index i in [0, n) such that getKey(i) >=
// key, or n if no such index exists.
func lowerBound(n int, key Key, getKey func(int) Key) int {
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if getKey(mid) < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
