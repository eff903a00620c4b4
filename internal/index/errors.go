// Package index implements the typed node views and tree operations that
// sit on top of the raw page layout in rawnode: LeafNode and InternalNode
// give the raw image its key/value semantics, and BTreeIndex drives
// recursive-descent insert, point lookup, and forward range scan across
// them.
package index

import (
	"errors"
	"fmt"
)

// Structural errors: programmer or on-disk corruption faults, surfaced
// immediately rather than retried.
var (
	ErrWrongNodeType = errors.New("index: wrong node type")
	ErrInvalidCursor = errors.New("index: invalid cursor")
)

// Expected control signals.
var (
	ErrNoSuchRecord = errors.New("index: no such record")
	ErrEndOfTree    = errors.New("index: end of tree")
)

// Resource errors: propagated to the caller as-is; the tree's in-memory
// state may reflect a partial write.
var (
	ErrIO          = errors.New("index: io error")
	ErrOutOfMemory = errors.New("index: out of memory")
)

// errNeedsSplit is the private control signal insertRec uses to propagate a
// split up the recursion; it never escapes BTreeIndex.Insert.
type errNeedsSplit struct {
	siblingPID      PageID
	siblingFirstKey Key
}

func (e *errNeedsSplit) Error() string {
	return fmt.Sprintf("index: needs split (sibling %d, first key %d)", e.siblingPID, e.siblingFirstKey)
}

// wrapIO wraps a lower-layer store error as an IO failure, per the spec's
// resource-error taxonomy. The result satisfies errors.Is(err, ErrIO).
func wrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("index: %s: %w: %w", op, ErrIO, err)
}
