// Package baseline wraps Pebble, CockroachDB's LSM storage engine, behind a
// minimal interface so btreebench can report B+tree numbers alongside an
// LSM baseline over the same integer-key workload.
package baseline

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// LSM is a Pebble-backed point store keyed by the index's 32-bit key.
type LSM struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database at dir.
func Open(dir string) (*LSM, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("baseline: open: %w", err)
	}
	return &LSM{db: db}, nil
}

// Close shuts Pebble down, flushing any in-memory state.
func (l *LSM) Close() error { return l.db.Close() }

// Insert stores value under key.
func (l *LSM) Insert(key int32, value []byte) error {
	return l.db.Set(encodeKey(key), value, pebble.NoSync)
}

// Get retrieves the value for key, or nil if absent.
func (l *LSM) Get(key int32) ([]byte, error) {
	val, closer, err := l.db.Get(encodeKey(key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("baseline: get: %w", err)
	}
	out := make([]byte, len(val))
	copy(out, val)
	closer.Close()
	return out, nil
}

// Scan calls fn for every key in [start, end], in ascending order, until fn
// returns false or the range is exhausted.
func (l *LSM) Scan(start, end int32, fn func(key int32, value []byte) bool) error {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: encodeKey(start),
		UpperBound: encodeKeyExclusive(end),
	})
	if err != nil {
		return fmt.Errorf("baseline: scan: %w", err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		k := int32(binary.BigEndian.Uint32(iter.Key()) ^ 0x80000000)
		if !fn(k, iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// encodeKey encodes a key as a big-endian 4-byte slice with the sign bit
// flipped; this preserves signed sort order, which Pebble relies on for
// range iteration.
func encodeKey(k int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(k)^0x80000000)
	return b
}

func encodeKeyExclusive(k int32) []byte {
	return encodeKey(k + 1)
}
