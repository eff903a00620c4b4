package rawnode

import "testing"

func TestInternalInsertPairBlindShift(t *testing.T) {
	var n Internal
	n.ClearAll()
	n.SetNextPID(PageID(100))

	for i, k := range []Key{5, 1, 3} {
		if err := n.InsertPair(k, PageID(i)); err != nil {
			t.Fatalf("InsertPair(%d): %v", k, err)
		}
	}
	if n.PairCount() != 3 {
		t.Fatalf("PairCount() = %d, want 3", n.PairCount())
	}
	k0, _, _ := n.GetPair(0)
	k1, _, _ := n.GetPair(1)
	k2, _, _ := n.GetPair(2)
	if k0 != 1 || k1 != 3 || k2 != 5 {
		t.Fatalf("keys after inserts = %d,%d,%d, want 1,3,5", k0, k1, k2)
	}
	// InsertPair never touches next_pid
	if n.GetNextPID() != 100 {
		t.Fatalf("next_pid = %d, want untouched 100", n.GetNextPID())
	}
}

func TestInternalInsertPairAndSplitMirrorsLeaf(t *testing.T) {
	var n, sibling Internal
	n.ClearAll()
	for i := 0; i < MaxInternalPairs; i++ {
		if err := n.InsertPair(Key(i*2), PageID(i)); err != nil {
			t.Fatal(err)
		}
	}
	n.SetNextPID(PageID(9000))

	firstKey, err := n.InsertPairAndSplit(Key(MaxInternalPairs*2), PageID(12345), &sibling)
	if err != nil {
		t.Fatalf("InsertPairAndSplit: %v", err)
	}
	total := n.PairCount() + sibling.PairCount()
	if total != MaxInternalPairs+1 {
		t.Fatalf("total pairs after split = %d, want %d", total, MaxInternalPairs+1)
	}
	if firstKey != sibling.keyAt(0) {
		t.Fatalf("firstKey = %d, want sibling's first key", firstKey)
	}
	if sibling.GetNextPID() != 9000 {
		t.Fatalf("sibling.next_pid = %d, want inherited 9000", sibling.GetNextPID())
	}
}

func TestInternalIndexForInsertToleratesEmptyNode(t *testing.T) {
	var n Internal
	n.ClearAll()
	if got := n.IndexForInsert(7); got != 0 {
		t.Fatalf("IndexForInsert on empty node = %d, want 0", got)
	}
}

func TestInternalInsertFullReturnsNodeFull(t *testing.T) {
	var n Internal
	n.ClearAll()
	for i := 0; i < MaxInternalPairs; i++ {
		if err := n.InsertPair(Key(i), PageID(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := n.InsertPair(Key(MaxInternalPairs), PageID(0)); err != ErrNodeFull {
		t.Fatalf("InsertPair on full node = %v, want ErrNodeFull", err)
	}
}
