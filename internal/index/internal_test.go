package index

import (
	"testing"

	"github.com/btreeidx/bptreeindex/internal/rawnode"
)

func TestInternalNodeInsertAtEnd(t *testing.T) {
	n := NewInternalNode()
	n.InitEmpty()
	n.raw.SetNextPID(PageID(1)) // lone initial child

	if err := n.Insert(10, PageID(2)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	// key 10 now separates child 1 (left) from child 2 (rightmost)
	k, v, err := n.raw.GetPair(0)
	if err != nil || k != 10 || v != 1 {
		t.Fatalf("pair 0 = (%d, %d, %v), want (10, 1, nil)", k, v, err)
	}
	if n.raw.GetNextPID() != 2 {
		t.Fatalf("next_pid = %d, want 2", n.raw.GetNextPID())
	}
}

func TestInternalNodeInsertInMiddle(t *testing.T) {
	n := NewInternalNode()
	n.InitEmpty()
	n.raw.SetNextPID(PageID(1)) // lone initial child
	// after this, pair 0 = (10 -> child1), rightmost = child2
	if err := n.Insert(10, PageID(2)); err != nil {
		t.Fatal(err)
	}
	// now insert key 5 with a brand-new right sibling child3: 5 lands
	// before 10, so child1 (old owner of "<10") must now own "<5", and
	// child3 becomes the owner of "[5,10)".
	if err := n.Insert(5, PageID(3)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n.KeyCount() != 2 {
		t.Fatalf("KeyCount() = %d, want 2", n.KeyCount())
	}
	k0, v0, _ := n.raw.GetPair(0)
	k1, v1, _ := n.raw.GetPair(1)
	if k0 != 5 || v0 != 1 {
		t.Fatalf("pair 0 = (%d,%d), want (5,1)", k0, v0)
	}
	if k1 != 10 || v1 != 3 {
		t.Fatalf("pair 1 = (%d,%d), want (10,3)", k1, v1)
	}
	if n.raw.GetNextPID() != 2 {
		t.Fatalf("next_pid = %d, want unchanged 2", n.raw.GetNextPID())
	}
}

func TestInternalNodeLocateChildPtr(t *testing.T) {
	// Build three boundaries (10, 20, 30) by always inserting at the
	// trailing edge: child 99 ends up owning <10, child 1 owns [10,20),
	// child 2 owns [20,30), and the final rightmost (child 3) owns >=30.
	n := NewInternalNode()
	n.InitEmpty()
	n.raw.SetNextPID(PageID(99))
	for _, kv := range []struct {
		k Key
		v PageID
	}{{10, 1}, {20, 2}, {30, 3}} {
		if err := n.Insert(kv.k, kv.v); err != nil {
			t.Fatal(err)
		}
	}
	cases := []struct {
		search Key
		want   PageID
	}{
		{5, 99},
		{10, 1},
		{15, 1},
		{25, 2},
		{35, 3},
	}
	for _, c := range cases {
		if got := n.LocateChildPtr(c.search); got != c.want {
			t.Fatalf("LocateChildPtr(%d) = %d, want %d", c.search, got, c.want)
		}
	}
}

func TestInternalNodeInsertAndSplitPromotesStrictly(t *testing.T) {
	n := NewInternalNode()
	n.InitEmpty()
	n.raw.SetNextPID(PageID(10000))
	for i := 0; i < rawnode.MaxInternalPairs; i++ {
		if err := n.Insert(Key(i*2), PageID(i)); err != nil {
			t.Fatal(err)
		}
	}

	sibling := NewInternalNode()
	sibling.InitEmpty()
	midKey, midPid, err := n.InsertAndSplit(Key(rawnode.MaxInternalPairs*2), PageID(99999), sibling)
	if err != nil {
		t.Fatalf("InsertAndSplit: %v", err)
	}

	// Strict interpretation: the promoted key must not reappear in either
	// child's key array.
	for i := 0; i < n.KeyCount(); i++ {
		if k, _, _ := n.raw.GetPair(i); k == midKey {
			t.Fatalf("promoted key %d still present in left node at %d", midKey, i)
		}
	}
	for i := 0; i < sibling.KeyCount(); i++ {
		if k, _, _ := sibling.raw.GetPair(i); k == midKey {
			t.Fatalf("promoted key %d still present in sibling at %d", midKey, i)
		}
	}
	// its child pointer becomes the left node's new rightmost.
	if n.raw.GetNextPID() != midPid {
		t.Fatalf("left node's next_pid = %d, want promoted pid %d", n.raw.GetNextPID(), midPid)
	}
}
