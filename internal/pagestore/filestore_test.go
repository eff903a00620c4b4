package pagestore

import (
	"path/filepath"
	"testing"
)

func TestFileStoreWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := OpenFileStore(path, 4)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}

	var p Page
	p[10] = 42
	if err := s.Write(0, &p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenFileStore(path, 4)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if reopened.EndPID() != 1 {
		t.Fatalf("EndPID() after reopen = %d, want 1", reopened.EndPID())
	}
	var out Page
	if err := reopened.Read(0, &out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out[10] != 42 {
		t.Fatalf("out[10] = %d, want 42", out[10])
	}
}

func TestFileStoreAppendExtends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenFileStore(path, 4)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		var p Page
		if err := s.Write(PageID(i), &p); err != nil {
			t.Fatalf("Write(%d): %v", i, err)
		}
	}
	if s.EndPID() != 3 {
		t.Fatalf("EndPID() = %d, want 3", s.EndPID())
	}

	var p Page
	if err := s.Write(10, &p); err == nil {
		t.Fatal("Write(10) should fail: not == EndPID()")
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := newLRUCache(2)
	p0, p1, p2 := &Page{}, &Page{}, &Page{}
	p0[0], p1[0], p2[0] = 1, 2, 3

	c.put(0, p0)
	c.put(1, p1)
	c.put(2, p2) // evicts pid 0

	if c.get(0) != nil {
		t.Fatal("pid 0 should have been evicted")
	}
	if c.get(1) == nil || c.get(2) == nil {
		t.Fatal("pids 1 and 2 should still be cached")
	}
}
