package pagestore

import "testing"

func TestMemStoreAppendOnly(t *testing.T) {
	s := NewMemStore()
	if s.EndPID() != 0 {
		t.Fatalf("EndPID() = %d, want 0", s.EndPID())
	}

	var p0 Page
	p0[0] = 1
	if err := s.Write(0, &p0); err != nil {
		t.Fatalf("Write(0): %v", err)
	}
	if s.EndPID() != 1 {
		t.Fatalf("EndPID() = %d, want 1", s.EndPID())
	}

	var p1 Page
	p1[0] = 2
	if err := s.Write(1, &p1); err != nil {
		t.Fatalf("Write(1): %v", err)
	}
	if s.EndPID() != 2 {
		t.Fatalf("EndPID() = %d, want 2", s.EndPID())
	}

	if err := s.Write(5, &p1); err == nil {
		t.Fatal("Write(5) on 2-page store should fail out of range")
	}

	var out Page
	if err := s.Read(0, &out); err != nil || out[0] != 1 {
		t.Fatalf("Read(0) = (%v, %v), want (page with byte 1, nil)", out[0], err)
	}
	if err := s.Read(2, &out); err == nil {
		t.Fatal("Read(2) on 2-page store should fail out of range")
	}
}
