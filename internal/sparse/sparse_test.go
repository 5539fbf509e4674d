package sparse

import (
	"testing"
)

func TestSet_InsertContains(t *testing.T) {
	s := NewSet(64)

	values := []uint32{0, 5, 63, 5, 17}
	for _, v := range values {
		s.Insert(v)
	}

	if got := s.Len(); got != 4 {
		t.Errorf("Len = %d, want 4", got)
	}
	for _, v := range []uint32{0, 5, 17, 63} {
		if !s.Contains(v) {
			t.Errorf("Contains(%d) = false, want true", v)
		}
	}
	for _, v := range []uint32{1, 62, 100} {
		if s.Contains(v) {
			t.Errorf("Contains(%d) = true, want false", v)
		}
	}
}

func TestSet_Clear(t *testing.T) {
	s := NewSet(8)
	s.Insert(3)
	s.Insert(7)
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", s.Len())
	}
	if s.Contains(3) || s.Contains(7) {
		t.Error("cleared set still reports membership")
	}

	// Reuse after clearing.
	s.Insert(3)
	if !s.Contains(3) {
		t.Error("Insert after Clear lost the value")
	}
}

func TestSet_ValuesOrder(t *testing.T) {
	s := NewSet(16)
	for _, v := range []uint32{9, 2, 11} {
		s.Insert(v)
	}
	got := s.Values()
	want := []uint32{9, 2, 11}
	if len(got) != len(want) {
		t.Fatalf("Values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Values = %v, want %v", got, want)
		}
	}
}
