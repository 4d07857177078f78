package history

import "testing"

func TestPushPop(t *testing.T) {
	h := New[string](3)
	h.Push("a")
	h.Push("b")

	v, ok := h.Pop()
	if !ok || v != "b" {
		t.Errorf("Pop() = %q, %v; want b, true", v, ok)
	}
	v, ok = h.Pop()
	if !ok || v != "a" {
		t.Errorf("Pop() = %q, %v; want a, true", v, ok)
	}
}

func TestPopEmpty(t *testing.T) {
	h := New[*int](0)
	v, ok := h.Pop()
	if ok || v != nil {
		t.Errorf("Pop() on empty = %v, %v; want nil, false", v, ok)
	}
	if h.Cap() != DefaultSize {
		t.Errorf("Cap() = %d, want %d", h.Cap(), DefaultSize)
	}
}

func TestEvictsOldest(t *testing.T) {
	h := New[int](DefaultSize)
	for i := 1; i <= 31; i++ {
		h.Push(i)
		if h.Len() > DefaultSize {
			t.Fatalf("Len() = %d after push %d", h.Len(), i)
		}
	}

	entries := h.Entries()
	if len(entries) != 30 {
		t.Fatalf("expected 30 entries, got %d", len(entries))
	}
	for i, v := range entries {
		if v != i+2 {
			t.Errorf("entry %d = %d, want %d", i, v, i+2)
		}
	}

	if v, _ := h.Pop(); v != 31 {
		t.Errorf("Pop() = %d, want 31", v)
	}
}
