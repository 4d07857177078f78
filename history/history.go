// Package history keeps a bounded back stack of displayed content.
package history

// DefaultSize is the number of entries kept when no size is configured.
const DefaultSize = 30

// History is a bounded stack. Pushing past capacity evicts the oldest
// entry, so Len never exceeds the capacity.
type History[T any] struct {
	items []T
	size  int
}

// New creates a history holding at most size entries.
func New[T any](size int) *History[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &History[T]{size: size}
}

// Push appends v, evicting the oldest entry when full.
func (h *History[T]) Push(v T) {
	h.items = append(h.items, v)
	if len(h.items) > h.size {
		var zero T
		h.items[0] = zero
		h.items = h.items[1:]
	}
}

// Pop removes and returns the newest entry. ok is false when empty.
func (h *History[T]) Pop() (v T, ok bool) {
	if len(h.items) == 0 {
		return v, false
	}
	last := len(h.items) - 1
	v = h.items[last]
	var zero T
	h.items[last] = zero
	h.items = h.items[:last]
	return v, true
}

func (h *History[T]) Len() int { return len(h.items) }
func (h *History[T]) Cap() int { return h.size }

// Entries returns a copy of the stack, oldest first.
func (h *History[T]) Entries() []T {
	return append([]T(nil), h.items...)
}
