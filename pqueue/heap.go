// Package pqueue provides a binary min-heap whose items track their own slot,
// giving O(log n) decrease-key and arbitrary removal.
package pqueue

// Heap is a min-heap ordered by less. slot returns a pointer to the item's
// externally stored heap index; the heap keeps that index equal to the item's
// array position while it is queued and sets it to -1 once it leaves.
//
// The pointer returned by slot is only dereferenced during a heap call, so
// items may live in a growable arena as long as the arena is not resized
// while a heap method is running.
type Heap[T any] struct {
	items []T
	less  func(a, b T) bool
	slot  func(item T) *int
}

// New creates an empty heap
func New[T any](less func(a, b T) bool, slot func(item T) *int) *Heap[T] {
	return &Heap[T]{
		items: make([]T, 0, 64),
		less:  less,
		slot:  slot,
	}
}

// Len returns the number of queued items
func (h *Heap[T]) Len() int { return len(h.items) }

// Empty reports whether the heap has no items
func (h *Heap[T]) Empty() bool { return len(h.items) == 0 }

// Push inserts item and bubbles it up
func (h *Heap[T]) Push(item T) {
	h.items = append(h.items, item)
	i := len(h.items) - 1
	*h.slot(item) = i
	h.up(i)
}

// Peek returns the minimum without removing it
func (h *Heap[T]) Peek() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Pop removes and returns the minimum
func (h *Heap[T]) Pop() (T, bool) {
	n := len(h.items)
	if n == 0 {
		var zero T
		return zero, false
	}
	top := h.items[0]
	h.swap(0, n-1)
	h.items = h.items[:n-1]
	*h.slot(top) = -1
	if len(h.items) > 0 {
		h.down(0)
	}
	return top, true
}

// Contains reports whether item is currently queued
func (h *Heap[T]) Contains(item T) bool {
	i := *h.slot(item)
	return i >= 0 && i < len(h.items)
}

// Update restores heap order after the item's priority changed in place
func (h *Heap[T]) Update(item T) {
	i := *h.slot(item)
	if i < 0 || i >= len(h.items) {
		return
	}
	if !h.up(i) {
		h.down(i)
	}
}

// Remove deletes an arbitrary item; returns false if it was not queued
func (h *Heap[T]) Remove(item T) bool {
	i := *h.slot(item)
	if i < 0 || i >= len(h.items) {
		return false
	}
	last := len(h.items) - 1
	if i != last {
		h.swap(i, last)
	}
	h.items = h.items[:last]
	*h.slot(item) = -1
	if i < last {
		if !h.up(i) {
			h.down(i)
		}
	}
	return true
}

// Clear empties the heap, resetting every queued item's index
func (h *Heap[T]) Clear() {
	for _, item := range h.items {
		*h.slot(item) = -1
	}
	clear(h.items)
	h.items = h.items[:0]
}

// Items exposes the backing array in heap order; callers must not mutate it
func (h *Heap[T]) Items() []T { return h.items }

func (h *Heap[T]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	*h.slot(h.items[i]) = i
	*h.slot(h.items[j]) = j
}

// up sifts toward the root, reporting whether the item moved
func (h *Heap[T]) up(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(h.items[i], h.items[parent]) {
			break
		}
		h.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

func (h *Heap[T]) down(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && h.less(h.items[right], h.items[left]) {
			smallest = right
		}
		if !h.less(h.items[smallest], h.items[i]) {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}
