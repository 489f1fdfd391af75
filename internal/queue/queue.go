package queue

// Queue is a generic FIFO. It is not safe for concurrent use; the engine
// owns it on the host tick thread.
type Queue[T any] struct {
	items []T
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.items = append(q.items, items...)
}

// Pop removes and returns the first item. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Drain returns all queued items in order and leaves the queue empty.
// Items pushed while the caller iterates the result wait for the next Drain.
func (q *Queue[T]) Drain() []T {
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}

// Remove deletes every item matching pred and returns how many were removed.
func (q *Queue[T]) Remove(pred func(T) bool) int {
	kept := q.items[:0]
	removed := 0
	for _, it := range q.items {
		if pred(it) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	clear(q.items[len(kept):])
	q.items = kept
	return removed
}

// Contains reports whether any item matches pred.
func (q *Queue[T]) Contains(pred func(T) bool) bool {
	for _, it := range q.items {
		if pred(it) {
			return true
		}
	}
	return false
}
