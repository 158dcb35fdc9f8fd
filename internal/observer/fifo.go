package observer

// fifo is an unbounded FIFO without its own locking.
// Callers serialize access (Safe holds its mutex around every call).
type fifo[V any] struct {
	items []V
}

func (q *fifo[V]) push(v V) {
	q.items = append(q.items, v)
}

// pop removes and returns the front item.
func (q *fifo[V]) pop() (V, bool) {
	var zero V
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]

	// Clear the slot so the backing array does not pin delivered payloads.
	q.items[0] = zero

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return v, true
}
