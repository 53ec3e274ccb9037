package tracker

// ring is a fixed-capacity buffer evicting oldest-first. Not safe for
// concurrent use; the tracker holds the lock.
type ring[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v, evicting the oldest element when full.
func (r *ring[T]) push(v T) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// items returns the contents oldest-first.
func (r *ring[T]) items() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *ring[T]) len() int { return r.count }

func (r *ring[T]) reset() {
	r.head = 0
	r.count = 0
}
