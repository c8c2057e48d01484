package spatial

import (
	"sync/atomic"
)

// Queue is a bounded multi-producer single-consumer ring.
//
// Each slot carries a sequence number so the consumer never observes a slot
// a producer has claimed but not yet written. Capacity is rounded up to a
// power of two.
type Queue[T any] struct {
	_    [64]byte // keep head off the producers' cache line
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte

	mask  uint64
	slots []slot[T]
}

type slot[T any] struct {
	seq  atomic.Uint64
	data T
}

// NewQueue creates a queue holding at least capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	q := &Queue[T]{
		mask:  size - 1,
		slots: make([]slot[T], size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush appends item. Returns false if the queue is full. Safe for
// concurrent producers.
func (q *Queue[T]) TryPush(item T) bool {
	for {
		pos := q.tail.Load()
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch {
		case seq == pos:
			if q.tail.CompareAndSwap(pos, pos+1) {
				s.data = item
				s.seq.Store(pos + 1)
				return true
			}
		case seq < pos:
			return false
		}
	}
}

// TryPop removes the oldest item. Only one goroutine may pop.
func (q *Queue[T]) TryPop() (T, bool) {
	var zero T
	pos := q.head.Load()
	s := &q.slots[pos&q.mask]
	if s.seq.Load() != pos+1 {
		return zero, false
	}
	item := s.data
	s.data = zero
	s.seq.Store(pos + q.mask + 1)
	q.head.Store(pos + 1)
	return item, true
}

// Drain pops every published item into fn and returns how many it handled.
func (q *Queue[T]) Drain(fn func(T)) int {
	n := 0
	for {
		item, ok := q.TryPop()
		if !ok {
			return n
		}
		fn(item)
		n++
	}
}

// Len returns an approximate item count.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the ring capacity.
func (q *Queue[T]) Cap() int {
	return len(q.slots)
}
