package queue

import "sync"

// InMemoryQueue implements an in-memory bounded queue.
type InMemoryQueue[T any] struct {
	ch   chan T
	lock sync.RWMutex
}

// NewInMemoryQueue creates a new queue with the given capacity.
func NewInMemoryQueue[T any](capacity int) *InMemoryQueue[T] {
	return &InMemoryQueue[T]{
		ch: make(chan T, capacity),
	}
}

// Enqueue adds an item to the end of the queue. It returns false when the
// queue is full and the item was dropped.
func (q *InMemoryQueue[T]) Enqueue(item T) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	select {
	case q.ch <- item:
		return true
	default:
		return false
	}
}

// Dequeue removes and returns the item at the front of the queue. The second
// return value is false when the queue is empty.
func (q *InMemoryQueue[T]) Dequeue() (T, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	select {
	case item := <-q.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue[T]) Size() int {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return len(q.ch)
}

// ReadAll drains and returns all pending items in the queue.
func (q *InMemoryQueue[T]) ReadAll() []T {
	q.lock.Lock()
	defer q.lock.Unlock()

	var items []T
	for len(q.ch) > 0 {
		items = append(items, <-q.ch)
	}

	return items
}

// Clear discards all pending items.
func (q *InMemoryQueue[T]) Clear() {
	q.lock.Lock()
	defer q.lock.Unlock()

	for len(q.ch) > 0 {
		<-q.ch
	}
}
