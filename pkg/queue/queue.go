package queue

// Queue represents a basic bounded queue.
type Queue[T any] interface {
	Enqueue(item T) bool
	Dequeue() (T, bool)
	Size() int
	ReadAll() []T
	Clear()
}
