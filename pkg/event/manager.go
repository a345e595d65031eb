package event

import (
	"sync"
	"sync/atomic"

	"github.com/hearthvm/hearth/pkg/log"
	"github.com/hearthvm/hearth/pkg/queue"
)

// Manager is the shared event stream between the host and the running
// engine. Push is safe from any goroutine; Poll is intended for the engine
// main loop.
type Manager interface {
	// Push appends an event to the stream. Quit events additionally latch
	// the quit flag so that ShouldQuit observes them even if the event
	// itself was already polled or dropped.
	Push(ev Event)
	// Poll removes and returns the next pending event.
	Poll() (Event, bool)
	// ShouldQuit reports whether a quit event has been pushed.
	ShouldQuit() bool
	// ResetQuit clears the quit flag. Used by hosts that keep the process
	// alive across engine sessions (return to launcher).
	ResetQuit()
	// Subscribe registers a listener for every pushed event. The returned
	// cancel func must be called to release the subscription.
	Subscribe(buffer int) (<-chan Event, func())
}

// InMemoryManager is the default queue-backed event manager.
type InMemoryManager struct {
	pending *queue.InMemoryQueue[Event]
	quit    atomic.Bool

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewInMemoryManager creates an event manager with the given queue capacity.
func NewInMemoryManager(capacity int) *InMemoryManager {
	return &InMemoryManager{
		pending: queue.NewInMemoryQueue[Event](capacity),
		subs:    make(map[int]chan Event),
	}
}

func (m *InMemoryManager) Push(ev Event) {
	if ev.Type == TypeQuit {
		m.quit.Store(true)
	}
	if !m.pending.Enqueue(ev) {
		log.Warn("Event queue full, dropping %s event", ev.Type)
	}
	m.notify(ev)
}

func (m *InMemoryManager) Poll() (Event, bool) {
	return m.pending.Dequeue()
}

func (m *InMemoryManager) ShouldQuit() bool {
	return m.quit.Load()
}

func (m *InMemoryManager) ResetQuit() {
	m.quit.Store(false)
}

func (m *InMemoryManager) Subscribe(buffer int) (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Event, buffer)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notify fans the event out to subscribers. Slow subscribers lose events
// rather than blocking the engine's control path.
func (m *InMemoryManager) notify(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
