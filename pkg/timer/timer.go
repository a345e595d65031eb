package timer

import (
	"fmt"
	"sync"
	"time"
)

// Manager is the timer service an engine borrows from the host. Game time
// stops advancing while the service is paused, and installed timers are
// fired from the engine main loop via Tick.
type Manager interface {
	// Now returns the current game time. It is frozen while paused.
	Now() time.Time
	// Pause stops game time advancement. Idempotent.
	Pause()
	// Resume continues game time advancement. Idempotent.
	Resume()
	// IsPaused reports whether game time is currently frozen.
	IsPaused() bool
	// Install registers a named periodic timer fired on game time. It
	// returns an error if a timer with the same name is already installed.
	Install(name string, interval time.Duration, fn func(now time.Time)) error
	// Remove uninstalls a named timer. Removing an unknown name is a no-op.
	Remove(name string)
	// Tick fires all due timers. Called from the engine main loop; a no-op
	// while paused.
	Tick()
}

type installedTimer struct {
	interval time.Duration
	nextFire time.Time
	fn       func(now time.Time)
}

// Service implements Manager with a pausable wall-clock-derived game clock.
type Service struct {
	mu sync.Mutex

	realStart       time.Time
	pausedAt        time.Time
	totalPausedTime time.Duration
	paused          bool

	timers map[string]*installedTimer
}

// NewService creates a running timer service. Game time starts at the
// creation wall-clock time.
func NewService() *Service {
	return &Service{
		realStart: time.Now(),
		timers:    make(map[string]*installedTimer),
	}
}

func (s *Service) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// now computes game time. Callers must hold s.mu.
func (s *Service) now() time.Time {
	if s.paused {
		return s.pausedAt.Add(-s.totalPausedTime)
	}
	return time.Now().Add(-s.totalPausedTime)
}

func (s *Service) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.paused = true
	s.pausedAt = time.Now()
}

func (s *Service) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.totalPausedTime += time.Since(s.pausedAt)
	s.paused = false
	s.pausedAt = time.Time{}
}

func (s *Service) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Service) Install(name string, interval time.Duration, fn func(now time.Time)) error {
	if interval <= 0 {
		return fmt.Errorf("timer %q: interval must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timers[name]; exists {
		return fmt.Errorf("timer %q is already installed", name)
	}
	s.timers[name] = &installedTimer{
		interval: interval,
		nextFire: s.now().Add(interval),
		fn:       fn,
	}
	return nil
}

func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, name)
}

func (s *Service) Tick() {
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		return
	}
	now := s.now()
	var due []func(now time.Time)
	for _, t := range s.timers {
		// At most one firing per tick; missed intervals are not replayed.
		if !t.nextFire.After(now) {
			due = append(due, t.fn)
			t.nextFire = now.Add(t.interval)
		}
	}
	s.mu.Unlock()

	// Callbacks run without the lock so they may install or remove timers.
	for _, fn := range due {
		fn(now)
	}
}
