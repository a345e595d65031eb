package session

import (
	"fmt"
	"sync"
)

// The host runs at most one session at a time. The active session is
// registered explicitly so control surfaces can reach it without threading
// a handle through every layer.
var (
	currentLock sync.RWMutex
	current     *Session
)

// Activate registers s as the active session. Activating while another
// session is active is an error; the previous session must be deactivated
// first.
func Activate(s *Session) error {
	currentLock.Lock()
	defer currentLock.Unlock()

	if current != nil {
		return fmt.Errorf("session %s is already active", current.ID())
	}
	current = s
	return nil
}

// Deactivate unregisters s. Deactivating a session that is not active is a
// no-op.
func Deactivate(s *Session) {
	currentLock.Lock()
	defer currentLock.Unlock()

	if current == s {
		current = nil
	}
}

// Current returns the active session, or false when none is active.
func Current() (*Session, bool) {
	currentLock.RLock()
	defer currentLock.RUnlock()

	return current, current != nil
}
