package audio

import "sync"

// SoftwareMixer is an in-process Mixer with no audio backend. Hosts use it
// when no output device is available; tests use it to observe pause and
// volume transitions.
type SoftwareMixer struct {
	lock   sync.RWMutex
	volume int
	muted  bool
	paused bool

	pauseTransitions int
}

func NewSoftwareMixer() *SoftwareMixer {
	return &SoftwareMixer{volume: 100}
}

func (m *SoftwareMixer) PauseAll(pause bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.paused != pause {
		m.pauseTransitions++
	}
	m.paused = pause
}

func (m *SoftwareMixer) SetVolume(volume int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.volume = clampVolume(volume)
}

func (m *SoftwareMixer) SetMuted(muted bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.muted = muted
}

func (m *SoftwareMixer) Volume() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.volume
}

func (m *SoftwareMixer) Muted() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.muted
}

// Paused reports whether playback is currently suspended.
func (m *SoftwareMixer) Paused() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.paused
}

// PauseTransitions returns how many times the pause state actually changed.
func (m *SoftwareMixer) PauseTransitions() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.pauseTransitions
}
