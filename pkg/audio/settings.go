package audio

import "sync"

// Settings holds the global sound configuration an engine re-reads via
// SyncSoundSettings.
type Settings struct {
	Volume int  `json:"volume"`
	Muted  bool `json:"muted"`
}

// DefaultSettings returns full volume, unmuted.
func DefaultSettings() Settings {
	return Settings{Volume: 100}
}

// SettingsSource provides the current sound settings.
type SettingsSource interface {
	SoundSettings() Settings
}

// SettingsStore is a mutable, concurrency-safe SettingsSource owned by the
// host and updated by its configuration surface.
type SettingsStore struct {
	lock     sync.RWMutex
	settings Settings
}

func NewSettingsStore(settings Settings) *SettingsStore {
	settings.Volume = clampVolume(settings.Volume)
	return &SettingsStore{settings: settings}
}

func (s *SettingsStore) SoundSettings() Settings {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.settings
}

func (s *SettingsStore) Update(settings Settings) {
	s.lock.Lock()
	defer s.lock.Unlock()
	settings.Volume = clampVolume(settings.Volume)
	s.settings = settings
}
