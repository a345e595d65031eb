// Package session ties a running engine to the host's control surfaces.
// All interrupt-path operations (pause, save, load, quit) funnel through a
// Session, which serializes them so the engine never sees concurrent calls.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hearthvm/hearth/pkg/engine"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/log"
	"github.com/hearthvm/hearth/pkg/save"
)

// AutosaveSlot is reserved for automatic saves. Manual saves should use
// slots 1 and up.
const AutosaveSlot = 0

// Session owns the lifecycle of one engine run.
type Session struct {
	id        uuid.UUID
	target    string
	eng       engine.Engine
	events    event.Manager
	saves     save.Manager
	startedAt time.Time

	// lock serializes all interrupt-path operations against each other.
	// Run itself is not held under the lock; the engine contract only
	// requires that the interrupt path is serialized.
	lock     sync.Mutex
	lastSave time.Time
	closed   bool
}

// NewSessionOptions contains options for creating a new Session.
type NewSessionOptions struct {
	Target string
	Engine engine.Engine
	Events event.Manager
	// Saves may be nil for engines without save support. It is only used
	// for listing and deleting slots; the engine performs its own saves.
	Saves save.Manager
}

func NewSession(opts NewSessionOptions) (*Session, error) {
	if opts.Target == "" {
		return nil, fmt.Errorf("session target must not be empty")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("session %s: engine is required", opts.Target)
	}
	if opts.Events == nil {
		return nil, fmt.Errorf("session %s: event manager is required", opts.Target)
	}

	return &Session{
		id:        uuid.New(),
		target:    opts.Target,
		eng:       opts.Engine,
		events:    opts.Events,
		saves:     opts.Saves,
		startedAt: time.Now(),
		lastSave:  time.Now(),
	}, nil
}

// ID returns the unique identifier of this run.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Target returns the game configuration name this session runs.
func (s *Session) Target() string {
	return s.target
}

// Engine returns the underlying engine.
func (s *Session) Engine() engine.Engine {
	return s.eng
}

// Run executes the engine's main loop. It blocks until the engine returns.
func (s *Session) Run(ctx context.Context) error {
	log.Info("Session %s starting engine %s", s.id, s.target)
	err := s.eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("engine %s: %v", s.target, err)
	}
	log.Info("Session %s finished", s.id)
	return nil
}

// Pause increments the engine's pause depth.
func (s *Session) Pause() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.eng.PauseEngine(true)
}

// Resume decrements the engine's pause depth.
func (s *Session) Resume() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.eng.PauseEngine(false)
}

// Quit requests an orderly shutdown of the engine's main loop.
func (s *Session) Quit() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.eng.QuitGame()
}

// SyncSoundSettings re-applies the global sound configuration.
func (s *Session) SyncSoundSettings() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.eng.SyncSoundSettings()
}

// SaveGame pauses the engine around a save so the persisted state is a
// consistent snapshot.
func (s *Session) SaveGame(ctx context.Context, slot int, description string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.eng.CanSaveGameStateCurrently() {
		return engine.NewError(engine.CodeInvalidState, "engine %s cannot save right now", s.target)
	}
	return s.pausedAround(func() error {
		if err := s.eng.SaveGameState(ctx, slot, description); err != nil {
			return err
		}
		s.lastSave = time.Now()
		return nil
	})
}

// LoadGame pauses the engine around a load.
func (s *Session) LoadGame(ctx context.Context, slot int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.eng.CanLoadGameStateCurrently() {
		return engine.NewError(engine.CodeInvalidState, "engine %s cannot load right now", s.target)
	}
	return s.pausedAround(func() error {
		return s.eng.LoadGameState(ctx, slot)
	})
}

// autosavePolicy is satisfied by engines that carry an autosave interval.
type autosavePolicy interface {
	ShouldPerformAutoSave(lastSave time.Time) bool
}

// Autosave saves into the reserved autosave slot if the engine's autosave
// interval has elapsed and saving is currently safe. It reports whether a
// save was performed.
func (s *Session) Autosave(ctx context.Context) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	policy, ok := s.eng.(autosavePolicy)
	if !ok {
		return false, nil
	}
	if !policy.ShouldPerformAutoSave(s.lastSave) {
		return false, nil
	}
	if !s.eng.CanSaveGameStateCurrently() {
		return false, nil
	}

	err := s.pausedAround(func() error {
		if err := s.eng.SaveGameState(ctx, AutosaveSlot, "Autosave"); err != nil {
			return err
		}
		s.lastSave = time.Now()
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// pausedAround runs fn with the engine paused, resuming afterwards even when
// fn fails. Callers must hold the session lock.
func (s *Session) pausedAround(fn func() error) error {
	if err := s.eng.PauseEngine(true); err != nil {
		return err
	}
	fnErr := fn()
	if err := s.eng.PauseEngine(false); err != nil {
		if fnErr != nil {
			return fnErr
		}
		return err
	}
	return fnErr
}

// ListSaves returns the save slots recorded for this session's target.
func (s *Session) ListSaves(ctx context.Context) ([]*save.Metadata, error) {
	if s.saves == nil {
		return nil, engine.NewError(engine.CodeUnsupportedFeature, "engine %s has no save store", s.target)
	}
	return s.saves.List(ctx, s.target)
}

// DeleteSave removes a save slot for this session's target.
func (s *Session) DeleteSave(ctx context.Context, slot int) error {
	if s.saves == nil {
		return engine.NewError(engine.CodeUnsupportedFeature, "engine %s has no save store", s.target)
	}
	return s.saves.Delete(ctx, s.target, slot)
}

// Subscribe streams lifecycle events to a consumer.
func (s *Session) Subscribe(buffer int) (<-chan event.Event, func()) {
	return s.events.Subscribe(buffer)
}

// Status is a point-in-time snapshot of the session for control surfaces.
type Status struct {
	ID            uuid.UUID `json:"id"`
	Target        string    `json:"target"`
	StartedAt     time.Time `json:"startedAt"`
	Paused        bool      `json:"paused"`
	CanSave       bool      `json:"canSave"`
	CanLoad       bool      `json:"canLoad"`
	QuitRequested bool      `json:"quitRequested"`
	LastSaveAt    time.Time `json:"lastSaveAt"`
	Features      []string  `json:"features"`
}

// Status reports the session's current lifecycle state.
func (s *Session) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()

	var features []string
	for _, f := range []engine.Feature{
		engine.FeatureSubtitleOptions,
		engine.FeatureReturnToLauncher,
		engine.FeatureLoadingDuringRuntime,
		engine.FeatureSavingDuringRuntime,
	} {
		if s.eng.HasFeature(f) {
			features = append(features, f.String())
		}
	}

	return Status{
		ID:            s.id,
		Target:        s.target,
		StartedAt:     s.startedAt,
		Paused:        s.eng.IsPaused(),
		CanSave:       s.eng.CanSaveGameStateCurrently(),
		CanLoad:       s.eng.CanLoadGameStateCurrently(),
		QuitRequested: s.events.ShouldQuit(),
		LastSaveAt:    s.lastSave,
		Features:      features,
	}
}

// Close releases the session's resources. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.saves != nil {
		if err := s.saves.Close(ctx); err != nil {
			return fmt.Errorf("failed to close save store: %v", err)
		}
	}
	return nil
}
