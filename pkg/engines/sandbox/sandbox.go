// Package sandbox is a minimal engine used to exercise the host end to end.
// It simulates a game by counting ticks and wandering between named rooms.
package sandbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hearthvm/hearth/pkg/audio"
	"github.com/hearthvm/hearth/pkg/engine"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/gamefs"
	"github.com/hearthvm/hearth/pkg/log"
	"github.com/hearthvm/hearth/pkg/save"
	"github.com/hearthvm/hearth/pkg/timer"
)

// State is the complete persistable game state.
type State struct {
	Ticks int    `json:"ticks"`
	Room  string `json:"room"`
}

var rooms = []string{"hall", "library", "cellar", "attic"}

// roomChangeInterval is game time, so pausing stops the wandering.
const roomChangeInterval = 10 * time.Second

const defaultTickInterval = 50 * time.Millisecond

// Engine is a self-contained demo engine with save, load and
// return-to-launcher support.
type Engine struct {
	*engine.Base

	lock         sync.Mutex
	state        State
	tickInterval time.Duration
}

// NewEngineOptions contains options for creating a new sandbox Engine.
type NewEngineOptions struct {
	Target   string
	GameData gamefs.Node
	Mixer    audio.Mixer
	Timers   timer.Manager
	Events   event.Manager
	Saves    save.Manager

	SoundSettings    audio.SettingsSource
	AutosaveInterval time.Duration
	// TickInterval is the real-time length of one main loop iteration.
	TickInterval time.Duration
}

func NewEngine(opts NewEngineOptions) (*Engine, error) {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	e := &Engine{
		state:        State{Room: rooms[0]},
		tickInterval: tickInterval,
	}

	features := []engine.Feature{engine.FeatureReturnToLauncher}
	if opts.Saves != nil {
		features = append(features,
			engine.FeatureSavingDuringRuntime,
			engine.FeatureLoadingDuringRuntime)
	}

	base, err := engine.NewBase(engine.Options{
		TargetName:       opts.Target,
		GameData:         opts.GameData,
		Mixer:            opts.Mixer,
		Timers:           opts.Timers,
		Events:           opts.Events,
		Saves:            opts.Saves,
		Features:         features,
		PauseHook:        pauseHook(opts.Mixer, opts.Timers),
		SaveHandler:      e,
		LoadHandler:      e,
		SoundSettings:    opts.SoundSettings,
		AutosaveInterval: opts.AutosaveInterval,
	})
	if err != nil {
		return nil, err
	}
	e.Base = base

	if opts.Timers != nil {
		err := opts.Timers.Install("room-change", roomChangeInterval, func(time.Time) {
			e.changeRoom()
		})
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// pauseHook suspends the audible and time-based subsystems at the outer
// pause boundary and wakes them at the matching resume.
func pauseHook(mixer audio.Mixer, timers timer.Manager) func(bool) {
	return func(paused bool) {
		if mixer != nil {
			mixer.PauseAll(paused)
		}
		if timers == nil {
			return
		}
		if paused {
			timers.Pause()
		} else {
			timers.Resume()
		}
	}
}

// Run executes the main loop until a quit condition is observed or the
// context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		if e.shouldStop() {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.tick()
		}
	}
}

// shouldStop drains pending events and reports whether the loop must exit.
func (e *Engine) shouldStop() bool {
	for {
		ev, ok := e.Events().Poll()
		if !ok {
			break
		}
		switch ev.Type {
		case event.TypeQuit:
			log.Info("Engine %s observed quit", e.TargetName())
			return true
		case event.TypeReturnToLauncher:
			if e.HasFeature(engine.FeatureReturnToLauncher) {
				log.Info("Engine %s returning to launcher", e.TargetName())
				return true
			}
		}
	}
	return e.Events().ShouldQuit()
}

func (e *Engine) tick() {
	if e.IsPaused() {
		return
	}

	e.lock.Lock()
	e.state.Ticks++
	e.lock.Unlock()

	if e.Timers() != nil {
		e.Timers().Tick()
	}
}

func (e *Engine) changeRoom() {
	e.lock.Lock()
	defer e.lock.Unlock()

	for i, room := range rooms {
		if room == e.state.Room {
			e.state.Room = rooms[(i+1)%len(rooms)]
			return
		}
	}
	e.state.Room = rooms[0]
}

// Snapshot returns a copy of the current game state.
func (e *Engine) Snapshot() State {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.state
}

// SaveState marshals the game state and writes it to the save store.
func (e *Engine) SaveState(ctx context.Context, slot int, description string) error {
	e.lock.Lock()
	payload, err := json.Marshal(e.state)
	e.lock.Unlock()
	if err != nil {
		return engine.WrapError(engine.CodeSaveFailed, err, "engine %s: failed to marshal state", e.TargetName())
	}

	if err := e.Saves().Save(ctx, e.TargetName(), slot, description, payload); err != nil {
		return engine.WrapError(engine.CodeSaveFailed, err, "engine %s: failed to save slot %d", e.TargetName(), slot)
	}
	return nil
}

// CanSaveNow reports whether saving is currently safe. The sandbox state is
// always consistent between ticks.
func (e *Engine) CanSaveNow() bool {
	return e.Saves() != nil
}

// LoadState replaces the game state with the contents of the numbered slot.
func (e *Engine) LoadState(ctx context.Context, slot int) error {
	payload, _, err := e.Saves().Load(ctx, e.TargetName(), slot)
	if err != nil {
		return engine.WrapError(engine.CodeLoadFailed, err, "engine %s: failed to load slot %d", e.TargetName(), slot)
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return engine.WrapError(engine.CodeLoadFailed, err, "engine %s: corrupt save in slot %d", e.TargetName(), slot)
	}

	e.lock.Lock()
	e.state = state
	e.lock.Unlock()
	return nil
}

// CanLoadNow reports whether loading is currently safe.
func (e *Engine) CanLoadNow() bool {
	return e.Saves() != nil
}
