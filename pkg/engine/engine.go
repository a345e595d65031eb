package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hearthvm/hearth/pkg/audio"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/gamefs"
	"github.com/hearthvm/hearth/pkg/log"
	"github.com/hearthvm/hearth/pkg/save"
	"github.com/hearthvm/hearth/pkg/timer"
)

// Feature is a capability an engine may or may not support. Hosts query
// features before invoking the corresponding optional operation.
type Feature int

const (
	// FeatureSubtitleOptions enables the subtitle speed and toggle items in
	// the host's global options menu.
	FeatureSubtitleOptions Feature = iota
	// FeatureReturnToLauncher means the engine honors a return-to-launcher
	// event and exits its main loop without terminating the process.
	FeatureReturnToLauncher
	// FeatureLoadingDuringRuntime means the engine supplies a LoadHandler.
	FeatureLoadingDuringRuntime
	// FeatureSavingDuringRuntime means the engine supplies a SaveHandler.
	FeatureSavingDuringRuntime
)

func (f Feature) String() string {
	switch f {
	case FeatureSubtitleOptions:
		return "subtitle-options"
	case FeatureReturnToLauncher:
		return "return-to-launcher"
	case FeatureLoadingDuringRuntime:
		return "loading-during-runtime"
	case FeatureSavingDuringRuntime:
		return "saving-during-runtime"
	default:
		return "unknown"
	}
}

// Engine is the lifecycle contract every concrete engine implements.
// Run blocks until a quit condition is observed or a fatal error occurs.
// All other mutating operations are fast and are invoked from a strictly
// serialized host interrupt path; they must not be called concurrently with
// each other. IsPaused is safe from any goroutine so Run's loop can poll it
// while the host pauses and resumes.
type Engine interface {
	Run(ctx context.Context) error
	PauseEngine(pause bool) error
	IsPaused() bool
	HasFeature(f Feature) bool
	SyncSoundSettings()
	QuitGame()
	SaveGameState(ctx context.Context, slot int, description string) error
	CanSaveGameStateCurrently() bool
	LoadGameState(ctx context.Context, slot int) error
	CanLoadGameStateCurrently() bool
}

// SaveHandler is implemented by engines that support saving during runtime.
type SaveHandler interface {
	// SaveState persists the current state into the numbered slot.
	SaveState(ctx context.Context, slot int, description string) error
	// CanSaveNow reports whether saving is currently safe.
	CanSaveNow() bool
}

// LoadHandler is implemented by engines that support loading during runtime.
type LoadHandler interface {
	// LoadState restores persisted state from the numbered slot.
	LoadState(ctx context.Context, slot int) error
	// CanLoadNow reports whether loading is currently safe.
	CanLoadNow() bool
}

// Options configures a Base. The collaborator handles are borrowed from the
// host; the Base never creates or destroys them.
type Options struct {
	// TargetName identifies the active game configuration and namespaces its
	// saves. Immutable after construction.
	TargetName string
	// GameData is the read-only asset root. Immutable after construction.
	GameData gamefs.Node

	Mixer  audio.Mixer
	Timers timer.Manager
	Events event.Manager
	Saves  save.Manager

	// Features the concrete engine supports. Defaults to none.
	Features []Feature
	// PauseHook is invoked with true on the 0->1 pause transition and with
	// false on the 1->0 transition, and never in between. It must not call
	// back into PauseEngine. Defaults to a no-op.
	PauseHook func(pause bool)
	// SaveHandler backs SaveGameState. Required when Features contains
	// FeatureSavingDuringRuntime.
	SaveHandler SaveHandler
	// LoadHandler backs LoadGameState. Required when Features contains
	// FeatureLoadingDuringRuntime.
	LoadHandler LoadHandler
	// SoundSettings is read by SyncSoundSettings. Defaults to a fixed
	// full-volume source.
	SoundSettings audio.SettingsSource
	// AutosaveInterval drives ShouldPerformAutoSave. Zero selects
	// DefaultAutosaveInterval; a negative value disables autosaving.
	AutosaveInterval time.Duration
}

// DefaultAutosaveInterval is applied when Options leaves AutosaveInterval
// unset.
const DefaultAutosaveInterval = 5 * time.Minute

// Base holds the lifecycle state shared by all concrete engines. Concrete
// engines embed a *Base and implement Run.
type Base struct {
	targetName string
	gameData   gamefs.Node

	mixer  audio.Mixer
	timers timer.Manager
	events event.Manager
	saves  save.Manager

	features    map[Feature]bool
	pauseHook   func(pause bool)
	saveHandler SaveHandler
	loadHandler LoadHandler
	sound       audio.SettingsSource

	autosaveInterval time.Duration

	// pauseDepth is 0 when running; a positive value counts how many nested
	// pause requests are outstanding. Transitions are serialized by the
	// caller (see Engine), but the run loop reads IsPaused from its own
	// goroutine, so the counter itself is atomic.
	pauseDepth atomic.Int32
}

// NewBase validates the options and builds the shared lifecycle state.
// Declaring a save/load runtime feature without the paired handler is a
// construction error, not a runtime surprise.
func NewBase(opts Options) (*Base, error) {
	if opts.TargetName == "" {
		return nil, fmt.Errorf("engine target name must not be empty")
	}
	if opts.Events == nil {
		return nil, fmt.Errorf("engine %s: event manager is required", opts.TargetName)
	}

	features := make(map[Feature]bool, len(opts.Features))
	for _, f := range opts.Features {
		features[f] = true
	}
	if features[FeatureSavingDuringRuntime] && opts.SaveHandler == nil {
		return nil, fmt.Errorf("engine %s declares %s but provides no save handler", opts.TargetName, FeatureSavingDuringRuntime)
	}
	if features[FeatureLoadingDuringRuntime] && opts.LoadHandler == nil {
		return nil, fmt.Errorf("engine %s declares %s but provides no load handler", opts.TargetName, FeatureLoadingDuringRuntime)
	}

	pauseHook := opts.PauseHook
	if pauseHook == nil {
		pauseHook = func(bool) {}
	}
	sound := opts.SoundSettings
	if sound == nil {
		sound = audio.NewSettingsStore(audio.DefaultSettings())
	}
	autosaveInterval := opts.AutosaveInterval
	if autosaveInterval == 0 {
		autosaveInterval = DefaultAutosaveInterval
	}

	return &Base{
		targetName:       opts.TargetName,
		gameData:         opts.GameData,
		mixer:            opts.Mixer,
		timers:           opts.Timers,
		events:           opts.Events,
		saves:            opts.Saves,
		features:         features,
		pauseHook:        pauseHook,
		saveHandler:      opts.SaveHandler,
		loadHandler:      opts.LoadHandler,
		sound:            sound,
		autosaveInterval: autosaveInterval,
	}, nil
}

// TargetName returns the save namespace for this engine instance.
func (b *Base) TargetName() string {
	return b.targetName
}

// GameData returns the read-only asset root.
func (b *Base) GameData() gamefs.Node {
	return b.gameData
}

// Mixer returns the borrowed audio handle. May be nil for headless hosts.
func (b *Base) Mixer() audio.Mixer {
	return b.mixer
}

// Timers returns the borrowed timer service. May be nil.
func (b *Base) Timers() timer.Manager {
	return b.timers
}

// Events returns the shared event manager.
func (b *Base) Events() event.Manager {
	return b.events
}

// Saves returns the borrowed save store. May be nil for engines without
// save support.
func (b *Base) Saves() save.Manager {
	return b.saves
}

// PauseEngine pauses or resumes the engine. Pause requests nest: after
// pausing twice the engine must be resumed twice before it actually resumes.
// Only the outermost boundary invokes the pause hook, so nested pauses are
// cheap no-ops for the underlying subsystems.
//
// Resuming while not paused indicates unbalanced pause/resume calls and
// fails with CodeInvalidState.
func (b *Base) PauseEngine(pause bool) error {
	if pause {
		if b.pauseDepth.Add(1) == 1 {
			log.Debug("Engine %s paused", b.targetName)
			b.pauseHook(true)
			b.events.Push(event.Event{Type: event.TypeEnginePaused})
		}
		return nil
	}

	if b.pauseDepth.Load() == 0 {
		return NewError(CodeInvalidState, "engine %s: unbalanced resume, engine is not paused", b.targetName)
	}
	if b.pauseDepth.Add(-1) == 0 {
		log.Debug("Engine %s resumed", b.targetName)
		b.pauseHook(false)
		b.events.Push(event.Event{Type: event.TypeEngineResumed})
	}
	return nil
}

// IsPaused reports whether the engine is currently paused. Unlike the
// mutating lifecycle calls it is safe from any goroutine, so run loops may
// poll it while the host drives pause and resume.
func (b *Base) IsPaused() bool {
	return b.pauseDepth.Load() != 0
}

// HasFeature reports whether the engine supports the given feature.
func (b *Base) HasFeature(f Feature) bool {
	return b.features[f]
}

// SyncSoundSettings re-reads the global sound configuration and applies it
// to the mixer. The host invokes it whenever settings change; applying
// unchanged settings is harmless.
func (b *Base) SyncSoundSettings() {
	if b.mixer == nil {
		return
	}
	settings := b.sound.SoundSettings()
	b.mixer.SetVolume(settings.Volume)
	b.mixer.SetMuted(settings.Muted)
}

// QuitGame requests an orderly shutdown by pushing a quit event into the
// shared event stream. It does not terminate anything itself: the main loop
// inside Run must observe the condition and return. Quitting is legal at any
// pause depth.
func (b *Base) QuitGame() {
	log.Info("Engine %s quit requested", b.targetName)
	b.events.Push(event.Event{Type: event.TypeQuit})
}

// SaveGameState persists the current state into the numbered slot. Callers
// must check CanSaveGameStateCurrently first.
func (b *Base) SaveGameState(ctx context.Context, slot int, description string) error {
	if b.saveHandler == nil {
		return NewError(CodeUnsupportedFeature, "engine %s does not support saving", b.targetName)
	}
	if err := b.saveHandler.SaveState(ctx, slot, description); err != nil {
		return err
	}
	b.events.Push(event.Event{Type: event.TypeGameSaved, Data: map[string]interface{}{"slot": slot}})
	return nil
}

// CanSaveGameStateCurrently reports whether saving is currently safe. It
// never fails; unsupported engines simply report false.
func (b *Base) CanSaveGameStateCurrently() bool {
	return b.saveHandler != nil && b.saveHandler.CanSaveNow()
}

// LoadGameState restores state from the numbered slot. Callers must check
// CanLoadGameStateCurrently first.
func (b *Base) LoadGameState(ctx context.Context, slot int) error {
	if b.loadHandler == nil {
		return NewError(CodeUnsupportedFeature, "engine %s does not support loading", b.targetName)
	}
	if err := b.loadHandler.LoadState(ctx, slot); err != nil {
		return err
	}
	b.events.Push(event.Event{Type: event.TypeGameLoaded, Data: map[string]interface{}{"slot": slot}})
	return nil
}

// CanLoadGameStateCurrently reports whether loading is currently safe.
func (b *Base) CanLoadGameStateCurrently() bool {
	return b.loadHandler != nil && b.loadHandler.CanLoadNow()
}

// ShouldPerformAutoSave reports whether an autosave is due given the time of
// the last save. It does not perform the save; callers must still check
// CanSaveGameStateCurrently.
func (b *Base) ShouldPerformAutoSave(lastSave time.Time) bool {
	if b.autosaveInterval <= 0 {
		return false
	}
	return time.Since(lastSave) >= b.autosaveInterval
}
