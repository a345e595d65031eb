package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hearthvm/hearth/pkg/audio"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookRecorder captures pause hook boundary crossings.
type hookRecorder struct {
	calls []bool
}

func (r *hookRecorder) hook(pause bool) {
	r.calls = append(r.calls, pause)
}

// stubSaveHandler is a controllable save/load handler.
type stubSaveHandler struct {
	canSave bool
	canLoad bool
	saved   []int
	loaded  []int
	err     error
}

func (s *stubSaveHandler) SaveState(ctx context.Context, slot int, description string) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, slot)
	return nil
}

func (s *stubSaveHandler) CanSaveNow() bool { return s.canSave }

func (s *stubSaveHandler) LoadState(ctx context.Context, slot int) error {
	if s.err != nil {
		return s.err
	}
	s.loaded = append(s.loaded, slot)
	return nil
}

func (s *stubSaveHandler) CanLoadNow() bool { return s.canLoad }

func newTestBase(t *testing.T, mutate func(*Options)) (*Base, *hookRecorder) {
	t.Helper()
	rec := &hookRecorder{}
	opts := Options{
		TargetName: "vault",
		Events:     event.NewInMemoryManager(64),
		PauseHook:  rec.hook,
	}
	if mutate != nil {
		mutate(&opts)
	}
	b, err := NewBase(opts)
	require.NoError(t, err)
	return b, rec
}

func TestBase_PauseNesting(t *testing.T) {
	events := event.NewInMemoryManager(64)
	b, rec := newTestBase(t, func(o *Options) {
		o.Events = events
	})

	// Pause three times, resume three times: the hook fires exactly twice,
	// once at the first pause and once at the final resume.
	for i := 0; i < 3; i++ {
		require.NoError(t, b.PauseEngine(true))
		assert.True(t, b.IsPaused())
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, b.PauseEngine(false))
		assert.True(t, b.IsPaused())
	}
	require.NoError(t, b.PauseEngine(false))
	assert.False(t, b.IsPaused())

	assert.Equal(t, []bool{true, false}, rec.calls)

	// Only the boundary crossings are published.
	ev, ok := events.Poll()
	require.True(t, ok)
	assert.Equal(t, event.TypeEnginePaused, ev.Type)
	ev, ok = events.Poll()
	require.True(t, ok)
	assert.Equal(t, event.TypeEngineResumed, ev.Type)
	_, ok = events.Poll()
	assert.False(t, ok)
}

func TestBase_UnbalancedResumeRejected(t *testing.T) {
	b, rec := newTestBase(t, nil)

	err := b.PauseEngine(false)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
	assert.False(t, b.IsPaused())
	assert.Empty(t, rec.calls)

	// A rejected resume must not corrupt the depth counter.
	require.NoError(t, b.PauseEngine(true))
	require.NoError(t, b.PauseEngine(false))
	assert.Equal(t, []bool{true, false}, rec.calls)
}

func TestBase_IsPausedConcurrentWithPauseEngine(t *testing.T) {
	events := event.NewInMemoryManager(64)
	b, _ := newTestBase(t, func(o *Options) {
		o.Events = events
	})

	// A run loop polls IsPaused from its own goroutine while the host
	// drives serialized pause/resume calls.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			_ = b.IsPaused()
		}
	}()

	for i := 0; i < 10000; i++ {
		require.NoError(t, b.PauseEngine(true))
		require.NoError(t, b.PauseEngine(false))
		// Drain the boundary events so the queue never fills.
		events.Poll()
		events.Poll()
	}
	<-done
	assert.False(t, b.IsPaused())
}

func TestBase_IsPausedTracksNetCount(t *testing.T) {
	b, _ := newTestBase(t, nil)

	sequence := []bool{true, true, false, true, false, false}
	net := 0
	for _, pause := range sequence {
		require.NoError(t, b.PauseEngine(pause))
		if pause {
			net++
		} else {
			net--
		}
		assert.Equal(t, net != 0, b.IsPaused())
	}
}

func TestBase_HasFeatureIsPure(t *testing.T) {
	b, _ := newTestBase(t, func(o *Options) {
		o.Features = []Feature{FeatureReturnToLauncher}
	})

	for i := 0; i < 3; i++ {
		assert.True(t, b.HasFeature(FeatureReturnToLauncher))
		assert.False(t, b.HasFeature(FeatureSubtitleOptions))
		assert.False(t, b.HasFeature(FeatureSavingDuringRuntime))
		assert.False(t, b.HasFeature(FeatureLoadingDuringRuntime))
	}
}

func TestBase_DefaultsRejectSaveAndLoad(t *testing.T) {
	b, _ := newTestBase(t, nil)
	ctx := context.Background()

	assert.False(t, b.CanSaveGameStateCurrently())
	assert.False(t, b.CanLoadGameStateCurrently())

	err := b.SaveGameState(ctx, 1, "nope")
	require.Error(t, err)
	assert.True(t, IsUnsupportedFeature(err))

	err = b.LoadGameState(ctx, 0)
	require.Error(t, err)
	assert.True(t, IsUnsupportedFeature(err))
}

func TestNewBase_FeatureHandlerInvariant(t *testing.T) {
	events := event.NewInMemoryManager(8)

	_, err := NewBase(Options{
		TargetName: "vault",
		Events:     events,
		Features:   []Feature{FeatureSavingDuringRuntime},
	})
	assert.Error(t, err)

	_, err = NewBase(Options{
		TargetName: "vault",
		Events:     events,
		Features:   []Feature{FeatureLoadingDuringRuntime},
	})
	assert.Error(t, err)

	handler := &stubSaveHandler{}
	_, err = NewBase(Options{
		TargetName:  "vault",
		Events:      events,
		Features:    []Feature{FeatureSavingDuringRuntime, FeatureLoadingDuringRuntime},
		SaveHandler: handler,
		LoadHandler: handler,
	})
	assert.NoError(t, err)
}

func TestNewBase_RequiresTargetAndEvents(t *testing.T) {
	_, err := NewBase(Options{Events: event.NewInMemoryManager(8)})
	assert.Error(t, err)

	_, err = NewBase(Options{TargetName: "vault"})
	assert.Error(t, err)
}

func TestBase_SaveLoadDelegation(t *testing.T) {
	handler := &stubSaveHandler{canSave: true, canLoad: true}
	events := event.NewInMemoryManager(8)
	b, _ := newTestBase(t, func(o *Options) {
		o.Events = events
		o.Features = []Feature{FeatureSavingDuringRuntime, FeatureLoadingDuringRuntime}
		o.SaveHandler = handler
		o.LoadHandler = handler
	})
	ctx := context.Background()

	assert.True(t, b.CanSaveGameStateCurrently())
	assert.True(t, b.CanLoadGameStateCurrently())

	require.NoError(t, b.SaveGameState(ctx, 3, "by the door"))
	require.NoError(t, b.LoadGameState(ctx, 3))
	assert.Equal(t, []int{3}, handler.saved)
	assert.Equal(t, []int{3}, handler.loaded)

	ev, ok := events.Poll()
	require.True(t, ok)
	assert.Equal(t, event.TypeGameSaved, ev.Type)
	ev, ok = events.Poll()
	require.True(t, ok)
	assert.Equal(t, event.TypeGameLoaded, ev.Type)

	// Gating queries track the handler verdict.
	handler.canSave = false
	handler.canLoad = false
	assert.False(t, b.CanSaveGameStateCurrently())
	assert.False(t, b.CanLoadGameStateCurrently())
}

func TestBase_SaveFailureDoesNotPublishEvent(t *testing.T) {
	handler := &stubSaveHandler{canSave: true, err: NewError(CodeSaveFailed, "disk full")}
	events := event.NewInMemoryManager(8)
	b, _ := newTestBase(t, func(o *Options) {
		o.Events = events
		o.Features = []Feature{FeatureSavingDuringRuntime}
		o.SaveHandler = handler
	})

	err := b.SaveGameState(context.Background(), 1, "doomed")
	require.Error(t, err)
	assert.Equal(t, CodeSaveFailed, CodeOf(err))
	_, ok := events.Poll()
	assert.False(t, ok)
}

func TestBase_QuitGame(t *testing.T) {
	events := event.NewInMemoryManager(8)
	b, _ := newTestBase(t, func(o *Options) {
		o.Events = events
	})

	// Quitting is legal regardless of pause state and does not change it.
	require.NoError(t, b.PauseEngine(true))
	b.QuitGame()
	assert.True(t, events.ShouldQuit())
	assert.True(t, b.IsPaused())
}

func TestBase_SyncSoundSettings(t *testing.T) {
	mixer := audio.NewSoftwareMixer()
	store := audio.NewSettingsStore(audio.Settings{Volume: 80})
	b, _ := newTestBase(t, func(o *Options) {
		o.Mixer = mixer
		o.SoundSettings = store
	})

	b.SyncSoundSettings()
	assert.Equal(t, 80, mixer.Volume())
	assert.False(t, mixer.Muted())

	store.Update(audio.Settings{Volume: 80, Muted: true})
	b.SyncSoundSettings()
	assert.True(t, mixer.Muted())

	// Re-applying unchanged settings is harmless.
	b.SyncSoundSettings()
	assert.Equal(t, 80, mixer.Volume())
	assert.True(t, mixer.Muted())
}

func TestBase_SyncSoundSettingsWithoutMixer(t *testing.T) {
	b, _ := newTestBase(t, nil)
	b.SyncSoundSettings() // must not panic
}

func TestBase_ShouldPerformAutoSave(t *testing.T) {
	interval := time.Minute
	b, _ := newTestBase(t, func(o *Options) {
		o.AutosaveInterval = interval
	})

	now := time.Now()
	assert.True(t, b.ShouldPerformAutoSave(now.Add(-interval-time.Second)))
	assert.False(t, b.ShouldPerformAutoSave(now))

	disabled, _ := newTestBase(t, func(o *Options) {
		o.AutosaveInterval = -1
	})
	assert.False(t, disabled.ShouldPerformAutoSave(now.Add(-time.Hour)))
}

func TestErrorHelpers(t *testing.T) {
	err := WrapError(CodeLoadFailed, assert.AnError, "slot %d", 4)
	assert.Equal(t, CodeLoadFailed, CodeOf(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "slot 4")

	assert.Equal(t, Code(0), CodeOf(assert.AnError))
	assert.False(t, IsUnsupportedFeature(nil))
}
