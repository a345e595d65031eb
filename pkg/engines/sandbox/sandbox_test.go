package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/hearthvm/hearth/pkg/audio"
	"github.com/hearthvm/hearth/pkg/engine"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/save"
	"github.com/hearthvm/hearth/pkg/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(NewEngineOptions{
		Target:       "sandbox-test",
		Mixer:        audio.NewSoftwareMixer(),
		Timers:       timer.NewService(),
		Events:       event.NewInMemoryManager(64),
		Saves:        save.NewMemoryManager(),
		TickInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return e
}

func TestEngine_RunStopsOnQuit(t *testing.T) {
	e := newTestEngine(t)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	e.QuitGame()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after quit")
	}
	assert.Greater(t, e.Snapshot().Ticks, 0)
}

func TestEngine_QuitBeforeRun(t *testing.T) {
	e := newTestEngine(t)
	e.QuitGame()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not observe the pending quit")
	}
}

func TestEngine_RunStopsOnReturnToLauncher(t *testing.T) {
	e := newTestEngine(t)
	require.True(t, e.HasFeature(engine.FeatureReturnToLauncher))

	e.Events().Push(event.Event{Type: event.TypeReturnToLauncher})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not return to launcher")
	}
}

func TestEngine_RunStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine ignored context cancellation")
	}
}

func TestEngine_RunConcurrentWithPauseResume(t *testing.T) {
	e, err := NewEngine(NewEngineOptions{
		Target:       "sandbox-test",
		Mixer:        audio.NewSoftwareMixer(),
		Timers:       timer.NewService(),
		Events:       event.NewInMemoryManager(1024),
		Saves:        save.NewMemoryManager(),
		TickInterval: time.Millisecond,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	// Host interrupt path pausing and resuming while the loop is ticking.
	for i := 0; i < 100; i++ {
		require.NoError(t, e.PauseEngine(true))
		require.NoError(t, e.PauseEngine(false))
	}

	e.QuitGame()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after quit")
	}
	assert.False(t, e.IsPaused())
}

func TestEngine_PauseSuspendsSimulation(t *testing.T) {
	mixer := audio.NewSoftwareMixer()
	timers := timer.NewService()
	e, err := NewEngine(NewEngineOptions{
		Target:       "sandbox-test",
		Mixer:        mixer,
		Timers:       timers,
		Events:       event.NewInMemoryManager(64),
		Saves:        save.NewMemoryManager(),
		TickInterval: time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, e.PauseEngine(true))
	assert.True(t, mixer.Paused())
	assert.True(t, timers.IsPaused())

	before := e.Snapshot().Ticks
	e.tick()
	assert.Equal(t, before, e.Snapshot().Ticks)

	require.NoError(t, e.PauseEngine(false))
	assert.False(t, mixer.Paused())
	assert.False(t, timers.IsPaused())

	e.tick()
	assert.Equal(t, before+1, e.Snapshot().Ticks)
}

func TestEngine_SaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	for i := 0; i < 5; i++ {
		e.tick()
	}
	saved := e.Snapshot()

	require.True(t, e.CanSaveGameStateCurrently())
	require.NoError(t, e.SaveGameState(ctx, 1, "mid run"))

	for i := 0; i < 3; i++ {
		e.tick()
	}
	require.NotEqual(t, saved, e.Snapshot())

	require.NoError(t, e.LoadGameState(ctx, 1))
	assert.Equal(t, saved, e.Snapshot())
}

func TestEngine_LoadMissingSlot(t *testing.T) {
	e := newTestEngine(t)

	err := e.LoadGameState(context.Background(), 9)
	require.Error(t, err)
	assert.Equal(t, engine.CodeLoadFailed, engine.CodeOf(err))
}

func TestEngine_WithoutSaveStore(t *testing.T) {
	e, err := NewEngine(NewEngineOptions{
		Target: "sandbox-test",
		Events: event.NewInMemoryManager(8),
	})
	require.NoError(t, err)

	assert.False(t, e.HasFeature(engine.FeatureSavingDuringRuntime))
	assert.False(t, e.CanSaveGameStateCurrently())
}

func TestEngine_RoomChangesOnGameTime(t *testing.T) {
	timers := timer.NewService()
	e, err := NewEngine(NewEngineOptions{
		Target: "sandbox-test",
		Timers: timers,
		Events: event.NewInMemoryManager(8),
	})
	require.NoError(t, err)
	assert.Equal(t, "hall", e.Snapshot().Room)

	e.changeRoom()
	assert.Equal(t, "library", e.Snapshot().Room)
	e.changeRoom()
	e.changeRoom()
	e.changeRoom()
	assert.Equal(t, "hall", e.Snapshot().Room)
}
