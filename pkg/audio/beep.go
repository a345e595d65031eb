package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const beepSampleRate = beep.SampleRate(48000)

// BeepMixer is a Mixer backed by the beep speaker. All playback routes
// through a single master chain (mixer -> volume -> ctrl) so that pause and
// volume changes apply to every channel at once.
type BeepMixer struct {
	lock   sync.RWMutex
	volume int
	muted  bool

	master *beep.Mixer
	gain   *effects.Volume
	ctrl   *beep.Ctrl
}

// NewBeepMixer initializes the speaker and starts the master chain. The
// speaker is a process-wide resource; create at most one BeepMixer per
// process.
func NewBeepMixer() (*BeepMixer, error) {
	if err := speaker.Init(beepSampleRate, beepSampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %v", err)
	}

	master := &beep.Mixer{}
	gain := &effects.Volume{Streamer: master, Base: 2, Volume: 0}
	ctrl := &beep.Ctrl{Streamer: gain}
	speaker.Play(ctrl)

	return &BeepMixer{
		volume: 100,
		master: master,
		gain:   gain,
		ctrl:   ctrl,
	}, nil
}

// Play adds a streamer to the master mix.
func (m *BeepMixer) Play(s beep.Streamer) {
	speaker.Lock()
	m.master.Add(s)
	speaker.Unlock()
}

func (m *BeepMixer) PauseAll(pause bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	speaker.Lock()
	m.ctrl.Paused = pause
	speaker.Unlock()
}

func (m *BeepMixer) SetVolume(volume int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.volume = clampVolume(volume)
	m.applyGain()
}

func (m *BeepMixer) SetMuted(muted bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.muted = muted
	m.applyGain()
}

func (m *BeepMixer) Volume() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.volume
}

func (m *BeepMixer) Muted() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.muted
}

// applyGain pushes the volume/mute state into the master chain. Callers must
// hold m.lock.
func (m *BeepMixer) applyGain() {
	speaker.Lock()
	if m.muted || m.volume == 0 {
		m.gain.Silent = true
	} else {
		m.gain.Silent = false
		m.gain.Volume = math.Log2(float64(m.volume) / 100)
	}
	speaker.Unlock()
}
