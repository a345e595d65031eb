package audio

// Mixer is the audio-output handle an engine borrows from the host. The
// lifecycle contract only needs coarse control: suspend/resume everything at
// the pause boundary and apply global volume/mute settings.
type Mixer interface {
	// PauseAll suspends or resumes all playback.
	PauseAll(pause bool)
	// SetVolume sets the master volume in the range 0-100.
	SetVolume(volume int)
	// SetMuted mutes or unmutes all output.
	SetMuted(muted bool)
	// Volume returns the current master volume.
	Volume() int
	// Muted reports whether output is muted.
	Muted() bool
}

// clampVolume bounds a volume value to the 0-100 range.
func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
