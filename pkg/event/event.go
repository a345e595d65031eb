package event

// Type identifies a lifecycle event.
type Type int

const (
	// TypeQuit requests an orderly shutdown. Engine main loops must observe
	// it and return promptly.
	TypeQuit Type = iota
	// TypeReturnToLauncher asks the running engine to exit back to the host
	// launcher without terminating the process.
	TypeReturnToLauncher
	// TypeEnginePaused is published when the outermost pause boundary is
	// crossed.
	TypeEnginePaused
	// TypeEngineResumed is published when the final resume boundary is
	// crossed.
	TypeEngineResumed
	// TypeGameSaved is published after a successful save.
	TypeGameSaved
	// TypeGameLoaded is published after a successful load.
	TypeGameLoaded
	// TypeCustom carries engine-specific data opaque to the host.
	TypeCustom
)

func (t Type) String() string {
	switch t {
	case TypeQuit:
		return "quit"
	case TypeReturnToLauncher:
		return "return-to-launcher"
	case TypeEnginePaused:
		return "engine-paused"
	case TypeEngineResumed:
		return "engine-resumed"
	case TypeGameSaved:
		return "game-saved"
	case TypeGameLoaded:
		return "game-loaded"
	case TypeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Event is a single lifecycle event. Data is optional and event-specific.
type Event struct {
	Type Type        `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
