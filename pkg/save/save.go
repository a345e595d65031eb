package save

import (
	"context"
	"errors"
	"time"
)

// Metadata describes a stored save state without its payload.
type Metadata struct {
	Target      string    `json:"target"`
	Slot        int       `json:"slot"`
	Description string    `json:"description"`
	SavedAt     time.Time `json:"savedAt"`
	// Size is the uncompressed payload size in bytes.
	Size int `json:"size"`
}

// Manager is the save-file service backing loadGameState/saveGameState.
// Slots are integers >= 0 scoped to a target name; payload encoding is the
// engine's business and opaque to the store.
type Manager interface {
	Save(ctx context.Context, target string, slot int, description string, payload []byte) error
	Load(ctx context.Context, target string, slot int) ([]byte, *Metadata, error)
	List(ctx context.Context, target string) ([]*Metadata, error)
	Delete(ctx context.Context, target string, slot int) error
	Close(ctx context.Context) error
}

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "save not found"
}

// IsNotFound reports whether err is, or wraps, an ErrNotFound. Engines wrap
// store errors before returning them to the host, so the whole chain is
// inspected.
func IsNotFound(err error) bool {
	var notFound *ErrNotFound
	return errors.As(err, &notFound)
}
