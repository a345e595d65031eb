package workers

import (
	"context"
	"time"

	"github.com/hearthvm/hearth/pkg/log"
)

// Autosaver attempts an automatic save and reports whether one happened.
type Autosaver interface {
	Autosave(ctx context.Context) (bool, error)
}

// AutosaveWorker periodically asks the session to autosave. The session owns
// the policy (interval elapsed, saving currently safe); the worker only
// provides the heartbeat.
type AutosaveWorker struct {
	autosaver Autosaver
	interval  time.Duration
}

// NewAutosaveWorkerOptions contains options for creating a new AutosaveWorker.
type NewAutosaveWorkerOptions struct {
	Autosaver Autosaver
	// CheckInterval is how often the worker polls the session. It should be
	// well below the autosave interval so saves land close to their due time.
	CheckInterval time.Duration
}

const defaultCheckInterval = 10 * time.Second

func NewAutosaveWorker(opts NewAutosaveWorkerOptions) *AutosaveWorker {
	interval := opts.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &AutosaveWorker{
		autosaver: opts.Autosaver,
		interval:  interval,
	}
}

// Start runs the worker until the context is cancelled.
func (w *AutosaveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saved, err := w.autosaver.Autosave(ctx)
			if err != nil {
				log.Error("Failed to autosave: %v", err)
				continue
			}
			if saved {
				log.Info("Autosave completed")
			}
		}
	}
}
