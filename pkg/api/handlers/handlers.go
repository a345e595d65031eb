package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hearthvm/hearth/pkg/engine"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/log"
	"github.com/hearthvm/hearth/pkg/save"
	"github.com/hearthvm/hearth/pkg/session"
)

// Controller is the slice of a session the API needs. *session.Session
// implements it.
type Controller interface {
	Status() session.Status
	Pause() error
	Resume() error
	Quit()
	SyncSoundSettings()
	SaveGame(ctx context.Context, slot int, description string) error
	LoadGame(ctx context.Context, slot int) error
	ListSaves(ctx context.Context) ([]*save.Metadata, error)
	DeleteSave(ctx context.Context, slot int) error
	Subscribe(buffer int) (<-chan event.Event, func())
}

func HandleStatus(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, controller.Status())
	}
}

func HandlePause(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := controller.Pause(); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleResume(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := controller.Resume(); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleQuit(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		controller.Quit()
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleSyncSound(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		controller.SyncSoundSettings()
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleListSaves(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saves, err := controller.ListSaves(r.Context())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if saves == nil {
			saves = []*save.Metadata{}
		}
		writeJSON(w, saves)
	}
}

type saveGameRequest struct {
	Description string `json:"description"`
}

func HandleSaveGame(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, ok := parseSlot(w, r)
		if !ok {
			return
		}
		if slot == session.AutosaveSlot {
			http.Error(w, "Slot is reserved for autosaves", http.StatusBadRequest)
			return
		}

		var req saveGameRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Failed to decode request body", http.StatusBadRequest)
				return
			}
		}

		if err := controller.SaveGame(r.Context(), slot, req.Description); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleLoadGame(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, ok := parseSlot(w, r)
		if !ok {
			return
		}
		if err := controller.LoadGame(r.Context(), slot); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleDeleteSave(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, ok := parseSlot(w, r)
		if !ok {
			return
		}
		if err := controller.DeleteSave(r.Context(), slot); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseSlot(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(mux.Vars(r)["slot"])
	if err != nil || slot < 0 {
		http.Error(w, "Invalid save slot", http.StatusBadRequest)
		return 0, false
	}
	return slot, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeEngineError maps lifecycle errors to HTTP status codes. Invalid state
// means the operation is legal but not right now (409); unsupported feature
// means this engine can never perform it (422).
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsInvalidState(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case engine.IsUnsupportedFeature(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case save.IsNotFound(err):
		http.Error(w, "Save not found", http.StatusNotFound)
	default:
		log.Error("request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
