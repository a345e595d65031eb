package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/hearthvm/hearth/pkg/engine"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/save"
	"github.com/hearthvm/hearth/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	status     session.Status
	pauseErr   error
	saveErr    error
	loadErr    error
	deleteErr  error
	savedSlot  int
	savedDesc  string
	loadedSlot int
	quit       bool
	synced     bool
	saves      []*save.Metadata
}

func (f *fakeController) Status() session.Status { return f.status }
func (f *fakeController) Pause() error           { return f.pauseErr }
func (f *fakeController) Resume() error          { return f.pauseErr }
func (f *fakeController) Quit()                  { f.quit = true }
func (f *fakeController) SyncSoundSettings()     { f.synced = true }

func (f *fakeController) SaveGame(ctx context.Context, slot int, description string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedSlot = slot
	f.savedDesc = description
	return nil
}

func (f *fakeController) LoadGame(ctx context.Context, slot int) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loadedSlot = slot
	return nil
}

func (f *fakeController) ListSaves(ctx context.Context) ([]*save.Metadata, error) {
	return f.saves, nil
}

func (f *fakeController) DeleteSave(ctx context.Context, slot int) error {
	return f.deleteErr
}

func (f *fakeController) Subscribe(buffer int) (<-chan event.Event, func()) {
	ch := make(chan event.Event)
	close(ch)
	return ch, func() {}
}

func newRouter(controller Controller) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/status", HandleStatus(controller)).Methods(http.MethodGet)
	router.HandleFunc("/api/pause", HandlePause(controller)).Methods(http.MethodPost)
	router.HandleFunc("/api/resume", HandleResume(controller)).Methods(http.MethodPost)
	router.HandleFunc("/api/quit", HandleQuit(controller)).Methods(http.MethodPost)
	router.HandleFunc("/api/sync-sound", HandleSyncSound(controller)).Methods(http.MethodPost)
	router.HandleFunc("/api/saves", HandleListSaves(controller)).Methods(http.MethodGet)
	router.HandleFunc("/api/saves/{slot}", HandleSaveGame(controller)).Methods(http.MethodPost)
	router.HandleFunc("/api/saves/{slot}/load", HandleLoadGame(controller)).Methods(http.MethodPost)
	router.HandleFunc("/api/saves/{slot}", HandleDeleteSave(controller)).Methods(http.MethodDelete)
	return router
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleStatus(t *testing.T) {
	controller := &fakeController{status: session.Status{Target: "vault", Paused: true}}
	rec := doRequest(t, newRouter(controller), http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"target":"vault"`)
	assert.Contains(t, rec.Body.String(), `"paused":true`)
}

func TestHandlePauseResume(t *testing.T) {
	controller := &fakeController{}
	router := newRouter(controller)

	rec := doRequest(t, router, http.MethodPost, "/api/pause", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	controller.pauseErr = engine.NewError(engine.CodeInvalidState, "not paused")
	rec = doRequest(t, router, http.MethodPost, "/api/resume", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleQuitAndSyncSound(t *testing.T) {
	controller := &fakeController{}
	router := newRouter(controller)

	rec := doRequest(t, router, http.MethodPost, "/api/quit", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, controller.quit)

	rec = doRequest(t, router, http.MethodPost, "/api/sync-sound", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, controller.synced)
}

func TestHandleSaveGame(t *testing.T) {
	controller := &fakeController{}
	router := newRouter(controller)

	rec := doRequest(t, router, http.MethodPost, "/api/saves/3", `{"description":"by the door"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 3, controller.savedSlot)
	assert.Equal(t, "by the door", controller.savedDesc)
}

func TestHandleSaveGame_RejectsReservedAndInvalidSlots(t *testing.T) {
	controller := &fakeController{}
	router := newRouter(controller)

	rec := doRequest(t, router, http.MethodPost, "/api/saves/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/saves/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSaveGame_UnsupportedFeature(t *testing.T) {
	controller := &fakeController{saveErr: engine.NewError(engine.CodeUnsupportedFeature, "no saving")}
	rec := doRequest(t, newRouter(controller), http.MethodPost, "/api/saves/1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleLoadGame(t *testing.T) {
	controller := &fakeController{}
	router := newRouter(controller)

	rec := doRequest(t, router, http.MethodPost, "/api/saves/2/load", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 2, controller.loadedSlot)

	controller.loadErr = engine.NewError(engine.CodeInvalidState, "cannot load right now")
	rec = doRequest(t, router, http.MethodPost, "/api/saves/2/load", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleLoadGame_MissingSlot(t *testing.T) {
	// Engines wrap the store's not-found error; the handler must still map
	// it to a 404.
	controller := &fakeController{
		loadErr: engine.WrapError(engine.CodeLoadFailed, &save.ErrNotFound{}, "failed to load slot 9"),
	}
	rec := doRequest(t, newRouter(controller), http.MethodPost, "/api/saves/9/load", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListSaves_EmptyIsArray(t *testing.T) {
	controller := &fakeController{}
	rec := doRequest(t, newRouter(controller), http.MethodGet, "/api/saves", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleDeleteSave_NotFound(t *testing.T) {
	controller := &fakeController{deleteErr: &save.ErrNotFound{}}
	rec := doRequest(t, newRouter(controller), http.MethodDelete, "/api/saves/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
