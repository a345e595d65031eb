package handlers

import (
	"net/http"

	"github.com/hearthvm/hearth/pkg/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// eventStreamBuffer bounds how far a slow consumer may fall behind before
// events are dropped for it.
const eventStreamBuffer = 64

// HandleEvents upgrades the connection to a websocket and streams lifecycle
// events as JSON until the client disconnects.
func HandleEvents(controller Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Error("failed to accept websocket connection: %v", err)
			return
		}
		defer conn.CloseNow()

		events, cancel := controller.Subscribe(eventStreamBuffer)
		defer cancel()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			case ev, ok := <-events:
				if !ok {
					conn.Close(websocket.StatusNormalClosure, "")
					return
				}
				if err := wsjson.Write(ctx, conn, ev); err != nil {
					log.Debug("event stream write failed: %v", err)
					return
				}
			}
		}
	}
}
