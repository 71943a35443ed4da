package websocket

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/partyroom/game/coordinator"
)

// UpgradeRequiredBody is returned with 426 to plain HTTP requests
const UpgradeRequiredBody = "Worker expected Upgrade: websocket"

// SessionParam is the query parameter carrying a resume id
const SessionParam = "session"

// Handler upgrades requests and attaches the connections to rooms
type Handler struct {
	manager  *coordinator.Manager
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewHandler creates a WebSocket handler joining connections through manager
func NewHandler(manager *coordinator.Manager, log logrus.FieldLogger) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Rooms are joined from any origin that knows the room id
				return true
			},
		},
		log: log,
	}
}

// ServeWS handles the WebSocket endpoint of roomID
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request, roomID string) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUpgradeRequired)
		w.Write([]byte(UpgradeRequiredBody))
		return
	}

	if _, err := coordinator.NormalizeRoomID(roomID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	log := h.log.WithField("room", roomID)
	client := newClient(conn, r.URL.Query().Get(SessionParam), log)

	// The write pump must run before joining so room_state is delivered
	go client.writePump()

	room, sessionID, err := h.manager.Join(r.Context(), roomID, client)
	if err != nil {
		if errors.Is(err, coordinator.ErrShutdown) {
			log.Debug("Rejecting connection during shutdown")
		} else {
			log.WithError(err).Error("Failed to join room")
		}
		client.Close()
		return
	}

	log.WithField("session", sessionID).Info("Client connected")

	go client.readPump(room)
}
