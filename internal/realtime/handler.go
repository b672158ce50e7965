package realtime

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/transport"
	"github.com/workdeskhq/workdesk/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the API already allows any origin through its CORS layer
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	*transport.BaseHandler
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		hub:         hub,
	}
}

// ServeWS upgrades an authenticated request to a websocket and attaches
// it to the hub.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("websocket upgrade failed", "error", err, "user_id", actor.ID)
		return
	}

	c := &client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: actor.ID,
	}
	h.hub.register <- c

	go c.writePump()
	go c.readPump()
}
