package handlers

import (
	"log/slog"
	"net/http"

	"github.com/clubvolley/club-system/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin проверяет CORS-слой, сюда доходят уже допущенные запросы.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeScoreboard подписывает клиента на обновления счёта сессии.
func (h *WebSocketHandler) ServeScoreboard(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.Int("session_id", sessionID),
			slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, live.RoomForSession(sessionID))
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
