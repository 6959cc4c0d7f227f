package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/prediction-league/brackets"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Ограничение Origin задается CORS-настройкой роутера, для
		// WebSocket принимаем любые источники.
		return true
	},
}

type WebSocketHandler struct {
	hub    *brackets.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// validRoom принимает общий зал турнира и комнаты клубов вида squad:<id>.
func validRoom(room string) bool {
	if room == brackets.RoomTournament {
		return true
	}
	if id, ok := strings.CutPrefix(room, "squad:"); ok {
		n, err := strconv.Atoi(id)
		return err == nil && n > 0
	}
	return false
}

// ServeWs апгрейдит соединение и подключает клиента к комнате из
// query-параметра room (по умолчанию общий зал турнира).
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		room = brackets.RoomTournament
	}
	if !validRoom(room) {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client connected", slog.String("room", room))
}
