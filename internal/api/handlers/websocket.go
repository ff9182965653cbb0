package handlers

import (
	"net/http"

	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/cortexai/cortex-backend/internal/service"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WebSocketHandler serves the chat stream over a WebSocket connection for
// clients that prefer it to the NDJSON response body. One connection carries
// one exchange: the client sends a single chat request, the server streams
// the relay events back as JSON text messages and closes.
type WebSocketHandler struct {
	chatService *chat.Service
	authService *service.AuthService
}

func NewWebSocketHandler(chatService *chat.Service, authService *service.AuthService) *WebSocketHandler {
	return &WebSocketHandler{
		chatService: chatService,
		authService: authService,
	}
}

func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on WebSocket dials; the token rides the
	// query string instead.
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Token is missing")
		return
	}

	user, err := h.authService.Validate(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req ChatRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(chat.Event{Type: chat.EventError, Error: "Invalid request body"})
		return
	}
	if req.Message == "" {
		conn.WriteJSON(chat.Event{Type: chat.EventError, Error: "Message is required"})
		return
	}

	sink := &wsSink{conn: conn}
	if _, err := h.chatService.StreamTo(r.Context(), user.ID, chat.SendInput{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		SystemPrompt:   req.SystemPrompt,
		Model:          req.Model,
		Image:          req.Image,
	}, sink); err != nil {
		log.Debug().Err(err).Msg("websocket chat stream ended with error")
	}
}

type wsSink struct {
	conn *ws.Conn
}

func (s *wsSink) Send(event chat.Event) error {
	return s.conn.WriteJSON(event)
}
