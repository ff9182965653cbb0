package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cortexai/cortex-backend/internal/api/middleware"
	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/rs/zerolog/log"
)

type ChatHandler struct {
	chatService *chat.Service
}

func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	SystemPrompt   string `json:"system_prompt"`
	Model          string `json:"model"`
	Image          string `json:"image"`
}

type ChatResponse struct {
	ConversationID string    `json:"conversation_id"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model"`
}

func (h *ChatHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Message is required")
		return nil, false
	}
	return &req, true
}

// Chat handles a complete exchange without streaming.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	model := req.Model
	if model == "" {
		model = h.chatService.DefaultModel()
	}

	result, err := h.chatService.Send(r.Context(), user.ID, chat.SendInput{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		SystemPrompt:   req.SystemPrompt,
		Model:          model,
		Image:          req.Image,
	})
	if err != nil {
		log.Error().Err(err).Msg("chat request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		ConversationID: result.ConversationID,
		Message:        result.FullResponse,
		Timestamp:      time.Now(),
		Model:          model,
	})
}

// ChatStream relays the exchange as a newline-delimited JSON event stream.
// Event order and framing: start, then content/image events as produced,
// then exactly one end or error.
func (h *ChatHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sink := &ndjsonSink{w: w, flusher: flusher}
	_, err := h.chatService.StreamTo(r.Context(), user.ID, chat.SendInput{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		SystemPrompt:   req.SystemPrompt,
		Model:          req.Model,
		Image:          req.Image,
	}, sink)
	if err != nil {
		// The terminal error event has already been written where possible;
		// anything else means the client went away.
		log.Debug().Err(err).Msg("chat stream ended with error")
	}
}

// ndjsonSink writes one JSON event per line and flushes immediately so no
// event is withheld once produced.
type ndjsonSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *ndjsonSink) Send(event chat.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
