package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cortexai/cortex-backend/internal/api/middleware"
	"github.com/cortexai/cortex-backend/internal/conversation"
	"github.com/go-chi/chi/v5"
)

type ConversationsHandler struct {
	store *conversation.Store
}

func NewConversationsHandler(store *conversation.Store) *ConversationsHandler {
	return &ConversationsHandler{store: store}
}

type NewConversationRequest struct {
	Title string `json:"title"`
}

func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summaries := h.store.List(user.ID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": summaries,
		"total":         len(summaries),
	})
}

func (h *ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conv, err := h.store.Get(user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

func (h *ConversationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	title := "New Conversation"
	var req NewConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Title != "" {
		title = req.Title
	}

	conv, err := h.store.Create(user.ID, title)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conv.ID,
		"message":         "New conversation created",
		"created_at":      conv.CreatedAt,
	})
}

func (h *ConversationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.Delete(user.ID, id); err != nil {
		respondError(w, http.StatusNotFound, "Conversation not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":         "Conversation deleted successfully",
		"conversation_id": id,
	})
}

func (h *ConversationsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.Clear(user.ID, id); err != nil {
		respondError(w, http.StatusNotFound, "Conversation not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":         "Conversation cleared successfully",
		"conversation_id": id,
	})
}
