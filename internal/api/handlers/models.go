package handlers

import (
	"net/http"

	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/rs/zerolog/log"
)

type ModelsHandler struct {
	chatService *chat.Service
}

func NewModelsHandler(chatService *chat.Service) *ModelsHandler {
	return &ModelsHandler{chatService: chatService}
}

func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	models, err := h.chatService.Models(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list models")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"models":        models,
		"current_model": h.chatService.DefaultModel(),
	})
}
