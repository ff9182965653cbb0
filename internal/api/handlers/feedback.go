package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cortexai/cortex-backend/internal/notify"
	"github.com/rs/zerolog/log"
)

type FeedbackHandler struct {
	notifier notify.Notifier
}

func NewFeedbackHandler(notifier notify.Notifier) *FeedbackHandler {
	return &FeedbackHandler{notifier: notifier}
}

type FeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *FeedbackHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		respondError(w, http.StatusBadRequest, "Name, email, and message are required")
		return
	}

	if err := h.notifier.SendFeedback(r.Context(), req.Name, req.Email, req.Message); err != nil {
		log.Error().Err(err).Msg("failed to send feedback")
		respondError(w, http.StatusInternalServerError, "Failed to send feedback")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Feedback sent successfully!",
		"status":  "success",
	})
}
