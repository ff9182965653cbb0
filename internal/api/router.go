package api

import (
	"net/http"
	"time"

	"github.com/cortexai/cortex-backend/internal/api/handlers"
	"github.com/cortexai/cortex-backend/internal/api/middleware"
	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/cortexai/cortex-backend/internal/config"
	"github.com/cortexai/cortex-backend/internal/conversation"
	"github.com/cortexai/cortex-backend/internal/notify"
	"github.com/cortexai/cortex-backend/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, chatService *chat.Service, store *conversation.Store, notifier notify.Notifier, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	chatHandler := handlers.NewChatHandler(chatService)
	convHandler := handlers.NewConversationsHandler(store)
	modelsHandler := handlers.NewModelsHandler(chatService)
	feedbackHandler := handlers.NewFeedbackHandler(notifier)
	wsHandler := handlers.NewWebSocketHandler(chatService, services.Auth)

	// Public routes
	r.Get("/models", modelsHandler.List)
	r.Post("/api/feedback", feedbackHandler.Send)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/google", authHandler.GoogleLogin)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		// Protected auth routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
			r.Post("/change-password", authHandler.ChangePassword)
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(services.Auth))

		r.Post("/chat", chatHandler.Chat)
		r.Post("/chat/stream", chatHandler.ChatStream)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", convHandler.List)
			r.Post("/new", convHandler.Create)
			r.Get("/{id}", convHandler.Get)
			r.Delete("/{id}", convHandler.Delete)
			r.Post("/{id}/clear", convHandler.Clear)
		})
	})

	// WebSocket endpoint (token via query parameter)
	r.Get("/ws/chat", wsHandler.Handle)

	return r
}
