package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// TitleMaxLen bounds auto-derived conversation titles.
const TitleMaxLen = 50

type Conversation struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Turns     []Turn    `json:"messages"`
}

// Turn is one message in a conversation transcript. Turns are append-only;
// past turns are never edited.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
	Images    []string  `json:"images,omitempty"`
}

type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// DeriveTitle defaults a conversation title from its first user message,
// truncated with an ellipsis marker when it runs long.
func DeriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) > TitleMaxLen {
		return string(runes[:TitleMaxLen]) + "..."
	}
	return message
}
