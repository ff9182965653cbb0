// Package conversation holds per-user chat transcripts for the lifetime of
// the process. The store is the sole owner of conversation data; callers get
// snapshots, never live references.
package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/google/uuid"
)

type Store struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]map[string]*domain.Conversation
}

func NewStore() *Store {
	return &Store{
		byUser: make(map[uuid.UUID]map[string]*domain.Conversation),
	}
}

// Create allocates a conversation with a fresh identifier.
func (s *Store) Create(userID uuid.UUID, title string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.userMapLocked(userID)
	id := uuid.New().String()
	if _, exists := convs[id]; exists {
		return nil, domain.ErrConversationExists
	}

	conv := &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now(),
		Turns:     []domain.Turn{},
	}
	convs[id] = conv
	return snapshot(conv), nil
}

// AppendTurn adds a turn to the conversation, creating it with a title
// derived from the content when the identifier is unknown for this user.
// Appends are serialized under the store lock; turns land in call order.
func (s *Store) AppendTurn(userID uuid.UUID, conversationID, role, content string, images []string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs := s.userMapLocked(userID)
	conv, ok := convs[conversationID]
	if !ok {
		conv = &domain.Conversation{
			ID:        conversationID,
			UserID:    userID,
			Title:     domain.DeriveTitle(content),
			CreatedAt: time.Now(),
			Turns:     []domain.Turn{},
		}
		convs[conversationID] = conv
	}

	conv.Turns = append(conv.Turns, domain.Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
		Images:    images,
	})
	return snapshot(conv), nil
}

// Get returns a snapshot of the conversation, or ErrConversationNotFound if
// the (user, id) pair does not resolve. Another user's conversation is
// indistinguishable from a missing one.
func (s *Store) Get(userID uuid.UUID, conversationID string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.byUser[userID][conversationID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return snapshot(conv), nil
}

// History returns the conversation's turns in stored order, or an empty
// slice when the conversation does not exist yet.
func (s *Store) History(userID uuid.UUID, conversationID string) []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.byUser[userID][conversationID]
	if !ok {
		return nil
	}
	turns := make([]domain.Turn, len(conv.Turns))
	copy(turns, conv.Turns)
	return turns
}

// List returns conversation summaries ordered by creation time, newest first.
func (s *Store) List(userID uuid.UUID) []domain.ConversationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.ConversationSummary, 0, len(s.byUser[userID]))
	for _, conv := range s.byUser[userID] {
		summaries = append(summaries, domain.ConversationSummary{
			ID:           conv.ID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt,
			MessageCount: len(conv.Turns),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// Clear empties the transcript, keeping the conversation and its title.
func (s *Store) Clear(userID uuid.UUID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byUser[userID][conversationID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	conv.Turns = []domain.Turn{}
	return nil
}

// Delete removes the conversation entirely.
func (s *Store) Delete(userID uuid.UUID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUser[userID][conversationID]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(s.byUser[userID], conversationID)
	return nil
}

func (s *Store) userMapLocked(userID uuid.UUID) map[string]*domain.Conversation {
	convs, ok := s.byUser[userID]
	if !ok {
		convs = make(map[string]*domain.Conversation)
		s.byUser[userID] = convs
	}
	return convs
}

func snapshot(conv *domain.Conversation) *domain.Conversation {
	out := *conv
	out.Turns = make([]domain.Turn, len(conv.Turns))
	copy(out.Turns, conv.Turns)
	return &out
}
