package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/cortexai/cortex-backend/internal/service"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryUserRepo is an in-memory UserRepository for tests.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *MemoryUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *MemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepo) RecordLogin(ctx context.Context, id uuid.UUID) error {
	return nil
}

// MemorySessionRepo is an in-memory SessionRepository for tests.
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.UserSession
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string]*domain.UserSession)}
}

func (r *MemorySessionRepo) Create(ctx context.Context, session *domain.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.TokenHash] = &cp
	return nil
}

func (r *MemorySessionRepo) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[tokenHash]
	if !ok || !session.Active {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *MemorySessionRepo) Revoke(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[tokenHash]; ok {
		session.Active = false
	}
	return nil
}

func (r *MemorySessionRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.UserID == userID {
			session.Active = false
		}
	}
	return nil
}

// Count returns how many session records exist for the user, active or not.
func (r *MemorySessionRepo) Count(userID uuid.UUID) (total, active int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.UserID == userID {
			total++
			if session.Active {
				active++
			}
		}
	}
	return total, active
}

// FakeEngine replays a scripted chunk sequence.
type FakeEngine struct {
	mu sync.Mutex

	// Chunks are returned in order; Err, if set, terminates the stream after
	// the chunks instead of a normal end.
	Chunks []chat.Chunk
	Err    error

	// StreamErr, if set, fails the Stream call itself.
	StreamErr error

	// LastPrompt records the most recent prompt the engine received.
	LastPrompt chat.Prompt
}

func (e *FakeEngine) Stream(ctx context.Context, prompt chat.Prompt) (chat.Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.LastPrompt = prompt
	if e.StreamErr != nil {
		return nil, e.StreamErr
	}
	chunks := make([]chat.Chunk, len(e.Chunks))
	copy(chunks, e.Chunks)
	return &fakeStream{chunks: chunks, err: e.Err}, nil
}

func (e *FakeEngine) Models(ctx context.Context) ([]chat.ModelInfo, error) {
	return []chat.ModelInfo{{Name: "models/fake-model", DisplayName: "Fake Model"}}, nil
}

type fakeStream struct {
	chunks []chat.Chunk
	err    error
	pos    int
	closed bool
}

func (s *fakeStream) Next() (chat.Chunk, error) {
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return chat.Chunk{}, s.err
		}
		return chat.Chunk{}, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *fakeStream) Close() { s.closed = true }

// CollectSink records every event it receives. Setting FailAfter >= 0 makes
// Send fail once that many events have been accepted, simulating a client
// that disconnected mid-stream.
type CollectSink struct {
	Events    []chat.Event
	FailAfter int
	failErr   error
}

func NewCollectSink() *CollectSink {
	return &CollectSink{FailAfter: -1}
}

func (s *CollectSink) Send(event chat.Event) error {
	if s.FailAfter >= 0 && len(s.Events) >= s.FailAfter {
		if s.failErr == nil {
			s.failErr = io.ErrClosedPipe
		}
		return s.failErr
	}
	s.Events = append(s.Events, event)
	return nil
}

// FakeGoogleVerifier returns a scripted profile.
type FakeGoogleVerifier struct {
	Profile *service.GoogleProfile
	Err     error
}

func (v *FakeGoogleVerifier) Verify(ctx context.Context, accessToken string) (*service.GoogleProfile, error) {
	if v.Err != nil {
		return nil, v.Err
	}
	return v.Profile, nil
}
