package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/cortexai/cortex-backend/internal/repository/postgres"
	"github.com/cortexai/cortex-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSession(userID uuid.UUID, tokenHash string) *domain.UserSession {
	return &domain.UserSession{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		Active:    true,
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	userRepo := postgres.NewUserRepository(testDB.DB)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithUsername("session_user").
		WithEmail("session@example.com").
		Build(t, userRepo)

	session := newSession(user.ID, "hash-1")
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.GetActiveByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, user.ID, got.UserID)
	assert.True(t, got.Active)

	_, err = repo.GetActiveByTokenHash(ctx, "no-such-hash")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Duplicate token hashes are rejected by the unique index.
	dup := newSession(user.ID, "hash-1")
	assert.Error(t, repo.Create(ctx, dup))
}

func TestSessionRepository_Revoke(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	userRepo := postgres.NewUserRepository(testDB.DB)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithUsername("revoke_user").
		WithEmail("revoke@example.com").
		Build(t, userRepo)

	session := newSession(user.ID, "revoke-hash")
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.Revoke(ctx, "revoke-hash"))

	// Inactive records are invisible to the active lookup but still stored.
	_, err := repo.GetActiveByTokenHash(ctx, "revoke-hash")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var stored domain.UserSession
	require.NoError(t, testDB.DB.First(&stored, "token_hash = ?", "revoke-hash").Error)
	assert.False(t, stored.Active)

	// Revoking again, or revoking an unknown hash, is a no-op.
	require.NoError(t, repo.Revoke(ctx, "revoke-hash"))
	require.NoError(t, repo.Revoke(ctx, "never-issued"))
}

func TestSessionRepository_RevokeAllForUser(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	userRepo := postgres.NewUserRepository(testDB.DB)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().
		WithUsername("revokeall_alice").
		WithEmail("revokeall_alice@example.com").
		Build(t, userRepo)
	bob, _ := testutil.NewUserBuilder().
		WithUsername("revokeall_bob").
		WithEmail("revokeall_bob@example.com").
		Build(t, userRepo)

	require.NoError(t, repo.Create(ctx, newSession(alice.ID, "alice-1")))
	require.NoError(t, repo.Create(ctx, newSession(alice.ID, "alice-2")))
	require.NoError(t, repo.Create(ctx, newSession(bob.ID, "bob-1")))

	require.NoError(t, repo.RevokeAllForUser(ctx, alice.ID))

	_, err := repo.GetActiveByTokenHash(ctx, "alice-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetActiveByTokenHash(ctx, "alice-2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Other users keep their sessions.
	got, err := repo.GetActiveByTokenHash(ctx, "bob-1")
	require.NoError(t, err)
	assert.True(t, got.Active)

	// Idempotent.
	require.NoError(t, repo.RevokeAllForUser(ctx, alice.ID))
}
