package postgres

import (
	"context"

	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error) {
	var session domain.UserSession
	err := r.db.WithContext(ctx).First(&session, "token_hash = ? AND active = ?", tokenHash, true).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Revoke flips the matching record inactive. Revoking an unknown or
// already-inactive token is a no-op.
func (r *sessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).
		Model(&domain.UserSession{}).
		Where("token_hash = ?", tokenHash).
		Update("active", false).Error
}

func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.UserSession{}).
		Where("user_id = ?", userID).
		Update("active", false).Error
}
