package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dara-tech/flirty-sub005/internal/models"
)

// ErrNotFound marks a user with no registered tokens, distinct from a
// storage failure.
var ErrNotFound = errors.New("no push tokens for user")

// TokenStore persists device tokens in the push_tokens table.
type TokenStore struct {
	db        *gorm.DB
	tableName string
}

func NewTokenStore(db *gorm.DB, tableName string) (*TokenStore, error) {
	if tableName == "" {
		tableName = "push_tokens"
	}
	if err := db.Table(tableName).AutoMigrate(&models.PushToken{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", tableName, err)
	}
	return &TokenStore{
		db:        db,
		tableName: tableName,
	}, nil
}

// FindByUser loads every token registered for the user, in registration
// order. Returns ErrNotFound when the user has none.
func (s *TokenStore) FindByUser(ctx context.Context, userID string) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := s.db.WithContext(ctx).Table(s.tableName).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrNotFound
	}
	return tokens, nil
}

// Remove deletes exactly the given token values for the user. The delete
// is targeted rather than a read-modify-write of the whole set, so two
// concurrent cleanups for the same user cannot undo each other.
func (s *TokenStore) Remove(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Table(s.tableName).
		Where("user_id = ? AND token IN ?", userID, tokens).
		Delete(&models.PushToken{}).Error
}

// TouchLastUsed stamps last_used_at for the tokens that just received a
// successful send.
func (s *TokenStore) TouchLastUsed(ctx context.Context, userID string, tokens []string, at time.Time) error {
	if len(tokens) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Table(s.tableName).
		Where("user_id = ? AND token IN ?", userID, tokens).
		Update("last_used_at", at).Error
}
