package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
)

// TokenStore persists OAuth tokens, one live row per user.
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(gdb *gorm.DB) *TokenStore {
	return &TokenStore{db: gdb}
}

// Get returns the stored token for a user. A missing row reports an
// auth-kind error: callers needed credentials and there are none.
func (s *TokenStore) Get(ctx context.Context, userID string) (*models.UserToken, error) {
	var tok models.UserToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Authf("no stored credentials for user %s", userID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "load token for user %s", userID)
	}
	return &tok, nil
}

// Upsert writes the token, replacing any existing row for the same user.
func (s *TokenStore) Upsert(ctx context.Context, tok *models.UserToken) error {
	if tok.ID == "" {
		tok.ID = uuid.New().String()
	}
	tok.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "access_token", "refresh_token",
			"scope", "token_type", "expiry_date", "updated_at",
		}),
	}).Create(tok).Error
	return errs.Wrap(errs.KindProvider, err, "save token for user %s", tok.UserID)
}

// Delete removes a user's token (logout).
func (s *TokenStore) Delete(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserToken{}).Error
	return errs.Wrap(errs.KindProvider, err, "delete token for user %s", userID)
}

// All returns every user known to have a stored token.
func (s *TokenStore) All(ctx context.Context) ([]models.UserToken, error) {
	var toks []models.UserToken
	if err := s.db.WithContext(ctx).Find(&toks).Error; err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "list user tokens")
	}
	return toks, nil
}
