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

// EmailSummaryStore persists single-email summaries, unique per
// (email, user).
type EmailSummaryStore struct {
	db *gorm.DB
}

func NewEmailSummaryStore(gdb *gorm.DB) *EmailSummaryStore {
	return &EmailSummaryStore{db: gdb}
}

// Upsert writes the summary, replacing any existing row for the same
// (email, user) pair.
func (s *EmailSummaryStore) Upsert(ctx context.Context, sum *models.EmailSummary) error {
	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}
	sum.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"summary", "key_points", "sentiment", "updated_at",
		}),
	}).Create(sum).Error
	return errs.Wrap(errs.KindProvider, err, "save summary for email %s", sum.EmailID)
}

// ForUser returns a user's email summaries, newest first.
func (s *EmailSummaryStore) ForUser(ctx context.Context, userID string) ([]models.EmailSummary, error) {
	var sums []models.EmailSummary
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sums).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "list email summaries for user %s", userID)
	}
	return sums, nil
}

// ByID returns a single email summary.
func (s *EmailSummaryStore) ByID(ctx context.Context, id string) (*models.EmailSummary, error) {
	var sum models.EmailSummary
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sum).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("email summary %s not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "load email summary %s", id)
	}
	return &sum, nil
}
