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

// SummaryStore persists thread summaries, unique per (thread, user).
type SummaryStore struct {
	db *gorm.DB
}

func NewSummaryStore(gdb *gorm.DB) *SummaryStore {
	return &SummaryStore{db: gdb}
}

// Upsert writes the summary, replacing any existing row for the same
// (thread, user) pair.
func (s *SummaryStore) Upsert(ctx context.Context, sum *models.ThreadSummary) error {
	if sum.ID == "" {
		sum.ID = uuid.New().String()
	}
	sum.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "thread_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subject", "summary", "urgency", "suggested_action", "updated_at",
		}),
	}).Create(sum).Error
	return errs.Wrap(errs.KindProvider, err, "save summary for thread %s", sum.ThreadID)
}

// ForUser returns a user's summaries, newest first.
func (s *SummaryStore) ForUser(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	var sums []models.ThreadSummary
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sums).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "list summaries for user %s", userID)
	}
	return sums, nil
}

// ByID returns a single summary.
func (s *SummaryStore) ByID(ctx context.Context, id string) (*models.ThreadSummary, error) {
	var sum models.ThreadSummary
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sum).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFoundf("summary %s not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "load summary %s", id)
	}
	return &sum, nil
}

// MarkReplied flips a thread's suggested action to Replied after a
// confirmed send. Missing rows are not an error: a reply can precede
// summarization.
func (s *SummaryStore) MarkReplied(ctx context.Context, threadID, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&models.ThreadSummary{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Updates(map[string]any{
			"suggested_action": models.ActionReplied,
			"updated_at":       time.Now(),
		}).Error
	return errs.Wrap(errs.KindProvider, err, "mark thread %s replied", threadID)
}
