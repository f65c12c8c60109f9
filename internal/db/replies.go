package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
	"github.com/inboxpilot/inboxpilot/internal/errs"
)

// ReplyStore is the append-only log of sent replies.
type ReplyStore struct {
	db *gorm.DB
}

func NewReplyStore(gdb *gorm.DB) *ReplyStore {
	return &ReplyStore{db: gdb}
}

// Append records a sent reply. Called only after the provider has
// confirmed the send.
func (s *ReplyStore) Append(ctx context.Context, reply *models.EmailReply) error {
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	if reply.SentAt.IsZero() {
		reply.SentAt = time.Now()
	}
	err := s.db.WithContext(ctx).Create(reply).Error
	return errs.Wrap(errs.KindProvider, err, "log reply for thread %s", reply.ThreadID)
}

// ForThread returns the replies logged for a thread, newest first.
func (s *ReplyStore) ForThread(ctx context.Context, threadID string) ([]models.EmailReply, error) {
	var replies []models.EmailReply
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("sent_at DESC").
		Find(&replies).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "list replies for thread %s", threadID)
	}
	return replies, nil
}

// ForUser returns the replies a user has sent, newest first.
func (s *ReplyStore) ForUser(ctx context.Context, userID string) ([]models.EmailReply, error) {
	var replies []models.EmailReply
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Find(&replies).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindProvider, err, "list replies for user %s", userID)
	}
	return replies, nil
}
