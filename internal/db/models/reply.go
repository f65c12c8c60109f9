package models

import "time"

// EmailReply is one entry in the append-only log of sent replies. Rows
// are written only after the provider confirms the send.
type EmailReply struct {
	ID        string    `gorm:"primaryKey" json:"id"` // UUID
	ThreadID  string    `gorm:"index" json:"threadId"`
	UserID    string    `gorm:"index" json:"userId"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sentAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
