package models

import "time"

// Sentiment is the overall tone read from a single email.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// EmailSummary is the stored analysis of one individual message for one
// user, distinct from ThreadSummary which covers a whole conversation.
// Re-processing the same message replaces the row.
type EmailSummary struct {
	ID        string    `gorm:"primaryKey" json:"id"` // UUID
	EmailID   string    `gorm:"uniqueIndex:idx_email_user" json:"emailId"`
	UserID    string    `gorm:"uniqueIndex:idx_email_user" json:"userId"`
	Summary   string    `json:"summary"`
	KeyPoints []string  `gorm:"serializer:json" json:"keyPoints"`
	Sentiment Sentiment `json:"sentiment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
