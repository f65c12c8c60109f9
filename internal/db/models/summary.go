package models

import "time"

// Urgency is the triage level assigned to a thread summary.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// Rank orders urgencies for sorting, most urgent first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	default:
		return 2
	}
}

// SuggestedAction is the recommended next step for a thread.
type SuggestedAction string

const (
	ActionReply     SuggestedAction = "Reply"
	ActionFollowUp  SuggestedAction = "Follow Up"
	ActionReadLater SuggestedAction = "Read Later"
	ActionArchive   SuggestedAction = "Archive"
	ActionForward   SuggestedAction = "Forward"
	// ActionReplied marks a thread the user has already answered; it is
	// set by the reply flow, never by analysis.
	ActionReplied SuggestedAction = "Replied"
)

// ThreadSummary is the stored analysis of one thread for one user.
// Re-summarizing the same thread replaces the row.
type ThreadSummary struct {
	ID              string          `gorm:"primaryKey" json:"id"` // UUID
	ThreadID        string          `gorm:"uniqueIndex:idx_thread_user" json:"threadId"`
	UserID          string          `gorm:"uniqueIndex:idx_thread_user" json:"userId"`
	Subject         string          `json:"subject"`
	Summary         string          `json:"summary"`
	Urgency         Urgency         `json:"urgency"`
	SuggestedAction SuggestedAction `json:"suggestedAction"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
