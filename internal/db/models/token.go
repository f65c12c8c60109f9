package models

import "time"

// UserToken stores OAuth identity and tokens for one mailbox user. One
// live row per user: re-consenting replaces the row, logout deletes it.
type UserToken struct {
	ID           string `gorm:"primaryKey" json:"id"` // UUID
	UserID       string `gorm:"uniqueIndex" json:"userId"`
	Email        string `json:"email"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	Scope        string `json:"scope"`
	TokenType    string `json:"tokenType"`
	// ExpiryDate is epoch milliseconds, matching the provider's wire format.
	ExpiryDate int64     `json:"expiryDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Expiry returns the access token expiry as a time.
func (t *UserToken) Expiry() time.Time {
	return time.UnixMilli(t.ExpiryDate)
}

// Expired reports whether the access token is past its expiry at the
// given instant. A zero expiry counts as expired.
func (t *UserToken) Expired(now time.Time) bool {
	return t.ExpiryDate <= now.UnixMilli()
}
