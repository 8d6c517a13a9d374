package db

import "time"

// CredentialRecord is the single-row table holding the session's
// access/refresh token pair. The row is pinned to id 1; replacing the pair
// is an upsert of that one row.
type CredentialRecord struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}
