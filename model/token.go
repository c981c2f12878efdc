// file: model/token.go

package model

import "time"

// RefreshToken is a single ledger row. Only a SHA-256 hash of the issued token
// string is stored; lookups are exact matches on the hash.
type RefreshToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
