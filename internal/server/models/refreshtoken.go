package models

import "time"

// RefreshToken is the stored form of an opaque refresh token.
// TokenHash is the hex SHA-256 of the raw token; the raw value is never stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
