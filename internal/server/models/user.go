// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account identified by a lower-case email.
// Encryption fields stay nil until the vault is set up.
type User struct {
	ID                 string
	Email              string
	CreatedAt          time.Time
	IsAdmin            bool
	CountryCode        *string
	EncryptionSalt     *string
	EncryptionVerifier *string
	RecoveryVerifier   *string
}
