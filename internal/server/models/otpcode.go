package models

import "time"

// OneTimeCode is a six digit login code issued for an email.
// Attempts only grows and Used only flips to true.
type OneTimeCode struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
	Attempts  int
	Used      bool
}
