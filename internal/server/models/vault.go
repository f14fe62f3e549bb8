package models

import "time"

// VaultBlob is the single encrypted payload kept per user. The server never
// sees the key, Data and IV are base64 strings produced by the client.
type VaultBlob struct {
	UserID    string
	Data      string
	IV        string
	UpdatedAt time.Time
}

// VaultKeys is the key metadata the client publishes on setup or password
// change.
type VaultKeys struct {
	Salt             string
	Verifier         string
	RecoveryVerifier *string
}

type VaultStatus struct {
	IsSetUp          bool
	Salt             *string
	Verifier         *string
	RecoveryVerifier *string
}
