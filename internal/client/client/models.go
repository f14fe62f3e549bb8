package client

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
	IsNewUser    bool   `json:"isNewUser"`
}

type VaultStatus struct {
	IsSetUp          bool    `json:"isSetUp"`
	Salt             *string `json:"salt"`
	Verifier         *string `json:"verifier"`
	RecoveryVerifier *string `json:"recoveryVerifier"`
}

// VaultKeys is the key metadata sent on setup and password change.
type VaultKeys struct {
	Salt             string
	Verifier         string
	RecoveryVerifier string
}

// VaultData is the stored ciphertext. Data and IV are base64.
type VaultData struct {
	Data      string
	IV        string
	UpdatedAt time.Time
}
