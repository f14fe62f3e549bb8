package client

import (
	"context"
	"time"
)

// Client is the sevr API as seen by the CLI. Implementations keep the
// session tokens; VerifyOTP starts a session and Logout ends it.
type Client interface {
	Ping(ctx context.Context) error

	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error)
	Refresh(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
	SetRefreshToken(token string)
	RefreshToken() string

	VaultStatus(ctx context.Context) (*VaultStatus, error)
	SetupVault(ctx context.Context, keys VaultKeys, allowOverwrite bool) error
	ChangePassword(ctx context.Context, keys VaultKeys, data *VaultData) error
	ResetVault(ctx context.Context) error
	GetVaultData(ctx context.Context) (*VaultData, error)
	PutVaultData(ctx context.Context, data, iv string) (time.Time, error)

	Me(ctx context.Context) (*User, error)
	DeleteAccount(ctx context.Context) error
}
