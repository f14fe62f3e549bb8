// Package refreshtokens stores hashed refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sevr/internal/server/models"
)

// Repository keeps RefreshToken rows keyed by token hash. Revoke and
// RevokeAll are idempotent.
type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAll(ctx context.Context, userID string) error
}
