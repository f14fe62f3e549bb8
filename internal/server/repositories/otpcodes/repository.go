// Package otpcodes stores one-time login codes.
package otpcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sevr/internal/server/models"
)

// Repository keeps OneTimeCode rows. FindActive returns
// common.ErrorNotFound when no unused, unexpired code exists for the email.
//
// IncrementAttempts and MarkUsed only touch unused rows and return
// common.ErrorNotFound when the row is gone or already used, so concurrent
// callers never both see success. IncrementAttempts returns the new count
// and marks the row used once it reaches maxAttempts.
type Repository interface {
	Create(ctx context.Context, code *models.OneTimeCode) error
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
	FindActive(ctx context.Context, email string, now time.Time) (*models.OneTimeCode, error)
	FindLatest(ctx context.Context, email string, now time.Time) (*models.OneTimeCode, error)
	IncrementAttempts(ctx context.Context, id string, maxAttempts int) (int, error)
	MarkUsed(ctx context.Context, id string) error
}
