// Package vaults stores the per-user encrypted vault blob. The payload is
// opaque here: nothing in this package can or tries to decrypt it.
package vaults

import (
	"context"

	"github.com/dmitrijs2005/sevr/internal/server/models"
)

// Repository keeps at most one VaultBlob per user. Put replaces the blob
// wholesale; Get returns common.ErrorNotFound when none exists; Delete of a
// missing blob is not an error.
type Repository interface {
	Get(ctx context.Context, userID string) (*models.VaultBlob, error)
	Put(ctx context.Context, blob *models.VaultBlob) error
	Delete(ctx context.Context, userID string) error
}
