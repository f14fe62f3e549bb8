// Package users stores sevr accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/sevr/internal/server/models"
)

// Repository is the user store. Lookups return common.ErrorNotFound when no
// row matches; Create returns common.ErrorAlreadyExists on a duplicate email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetAdmin(ctx context.Context, id string) error
	SetEncryption(ctx context.Context, id string, keys models.VaultKeys) error
	// InitEncryption is SetEncryption for a user without a salt yet. It
	// returns common.ErrAlreadySetUp when a salt is stored.
	InitEncryption(ctx context.Context, id string, keys models.VaultKeys) error
	ClearEncryption(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
